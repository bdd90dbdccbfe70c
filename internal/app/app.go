// Package app is the single owner of the application state. Front ends turn
// user input into intents, hand them to Dispatch and render the snapshot.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xaenox/stickytab/internal/aiwrite"
	"github.com/xaenox/stickytab/internal/models"
	"github.com/xaenox/stickytab/internal/notes"
	"github.com/xaenox/stickytab/internal/settings"
	"go.uber.org/zap"
)

var (
	ErrNoteNotFound    = errors.New("note not found")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidFormat   = errors.New("invalid formatting")
	ErrUnknownIntent   = errors.New("unknown intent")
)

// State is everything a render needs. It is owned by App and never shared
// through package variables.
type State struct {
	Notes    *notes.Repository
	Editor   *aiwrite.Editor
	Settings models.Settings
	Query    string
}

// Outcome reports what an intent did.
type Outcome struct {
	// NoteID is the note created or affected, if any.
	NoteID string
	// Changed is false when the intent was valid but a no-op, such as adding
	// a tag the note already has.
	Changed bool
}

type App struct {
	mu       sync.Mutex
	state    State
	settings *settings.Service
	logger   *zap.Logger
	now      func() time.Time
}

func New(repo *notes.Repository, editor *aiwrite.Editor, settingsService *settings.Service, logger *zap.Logger) *App {
	return &App{
		state: State{
			Notes:    repo,
			Editor:   editor,
			Settings: settings.WithDefaults(models.Settings{}),
		},
		settings: settingsService,
		logger:   logger,
		now:      time.Now,
	}
}

// Load reads settings and notes from the store.
func (a *App) Load(ctx context.Context) error {
	s, err := a.settings.Load(ctx)
	if err != nil {
		return err
	}
	if err := a.state.Notes.Load(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.state.Settings = s
	a.mu.Unlock()

	a.logger.Info("Application state loaded", zap.Int("notes", a.state.Notes.Len()))
	return nil
}

func (a *App) Settings() models.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Settings
}

func (a *App) SaveSettings(ctx context.Context, s models.Settings) error {
	if err := a.settings.Save(ctx, s); err != nil {
		return err
	}
	a.mu.Lock()
	a.state.Settings = settings.WithDefaults(s)
	a.mu.Unlock()
	return nil
}

// Tags lists every tag in use, sorted.
func (a *App) Tags() []string {
	return a.state.Notes.AllTags()
}

// Dispatch applies one intent. SubmitAIWrite blocks until the generation has
// finished or been canceled.
func (a *App) Dispatch(ctx context.Context, in Intent) (Outcome, error) {
	repo := a.state.Notes

	switch in := in.(type) {
	case CreateNote:
		note := repo.Create()
		if in.Title != "" {
			repo.Update(note.ID, notes.FieldTitle, in.Title)
		}
		if in.Content != "" {
			repo.Update(note.ID, notes.FieldContent, in.Content)
		}
		return Outcome{NoteID: note.ID, Changed: true}, nil

	case UpdateNote:
		return a.apply(in.ID, func() bool { return repo.Update(in.ID, in.Field, in.Value) })

	case DeleteNote:
		a.state.Editor.CancelNote(in.ID)
		return a.apply(in.ID, func() bool { return repo.Delete(in.ID) })

	case TogglePin:
		return a.apply(in.ID, func() bool { return repo.TogglePin(in.ID) })

	case AddTag:
		tag := strings.TrimSpace(in.Tag)
		return a.apply(in.ID, func() bool { return repo.AddTag(in.ID, tag) })

	case RemoveTag:
		return a.apply(in.ID, func() bool { return repo.RemoveTag(in.ID, in.Tag) })

	case SetPriority:
		if !in.Priority.Valid() || in.Priority == models.PriorityNone {
			return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidPriority, in.Priority)
		}
		return a.apply(in.ID, func() bool { return repo.SetPriority(in.ID, in.Priority) })

	case SetColor:
		return a.apply(in.ID, func() bool { return repo.SetColor(in.ID, in.Color) })

	case ToggleFormatting:
		var probe models.Formatting
		if !probe.Toggle(in.Kind) {
			return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidFormat, in.Kind)
		}
		return a.apply(in.ID, func() bool { return repo.ToggleFormatting(in.ID, in.Kind) })

	case Resize:
		return a.apply(in.ID, func() bool { return repo.SetDimensions(in.ID, in.Width, in.Height) })

	case Reorder:
		if _, ok := repo.Get(in.TargetID); !ok {
			return Outcome{}, ErrNoteNotFound
		}
		return a.apply(in.DraggedID, func() bool { return repo.Reorder(in.DraggedID, in.TargetID) })

	case Search:
		a.mu.Lock()
		changed := a.state.Query != in.Query
		a.state.Query = in.Query
		a.mu.Unlock()
		return Outcome{Changed: changed}, nil

	case StartAIWrite:
		if err := a.state.Editor.Start(in.NoteID, in.CursorOffset, in.Selection); err != nil {
			if errors.Is(err, aiwrite.ErrNoteNotFound) {
				return Outcome{}, ErrNoteNotFound
			}
			return Outcome{}, err
		}
		return Outcome{NoteID: in.NoteID, Changed: true}, nil

	case SubmitAIWrite:
		session, _ := a.state.Editor.Active()
		if err := a.state.Editor.Submit(ctx, in.Prompt); err != nil {
			return Outcome{NoteID: session.NoteID}, err
		}
		return Outcome{NoteID: session.NoteID, Changed: true}, nil

	case CancelAIWrite:
		if in.NoteID == "" {
			a.state.Editor.Cancel()
		} else {
			a.state.Editor.CancelNote(in.NoteID)
		}
		return Outcome{NoteID: in.NoteID}, nil

	case CancelAll:
		a.state.Editor.Cancel()
		return Outcome{}, nil

	case ToggleCheckbox:
		note, ok := repo.Get(in.ID)
		if !ok {
			return Outcome{}, ErrNoteNotFound
		}
		text, changed := aiwrite.ToggleCheckboxAtCursor(note.Content, in.CursorOffset, false)
		if !changed {
			return Outcome{NoteID: in.ID}, nil
		}
		return a.apply(in.ID, func() bool { return repo.Update(in.ID, notes.FieldContent, text) })

	case SetUserName:
		name := strings.TrimSpace(in.Name)
		if err := a.settings.SetUserName(ctx, name); err != nil {
			return Outcome{}, err
		}
		return a.setting(func(s *models.Settings) *string { return &s.UserName }, name), nil

	case SetTheme:
		if err := a.settings.SetTheme(ctx, in.Theme); err != nil {
			return Outcome{}, err
		}
		return a.setting(func(s *models.Settings) *string { return &s.Theme }, in.Theme), nil

	case SetTemperatureUnit:
		if err := a.settings.SetTemperatureUnit(ctx, in.Unit); err != nil {
			return Outcome{}, err
		}
		return a.setting(func(s *models.Settings) *string { return &s.TemperatureUnit }, in.Unit), nil

	case SetSearchEngine:
		if err := a.settings.SetSearchEngine(ctx, in.Engine); err != nil {
			return Outcome{}, err
		}
		return a.setting(func(s *models.Settings) *string { return &s.SearchEngine }, in.Engine), nil

	default:
		return Outcome{}, fmt.Errorf("%w: %T", ErrUnknownIntent, in)
	}
}

// apply runs a repository mutation on an existing note.
func (a *App) apply(id string, fn func() bool) (Outcome, error) {
	if _, ok := a.state.Notes.Get(id); !ok {
		return Outcome{}, ErrNoteNotFound
	}
	return Outcome{NoteID: id, Changed: fn()}, nil
}

// setting updates one cached setting after it has been stored.
func (a *App) setting(field func(*models.Settings) *string, value string) Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	dst := field(&a.state.Settings)
	changed := *dst != value
	*dst = value
	return Outcome{Changed: changed}
}

// Snapshot copies what Render needs at this instant.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	query := a.state.Query
	s := a.state.Settings
	a.mu.Unlock()

	snap := Snapshot{
		Notes:    a.state.Notes.Search(query),
		Total:    a.state.Notes.Len(),
		Query:    query,
		Settings: s,
		Now:      a.now(),
	}
	if session, ok := a.state.Editor.Active(); ok {
		snap.Session = &session
	}
	return snap
}

// Close cancels any generation and flushes pending note writes.
func (a *App) Close() error {
	a.state.Editor.Close()
	return a.state.Notes.Close()
}

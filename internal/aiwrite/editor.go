// Package aiwrite runs AI-assisted writing inside a note: one prompt, one
// streamed response spliced into the note content while it arrives.
package aiwrite

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/stickytab/internal/models"
	"github.com/xaenox/stickytab/internal/notes"
	"go.uber.org/zap"
)

const DefaultDebounce = 120 * time.Millisecond

type State int

const (
	StateIdle State = iota
	StateComposing
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateComposing:
		return "composing"
	case StateStreaming:
		return "streaming"
	default:
		return "idle"
	}
}

// NoteStore is the part of the note repository the editor writes through.
type NoteStore interface {
	Get(id string) (models.Note, bool)
	Update(id string, field notes.Field, value string) bool
}

// Surface shows the live text while a response streams in. It is called
// without editor locks held and must not block for long.
type Surface interface {
	ShowText(noteID, text string)
}

type SurfaceFunc func(noteID, text string)

func (f SurfaceFunc) ShowText(noteID, text string) { f(noteID, text) }

type streamer interface {
	Configured() bool
	Stream(ctx context.Context, req openai.ChatCompletionRequest) (*StreamReader, error)
}

type Config struct {
	Model    string
	Debounce time.Duration
}

// Session describes the active AI write, if any.
type Session struct {
	NoteID       string
	CursorOffset int
	Selection    string
	State        State
	Text         string
}

type session struct {
	noteID    string
	cursor    int
	selection string
	state     State
	cancel    context.CancelFunc
	text      strings.Builder
	timer     *time.Timer
	seq       uint64
	canceled  bool
}

// Editor allows at most one session at a time; starting a session cancels
// whatever was running before.
type Editor struct {
	client   streamer
	notes    NoteStore
	surface  Surface
	logger   *zap.Logger
	model    string
	debounce time.Duration

	mu      sync.Mutex
	current *session
}

func NewEditor(client *Client, store NoteStore, surface Surface, cfg Config, logger *zap.Logger) *Editor {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if surface == nil {
		surface = SurfaceFunc(func(string, string) {})
	}
	return &Editor{
		client:   client,
		notes:    store,
		surface:  surface,
		logger:   logger,
		model:    cfg.Model,
		debounce: cfg.Debounce,
	}
}

// Start opens the prompt for a note, capturing where the response will go.
// An empty selection means "insert at cursor". Nothing is sent yet.
func (e *Editor) Start(noteID string, cursorOffset int, selection string) error {
	if _, ok := e.notes.Get(noteID); !ok {
		return ErrNoteNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelLocked()
	e.current = &session{
		noteID:    noteID,
		cursor:    cursorOffset,
		selection: selection,
		state:     StateComposing,
	}
	return nil
}

// Submit sends the prompt and blocks until the response has been fully
// applied, the session is canceled or the request fails. Canceling ctx has
// the same effect as Cancel.
func (e *Editor) Submit(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}
	if e.client == nil || !e.client.Configured() {
		return ErrNotConfigured
	}

	e.mu.Lock()
	s := e.current
	if s == nil || s.state != StateComposing {
		e.mu.Unlock()
		return ErrNoSession
	}
	note, ok := e.notes.Get(s.noteID)
	if !ok {
		e.current = nil
		e.mu.Unlock()
		return ErrNoteNotFound
	}
	splice := NewSplice(note.Content, s.cursor, s.selection)
	req := BuildRequest(e.model, note, s.selection, prompt)

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel
	s.state = StateStreaming
	e.mu.Unlock()

	e.logger.Info("AI write started",
		zap.String("note_id", s.noteID),
		zap.Bool("has_selection", s.selection != ""))

	stream, err := e.client.Stream(streamCtx, req)
	if err != nil {
		return e.fail(s, err)
	}
	defer stream.Close()

	for {
		delta, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return e.fail(s, err)
		}
		if !e.append(s, splice, delta) {
			return ErrCanceled
		}
	}
	return e.complete(s, splice)
}

// Cancel aborts the active session, if any. Text that has not been persisted
// yet is discarded.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
}

// CancelNote cancels only when the active session belongs to noteID, as when
// the prompt of that note is dismissed.
func (e *Editor) CancelNote(noteID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil && e.current.noteID == noteID {
		e.cancelLocked()
	}
}

// Close cancels the active session. It is called on shutdown so an in-flight
// request does not outlive the process's storage.
func (e *Editor) Close() {
	e.Cancel()
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return StateIdle
	}
	return e.current.state
}

func (e *Editor) Active() (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.current
	if s == nil {
		return Session{}, false
	}
	return Session{
		NoteID:       s.noteID,
		CursorOffset: s.cursor,
		Selection:    s.selection,
		State:        s.state,
		Text:         s.text.String(),
	}, true
}

// append adds a delta, pushes the live text and schedules a debounced write.
// It reports false once the session is no longer current.
func (e *Editor) append(s *session, splice Splice, delta string) bool {
	e.mu.Lock()
	if e.current != s || s.canceled {
		e.mu.Unlock()
		return false
	}
	s.text.WriteString(delta)
	text := splice.Apply(NormalizeCheckboxes(s.text.String()))

	if s.timer != nil {
		s.timer.Stop()
	}
	s.seq++
	seq := s.seq
	s.timer = time.AfterFunc(e.debounce, func() { e.persist(s, seq, text) })
	e.mu.Unlock()

	e.surface.ShowText(s.noteID, text)
	return true
}

// persist is the debounced write. Writes superseded by a newer delta or
// arriving after cancellation are dropped.
func (e *Editor) persist(s *session, seq uint64, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != s || s.canceled || s.seq != seq {
		return
	}
	e.notes.Update(s.noteID, notes.FieldContent, text)
}

func (e *Editor) complete(s *session, splice Splice) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != s || s.canceled {
		return ErrCanceled
	}
	e.stopTimerLocked(s)
	e.current = nil

	if s.text.Len() == 0 {
		e.logger.Info("AI write returned no text", zap.String("note_id", s.noteID))
		return nil
	}
	final := splice.Apply(NormalizeCheckboxes(s.text.String()))
	e.notes.Update(s.noteID, notes.FieldContent, final)
	e.logger.Info("AI write finished",
		zap.String("note_id", s.noteID),
		zap.Int("chars", s.text.Len()))
	return nil
}

func (e *Editor) fail(s *session, err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != s || s.canceled {
		return ErrCanceled
	}
	e.stopTimerLocked(s)
	e.current = nil

	if errors.Is(err, context.Canceled) {
		return ErrCanceled
	}
	var aiErr *Error
	if !errors.As(err, &aiErr) && !errors.Is(err, ErrNotConfigured) {
		err = &Error{Category: CategoryTransport, Err: err}
	}
	e.logger.Warn("AI write failed", zap.String("note_id", s.noteID), zap.Error(err))
	return err
}

func (e *Editor) cancelLocked() {
	s := e.current
	if s == nil {
		return
	}
	s.canceled = true
	if s.cancel != nil {
		s.cancel()
	}
	e.stopTimerLocked(s)
	e.current = nil
	e.logger.Info("AI write canceled", zap.String("note_id", s.noteID), zap.String("state", s.state.String()))
}

func (e *Editor) stopTimerLocked(s *session) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.seq++
}

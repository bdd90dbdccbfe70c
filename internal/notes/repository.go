// Package notes owns the sticky-note collection: its ordering rules, legacy
// record migration and background persistence to the local storage scope.
package notes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/stickytab/internal/models"
	"github.com/xaenox/stickytab/internal/storage"
	"go.uber.org/zap"
)

// Field names the free-text fields accepted by Update.
type Field string

const (
	FieldTitle   Field = "title"
	FieldContent Field = "content"
)

type Option func(*Repository)

// WithClock replaces time.Now, mostly for tests that need distinct timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

// Repository holds the authoritative, ordered note list. The slice order is
// the display order and is persisted as is.
type Repository struct {
	mu     sync.RWMutex
	notes  []models.Note
	store  storage.Storage
	writer *writer
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewRepository(store storage.Storage, logger *zap.Logger, opts ...Option) *Repository {
	r := &Repository{
		notes:  []models.Note{},
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.writer = newWriter(store, logger)
	return r
}

// Load replaces the collection with the persisted one, migrating legacy
// records and applying the ordering rule. It is the only migration path.
func (r *Repository) Load(ctx context.Context) error {
	values, err := r.store.Get(ctx, storage.ScopeLocal, models.KeyNotes)
	if err != nil {
		return fmt.Errorf("error loading notes: %w", err)
	}

	loaded := []models.Note{}
	if raw, ok := values[models.KeyNotes]; ok && string(raw) != "null" {
		records, err := decodeNotes(raw, func(index int, err error) {
			r.logger.Warn("Skipping unreadable note", zap.Int("index", index), zap.Error(err))
		})
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(records))
		for _, rec := range records {
			note := migrate(rec)
			if _, dup := seen[note.ID]; dup || note.ID == "" {
				note.ID = r.uniqueID(seen)
			}
			seen[note.ID] = struct{}{}
			loaded = append(loaded, note)
		}
	}
	sortNotes(loaded)

	r.mu.Lock()
	r.notes = loaded
	r.mu.Unlock()

	r.logger.Info("Loaded notes", zap.Int("count", len(loaded)))
	return nil
}

// Create inserts an empty note at the head of the unpinned segment.
func (r *Repository) Create() models.Note {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	note := models.Note{
		ID:        r.uniqueID(r.idsLocked()),
		Color:     models.DefaultColor,
		Timestamp: now,
		CreatedAt: now,
		Tags:      []string{},
		Priority:  models.PriorityNone,
	}

	at := firstUnpinned(r.notes)
	r.notes = append(r.notes, models.Note{})
	copy(r.notes[at+1:], r.notes[at:])
	r.notes[at] = note

	r.persistLocked()
	return note.Clone()
}

func (r *Repository) Get(id string) (models.Note, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexLocked(id); i >= 0 {
		return r.notes[i].Clone(), true
	}
	return models.Note{}, false
}

// All returns a copy of the collection in display order.
func (r *Repository) All() []models.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.notes)
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notes)
}

// Update sets a free-text field. It does not re-sort.
func (r *Repository) Update(id string, field Field, value string) bool {
	return r.mutate(id, func(n *models.Note) bool {
		switch field {
		case FieldTitle:
			n.Title = value
		case FieldContent:
			n.Content = value
		default:
			return false
		}
		return true
	})
}

func (r *Repository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	r.notes = append(r.notes[:i], r.notes[i+1:]...)
	r.persistLocked()
	return true
}

// TogglePin flips the pin state and re-sorts the whole collection.
func (r *Repository) TogglePin(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	now := r.now()
	note := &r.notes[i]
	note.Pinned = !note.Pinned
	if note.Pinned {
		pinnedAt := now
		note.PinnedAt = &pinnedAt
	} else {
		note.PinnedAt = nil
	}
	note.Timestamp = now

	sortNotes(r.notes)
	r.persistLocked()
	return true
}

// AddTag reports whether the tag was added; empty and duplicate tags are ignored.
func (r *Repository) AddTag(id, tag string) bool {
	if tag == "" {
		return false
	}
	return r.mutate(id, func(n *models.Note) bool {
		if n.HasTag(tag) {
			return false
		}
		n.Tags = append(n.Tags, tag)
		return true
	})
}

func (r *Repository) RemoveTag(id, tag string) bool {
	return r.mutate(id, func(n *models.Note) bool {
		for i, t := range n.Tags {
			if t == tag {
				n.Tags = append(n.Tags[:i], n.Tags[i+1:]...)
				return true
			}
		}
		return false
	})
}

// SetPriority toggles: choosing the active priority again clears it.
func (r *Repository) SetPriority(id string, priority models.Priority) bool {
	if !priority.Valid() {
		return false
	}
	return r.mutate(id, func(n *models.Note) bool {
		if models.ParsePriority(string(n.Priority)) == priority {
			n.Priority = models.PriorityNone
		} else {
			n.Priority = priority
		}
		return true
	})
}

// SetColor stores color, falling back to the default color when it is not a hex token.
func (r *Repository) SetColor(id, color string) bool {
	return r.mutate(id, func(n *models.Note) bool {
		n.Color = models.SafeColor(color)
		return true
	})
}

func (r *Repository) ToggleFormatting(id string, kind models.FormatKind) bool {
	return r.mutate(id, func(n *models.Note) bool {
		return n.Formatting.Toggle(kind)
	})
}

// SetDimensions stores explicit pixel sizes; non-finite or non-positive values unset them.
func (r *Repository) SetDimensions(id string, width, height *float64) bool {
	return r.mutate(id, func(n *models.Note) bool {
		n.Width = positive(width)
		n.Height = positive(height)
		return true
	})
}

// Reorder moves the dragged note into the target's slot. This is a manual
// override of the computed order and lasts until the next re-sort.
func (r *Repository) Reorder(draggedID, targetID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	from, to := r.indexLocked(draggedID), r.indexLocked(targetID)
	if from < 0 || to < 0 || from == to {
		return false
	}
	dragged := r.notes[from]
	r.notes = append(r.notes[:from], r.notes[from+1:]...)
	r.notes = append(r.notes[:to], append([]models.Note{dragged}, r.notes[to:]...)...)

	r.persistLocked()
	return true
}

// Sort re-applies the ordering rule and persists the result.
func (r *Repository) Sort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	sortNotes(r.notes)
	r.persistLocked()
}

// Search filters by case-insensitive substring on title, content or any tag.
// An empty query returns the full collection in current order.
func (r *Repository) Search(query string) []models.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if query == "" {
		return cloneAll(r.notes)
	}
	q := strings.ToLower(query)
	matches := []models.Note{}
	for _, n := range r.notes {
		if matchesQuery(n, q) {
			matches = append(matches, n.Clone())
		}
	}
	return matches
}

// AllTags returns every tag in use, sorted, for tag suggestions.
func (r *Repository) AllTags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{})
	for _, n := range r.notes {
		for _, t := range n.Tags {
			set[t] = struct{}{}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Flush waits until every mutation made so far has reached the store.
func (r *Repository) Flush() {
	r.writer.flush()
}

// Close flushes pending writes and stops the background writer. The store is not closed.
func (r *Repository) Close() error {
	r.writer.close()
	return nil
}

// mutate applies fn to the note, refreshing its timestamp and persisting when fn reports a change.
func (r *Repository) mutate(id string, fn func(n *models.Note) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	if !fn(&r.notes[i]) {
		return false
	}
	r.notes[i].Timestamp = r.now()
	r.persistLocked()
	return true
}

func (r *Repository) persistLocked() {
	r.writer.enqueue(cloneAll(r.notes))
}

func (r *Repository) indexLocked(id string) int {
	for i := range r.notes {
		if r.notes[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) idsLocked() map[string]struct{} {
	ids := make(map[string]struct{}, len(r.notes))
	for _, n := range r.notes {
		ids[n.ID] = struct{}{}
	}
	return ids
}

func (r *Repository) uniqueID(taken map[string]struct{}) string {
	for {
		id := r.newID()
		if _, exists := taken[id]; !exists && id != "" {
			return id
		}
	}
}

func matchesQuery(n models.Note, q string) bool {
	if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func cloneAll(list []models.Note) []models.Note {
	out := make([]models.Note, len(list))
	for i, n := range list {
		out[i] = n.Clone()
	}
	return out
}

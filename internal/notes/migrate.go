package notes

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/xaenox/stickytab/internal/models"
)

// storedNote mirrors models.Note with every field optional so that records
// written by older versions can be told apart from zero values.
type storedNote struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Content    string             `json:"content"`
	Color      string             `json:"color"`
	Timestamp  *time.Time         `json:"timestamp"`
	CreatedAt  *time.Time         `json:"createdAt"`
	Pinned     *bool              `json:"pinned"`
	PinnedAt   *time.Time         `json:"pinnedAt"`
	Archived   *bool              `json:"archived"`
	Tags       []string           `json:"tags"`
	Priority   *string            `json:"priority"`
	Formatting *models.Formatting `json:"formatting"`
	Width      *float64           `json:"width"`
	Height     *float64           `json:"height"`
}

// decodeNotes parses the persisted array. Individual records that cannot be
// decoded are reported through skip and left out.
func decodeNotes(raw json.RawMessage, skip func(index int, err error)) ([]storedNote, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("error decoding notes: %w", err)
	}
	out := make([]storedNote, 0, len(items))
	for i, item := range items {
		var rec storedNote
		if err := json.Unmarshal(item, &rec); err != nil {
			skip(i, err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// migrate fills in fields that older records lack. Applying it to an
// already migrated record yields the same record.
func migrate(rec storedNote) models.Note {
	note := models.Note{
		ID:       rec.ID,
		Title:    rec.Title,
		Content:  rec.Content,
		Color:    models.SafeColor(rec.Color),
		Tags:     uniqueTags(rec.Tags),
		Priority: models.PriorityNone,
		Width:    positive(rec.Width),
		Height:   positive(rec.Height),
	}

	if rec.Timestamp != nil {
		note.Timestamp = *rec.Timestamp
	}
	note.CreatedAt = note.Timestamp
	if rec.CreatedAt != nil && !rec.CreatedAt.IsZero() {
		note.CreatedAt = *rec.CreatedAt
	}
	if note.Timestamp.IsZero() {
		note.Timestamp = note.CreatedAt
	}

	if rec.Pinned != nil {
		note.Pinned = *rec.Pinned
	}
	if note.Pinned {
		pinnedAt := note.Timestamp
		if rec.PinnedAt != nil && !rec.PinnedAt.IsZero() {
			pinnedAt = *rec.PinnedAt
		}
		note.PinnedAt = &pinnedAt
	}

	if rec.Archived != nil {
		note.Archived = *rec.Archived
	}
	if rec.Priority != nil {
		note.Priority = models.ParsePriority(*rec.Priority)
	}
	if rec.Formatting != nil {
		note.Formatting = *rec.Formatting
	}
	return note
}

func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// positive keeps finite values above zero; anything else means "default size".
func positive(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return nil
	}
	val := *v
	return &val
}

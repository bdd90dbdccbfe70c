package app

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xaenox/stickytab/internal/aiwrite"
	"github.com/xaenox/stickytab/internal/models"
	"github.com/xaenox/stickytab/internal/settings"
)

// Grid metrics of the note board, in pixels.
const (
	ColumnWidth = 158
	RowHeight   = 272
	GridGap     = 24
	MaxSize     = 2000
)

type Snapshot struct {
	Notes    []models.Note
	Total    int
	Query    string
	Settings models.Settings
	Session  *aiwrite.Session
	Now      time.Time
}

type View struct {
	Greeting    string
	Placeholder string
	Theme       string
	Query       string
	// Empty is set when no note matches the current query.
	Empty bool
	Cards []Card
}

type Card struct {
	ID         string
	Title      string
	Content    string
	Color      string
	Priority   models.Priority
	Tags       []string
	Pinned     bool
	Formatting models.Formatting
	Edited     string
	Words      string
	ColumnSpan int
	RowSpan    int
	Width      *float64
	Height     *float64
	// Generating marks the note an AI write is streaming into.
	Generating bool
	Prompting  bool
}

// Render is a pure function of the snapshot.
func Render(s Snapshot) View {
	v := View{
		Greeting:    settings.Greeting(s.Settings.UserName),
		Placeholder: settings.Placeholder(s.Settings.SearchEngine),
		Theme:       s.Settings.Theme,
		Query:       s.Query,
		Empty:       len(s.Notes) == 0,
		Cards:       make([]Card, 0, len(s.Notes)),
	}
	for _, n := range s.Notes {
		card := Card{
			ID:         n.ID,
			Title:      n.Title,
			Content:    n.Content,
			Color:      models.SafeColor(n.Color),
			Priority:   models.ParsePriority(string(n.Priority)),
			Tags:       append([]string{}, n.Tags...),
			Pinned:     n.Pinned,
			Formatting: n.Formatting,
			Edited:     TimestampLabel(n.Timestamp, s.Now),
			Words:      WordLabel(CountWords(n.Content)),
			ColumnSpan: Span(n.Width, ColumnWidth),
			RowSpan:    Span(n.Height, RowHeight),
			Width:      capSize(n.Width),
			Height:     capSize(n.Height),
		}
		if s.Session != nil && s.Session.NoteID == n.ID {
			card.Prompting = s.Session.State == aiwrite.StateComposing
			card.Generating = s.Session.State == aiwrite.StateStreaming
		}
		v.Cards = append(v.Cards, card)
	}
	return v
}

// TimestampLabel formats t relative to now in now's location.
func TimestampLabel(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	clock := t.Format("3:04 PM")
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	switch {
	case ty == ny && tm == nm && td == nd:
		return "Today, " + clock
	case ty == ny:
		return t.Format("Jan 2") + ", " + clock
	default:
		return t.Format("Jan 2, 2006") + ", " + clock
	}
}

func CountWords(text string) int {
	return len(strings.Fields(text))
}

func WordLabel(n int) string {
	if n == 1 {
		return "1 word"
	}
	return fmt.Sprintf("%d words", n)
}

// Span is the number of grid tracks a dimension covers, rounded up so
// resized notes never overlap. Unset dimensions span one track and sizes
// beyond MaxSize span as many as MaxSize does.
func Span(size *float64, track float64) int {
	if !validSize(size) {
		return 1
	}
	n := int(math.Ceil(math.Min(*size, MaxSize) / (track + GridGap)))
	if n < 1 {
		return 1
	}
	return n
}

func capSize(size *float64) *float64 {
	if !validSize(size) {
		return nil
	}
	v := math.Min(*size, MaxSize)
	return &v
}

func validSize(size *float64) bool {
	return size != nil && !math.IsNaN(*size) && !math.IsInf(*size, 0) && *size > 0
}

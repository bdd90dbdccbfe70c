package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultColor is used for new notes and whenever a stored color fails validation.
const DefaultColor = "#fef3c7"

// colorRule narrows hexcolor, which also admits #rgba and #rrggbbaa, to the
// #rgb and #rrggbb forms.
const colorRule = "hexcolor,len=4|len=7"

var validate = validator.New()

type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority accepts any casing of low/medium/high; everything else is none.
func ParsePriority(value string) Priority {
	switch p := Priority(strings.ToLower(value)); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p
	default:
		return PriorityNone
	}
}

func (p Priority) Valid() bool {
	return ParsePriority(string(p)) == p
}

// SafeColor returns value when it is a #rgb or #rrggbb token, DefaultColor otherwise.
func SafeColor(value string) string {
	s := strings.TrimSpace(value)
	if validate.Var(s, colorRule) == nil {
		return s
	}
	return DefaultColor
}

type FormatKind string

const (
	FormatBold   FormatKind = "bold"
	FormatItalic FormatKind = "italic"
	FormatCode   FormatKind = "code"
)

type Formatting struct {
	Bold   bool `json:"bold"`
	Italic bool `json:"italic"`
	Code   bool `json:"code"`
}

// Toggle flips one flag and reports whether kind was recognised.
func (f *Formatting) Toggle(kind FormatKind) bool {
	switch kind {
	case FormatBold:
		f.Bold = !f.Bold
	case FormatItalic:
		f.Italic = !f.Italic
	case FormatCode:
		f.Code = !f.Code
	default:
		return false
	}
	return true
}

// Note is one sticky note as it is persisted in the local scope.
type Note struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Color      string     `json:"color"`
	Timestamp  time.Time  `json:"timestamp"`
	CreatedAt  time.Time  `json:"createdAt"`
	Pinned     bool       `json:"pinned"`
	PinnedAt   *time.Time `json:"pinnedAt"`
	Archived   bool       `json:"archived"`
	Tags       []string   `json:"tags"`
	Priority   Priority   `json:"priority"`
	Formatting Formatting `json:"formatting"`
	Width      *float64   `json:"width"`
	Height     *float64   `json:"height"`
}

// Clone returns a deep copy so callers never share slices or pointers with the repository.
func (n Note) Clone() Note {
	c := n
	c.Tags = append([]string(nil), n.Tags...)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if n.PinnedAt != nil {
		t := *n.PinnedAt
		c.PinnedAt = &t
	}
	if n.Width != nil {
		w := *n.Width
		c.Width = &w
	}
	if n.Height != nil {
		h := *n.Height
		c.Height = &h
	}
	return c
}

func (n Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

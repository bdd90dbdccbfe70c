package aiwrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCheckboxes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"buy [] milk", "buy ☐ milk"},
		{"[ ] eggs\n[x] bread\n[X] jam", "☐ eggs\n☑ bread\n☑ jam"},
		{"no boxes here", "no boxes here"},
		{"[y] stays", "[y] stays"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCheckboxes(tt.in), tt.in)
	}
}

func TestToggleCheckboxAtCursor(t *testing.T) {
	text := "groceries\n  ☐ milk\n☑ eggs"

	got, ok := ToggleCheckboxAtCursor(text, 13, false)
	assert.True(t, ok)
	assert.Equal(t, "groceries\n  ☑ milk\n☑ eggs", got)

	got, ok = ToggleCheckboxAtCursor(text, len([]rune(text)), true)
	assert.True(t, ok)
	assert.Equal(t, "groceries\n  ☐ milk\n☐ eggs", got)

	// Far from the glyph without force: nothing happens.
	_, ok = ToggleCheckboxAtCursor(text, 18, false)
	assert.False(t, ok)

	_, ok = ToggleCheckboxAtCursor(text, 2, true)
	assert.False(t, ok)
}

func TestNewSplice(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		cursor    int
		selection string
		want      Splice
	}{
		{"empty note", "", 0, "", Splice{}},
		{"cursor at start", "hello", 0, "", Splice{After: "hello"}},
		{"after word", "hello", 5, "", Splice{Before: "hello", Separator: "\n\n"}},
		{"after space", "hello ", 6, "", Splice{Before: "hello ", Separator: "\n"}},
		{"after newline", "hello\n", 6, "", Splice{Before: "hello\n", Separator: "\n"}},
		{"selection replaced", "Intro draft end", 6, "draft", Splice{Before: "Intro ", Separator: "\n", After: " end"}},
		{"cursor clamped", "abc", 99, "", Splice{Before: "abc", Separator: "\n\n"}},
		{"runes not bytes", "héllo wörld", 6, "wörld", Splice{Before: "héllo ", Separator: "\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewSplice(tt.content, tt.cursor, tt.selection))
		})
	}
}

func TestSpliceApply(t *testing.T) {
	s := Splice{Before: "a", Separator: "\n\n", After: "z"}
	assert.Equal(t, "a\n\nmiddlez", s.Apply("middle"))
}

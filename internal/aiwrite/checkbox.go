package aiwrite

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	Unchecked = "☐"
	Checked   = "☑"
)

var (
	emptyBox   = regexp.MustCompile(`\[\s*\]`)
	checkedBox = regexp.MustCompile(`(?i)\[x\]`)
	boxAtStart = regexp.MustCompile(`^(\s*)(☐|☑|□|✓|✔)(\s+)`)
)

// NormalizeCheckboxes rewrites ASCII checklist markers to the checkbox glyphs.
func NormalizeCheckboxes(text string) string {
	text = emptyBox.ReplaceAllString(text, Unchecked)
	return checkedBox.ReplaceAllString(text, Checked)
}

// ToggleCheckboxAtCursor flips the checkbox that starts the line under
// cursor (a rune offset). Unless force is set the cursor has to sit on or
// right next to the glyph.
func ToggleCheckboxAtCursor(text string, cursor int, force bool) (string, bool) {
	lines := strings.Split(text, "\n")
	cursor = clamp(cursor, 0, len([]rune(text)))

	lineIndex, lineStart := 0, 0
	for i, line := range lines {
		n := len([]rune(line))
		if lineStart+n >= cursor {
			lineIndex = i
			break
		}
		lineStart += n + 1
	}

	line := lines[lineIndex]
	m := boxAtStart.FindStringSubmatch(line)
	if m == nil {
		return text, false
	}
	indent := []rune(m[1])
	click := cursor - lineStart
	if !force && (click < len(indent) || click > len(indent)+3) {
		return text, false
	}

	next := Unchecked
	if m[2] == Unchecked || m[2] == "□" {
		next = Checked
	}
	lines[lineIndex] = m[1] + next + m[3] + line[len(m[0]):]
	return strings.Join(lines, "\n"), true
}

// Splice is the note text around the insertion point of an AI response.
type Splice struct {
	Before    string
	Separator string
	After     string
}

// NewSplice cuts content at cursor (a rune offset). A non-empty selection
// starting at cursor is replaced; otherwise the response is inserted.
func NewSplice(content string, cursor int, selection string) Splice {
	runes := []rune(content)
	cursor = clamp(cursor, 0, len(runes))
	end := cursor
	if selection != "" {
		end = clamp(cursor+len([]rune(selection)), cursor, len(runes))
	}

	before := string(runes[:cursor])
	return Splice{
		Before:    before,
		Separator: separatorFor(before),
		After:     string(runes[end:]),
	}
}

func (s Splice) Apply(inserted string) string {
	return s.Before + s.Separator + inserted + s.After
}

// separatorFor starts generated text on a fresh paragraph unless it is at the
// very beginning of the note.
func separatorFor(before string) string {
	if before == "" {
		return ""
	}
	last := []rune(before)[len([]rune(before))-1]
	if unicode.IsSpace(last) {
		return "\n"
	}
	return "\n\n"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

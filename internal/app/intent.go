package app

import (
	"github.com/xaenox/stickytab/internal/models"
	"github.com/xaenox/stickytab/internal/notes"
)

// Intent is one user action. The set is closed: only the types in this file
// implement it.
type Intent interface {
	intent()
}

type CreateNote struct {
	Title   string
	Content string
}

type UpdateNote struct {
	ID    string
	Field notes.Field
	Value string
}

type DeleteNote struct{ ID string }

type TogglePin struct{ ID string }

type AddTag struct {
	ID  string
	Tag string
}

type RemoveTag struct {
	ID  string
	Tag string
}

type SetPriority struct {
	ID       string
	Priority models.Priority
}

type SetColor struct {
	ID    string
	Color string
}

type ToggleFormatting struct {
	ID   string
	Kind models.FormatKind
}

// Resize sets explicit pixel dimensions; nil leaves the note auto-sized.
type Resize struct {
	ID     string
	Width  *float64
	Height *float64
}

type Reorder struct {
	DraggedID string
	TargetID  string
}

type Search struct{ Query string }

// StartAIWrite opens the AI prompt on a note. An empty Selection inserts at
// CursorOffset, counted in characters.
type StartAIWrite struct {
	NoteID       string
	CursorOffset int
	Selection    string
}

type SubmitAIWrite struct{ Prompt string }

// CancelAIWrite closes the prompt of one note. An empty NoteID cancels
// whichever session is active.
type CancelAIWrite struct{ NoteID string }

// CancelAll closes every open prompt, as the Escape key does.
type CancelAll struct{}

// ToggleCheckbox flips the checklist glyph on the line at CursorOffset.
type ToggleCheckbox struct {
	ID           string
	CursorOffset int
}

// SetUserName, SetTheme, SetTemperatureUnit and SetSearchEngine change one
// setting and persist it right away.
type SetUserName struct{ Name string }

type SetTheme struct{ Theme string }

type SetTemperatureUnit struct{ Unit string }

type SetSearchEngine struct{ Engine string }

func (CreateNote) intent()         {}
func (UpdateNote) intent()         {}
func (DeleteNote) intent()         {}
func (TogglePin) intent()          {}
func (AddTag) intent()             {}
func (RemoveTag) intent()          {}
func (SetPriority) intent()        {}
func (SetColor) intent()           {}
func (ToggleFormatting) intent()   {}
func (Resize) intent()             {}
func (Reorder) intent()            {}
func (Search) intent()             {}
func (StartAIWrite) intent()       {}
func (SubmitAIWrite) intent()      {}
func (CancelAIWrite) intent()      {}
func (CancelAll) intent()          {}
func (ToggleCheckbox) intent()     {}
func (SetUserName) intent()        {}
func (SetTheme) intent()           {}
func (SetTemperatureUnit) intent() {}
func (SetSearchEngine) intent()    {}

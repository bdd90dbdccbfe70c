package aiwrite

import (
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/stickytab/internal/models"
)

const DefaultModel = "stepfun/step-3.5-flash:free"

const (
	spaceHint = `This is for sticky notes with very limited space. Keep all responses SHORT and concise.`

	checkboxHint = `

CHECKBOX FORMAT: Use ☐ (U+2610) for unchecked items and ☑ (U+2611) for checked. Each line: "☐ " or "☑ " followed by the task. When converting lists to checkboxes, put ☐ before each item.`
)

// BuildRequest prepares a streaming chat request. With a selection the model
// rewrites that text only; without one it writes new content using the note
// as context.
func BuildRequest(model string, note models.Note, selection, prompt string) openai.ChatCompletionRequest {
	if model == "" {
		model = DefaultModel
	}

	var system, user string
	if selection != "" {
		system = fmt.Sprintf(`You are an invisible writing assistant. %s

The user selected: "%s"

Respond ONLY with the improved text. No preamble, no "Here's...", no quotes. Just the text. Keep it short.%s`,
			spaceHint, selection, checkboxHint)
		user = fmt.Sprintf(`%s: "%s"`, prompt, selection)
	} else {
		system = fmt.Sprintf(`You are an invisible writing assistant. %s

The user's note:

---
%s
---

Respond ONLY with the requested content. No preamble, no meta-commentary. Just the text. Keep it short.%s`,
			spaceHint, noteContext(note), checkboxHint)
		user = prompt
	}

	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Stream: true,
	}
}

func noteContext(note models.Note) string {
	text := note.Content
	if note.Title != "" {
		text = fmt.Sprintf("Title: %s\n\n%s", note.Title, note.Content)
	}
	if text == "" {
		return "(empty)"
	}
	return text
}

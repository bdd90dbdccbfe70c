package aiwrite

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotConfigured = errors.New("ai write: proxy base URL is not set")
	ErrEmptyPrompt   = errors.New("ai write: prompt is empty")
	ErrNoSession     = errors.New("ai write: no session is waiting for a prompt")
	ErrNoteNotFound  = errors.New("ai write: note not found")
	ErrCanceled      = errors.New("ai write: canceled")
)

type Category int

const (
	CategoryConfiguration Category = iota + 1
	CategoryAuthorization
	CategoryUpstream
	CategoryTransport
)

func (c Category) String() string {
	switch c {
	case CategoryConfiguration:
		return "configuration"
	case CategoryAuthorization:
		return "authorization"
	case CategoryUpstream:
		return "upstream"
	case CategoryTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is a failed AI write that should be reported to the user. None of
// them are retried automatically.
type Error struct {
	Category Category
	Status   int
	Detail   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("ai write %s error", e.Category)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func statusError(status int, detail string) *Error {
	category := CategoryUpstream
	switch {
	case status == http.StatusInternalServerError:
		category = CategoryConfiguration
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		category = CategoryAuthorization
	}
	return &Error{Category: category, Status: status, Detail: detail}
}

// UserMessage turns any Submit error into the short text shown to the user.
// Cancellation and empty prompts produce no message.
func UserMessage(err error) string {
	if err == nil || errors.Is(err, ErrCanceled) || errors.Is(err, ErrEmptyPrompt) {
		return ""
	}
	if errors.Is(err, ErrNotConfigured) {
		return "AI write is not configured. Set the proxy base URL and deploy the relay."
	}
	if errors.Is(err, ErrNoteNotFound) {
		return "AI write failed. The note no longer exists."
	}
	if errors.Is(err, ErrNoSession) {
		return "AI write failed. Open the AI prompt on a note first."
	}

	var aiErr *Error
	if !errors.As(err, &aiErr) {
		aiErr = &Error{Category: CategoryTransport}
	}
	switch aiErr.Category {
	case CategoryConfiguration:
		return fmt.Sprintf("AI write failed. %d Proxy not configured: set OPENROUTER_API_KEY on the relay and redeploy.", aiErr.Status)
	case CategoryAuthorization:
		detail := ""
		if aiErr.Detail != "" {
			detail = ": " + truncate(aiErr.Detail, 120)
		}
		return fmt.Sprintf("AI write failed. %d Unauthorized (OpenRouter)%s.", aiErr.Status, detail)
	case CategoryUpstream:
		return fmt.Sprintf("AI write failed. %d Upstream error: check the relay logs and try again.", aiErr.Status)
	default:
		return "AI write failed. Network or stream error. Check the proxy URL and try again."
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

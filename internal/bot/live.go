package bot

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// DefaultLiveInterval keeps message edits under Telegram's rate limits.
const DefaultLiveInterval = time.Second

// LiveText shows an AI write as it streams by editing one Telegram message.
// It implements aiwrite.Surface and is created before the bot so the editor
// can be wired first.
type LiveText struct {
	mu        sync.Mutex
	sender    sender
	chatID    int64
	messageID int
	noteID    string
	gen       uint64
	lastEdit  time.Time
	lastText  string
	interval  time.Duration
	logger    *zap.Logger
}

func NewLiveText(interval time.Duration, logger *zap.Logger) *LiveText {
	if interval <= 0 {
		interval = DefaultLiveInterval
	}
	return &LiveText{interval: interval, logger: logger}
}

// ShowText edits the live message, skipping updates that arrive sooner than
// the interval after the previous edit.
func (l *LiveText) ShowText(noteID, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sender == nil || l.noteID != noteID || text == "" || text == l.lastText {
		return
	}
	if time.Since(l.lastEdit) < l.interval {
		return
	}
	l.editLocked(text)
}

// liveToken identifies one attached message. A newer begin invalidates the
// tokens handed out before it.
type liveToken struct {
	messageID int
	gen       uint64
}

// begin attaches the message that shows the write for noteID, replacing any
// message attached before.
func (l *LiveText) begin(s sender, chatID int64, messageID int, noteID string) liveToken {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.sender = s
	l.chatID = chatID
	l.messageID = messageID
	l.noteID = noteID
	l.lastEdit = time.Now()
	l.lastText = ""
	return liveToken{messageID: messageID, gen: l.gen}
}

// end writes the final text, if it differs, and detaches the message. It does
// nothing when another write has attached its own message since begin.
func (l *LiveText) end(token liveToken, final string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if token.gen != l.gen || token.messageID != l.messageID {
		return
	}
	if l.sender != nil && final != "" && final != l.lastText {
		l.editLocked(final)
	}
	l.sender = nil
	l.noteID = ""
}

func (l *LiveText) editLocked(text string) {
	edit := tgbotapi.NewEditMessageText(l.chatID, l.messageID, text)
	if _, err := l.sender.Send(edit); err != nil {
		l.logger.Debug("Failed to update live message",
			zap.Error(err),
			zap.Int64("chat_id", l.chatID))
		return
	}
	l.lastEdit = time.Now()
	l.lastText = text
}

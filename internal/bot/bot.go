// Package bot is the Telegram front end: every message from the owner is
// turned into an application intent and answered with the rendered notes.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/stickytab/internal/app"
	"github.com/xaenox/stickytab/internal/background"
	"github.com/xaenox/stickytab/internal/classifier"
	"github.com/xaenox/stickytab/internal/weather"
	"go.uber.org/zap"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Services are the optional collaborators of the bot; nil disables a feature.
type Services struct {
	Background *background.Rotator
	Weather    *weather.Client
	Classifier classifier.Classifier
}

type Config struct {
	Token string
	// AllowedUserID restricts the bot to one Telegram account. Zero allows anyone.
	AllowedUserID int64
}

type Bot struct {
	api         *tgbotapi.BotAPI
	sender      sender
	app         *app.App
	live        *LiveText
	background  *background.Rotator
	weather     *weather.Client
	classifier  classifier.Classifier
	allowedUser int64
	logger      *zap.Logger
}

func New(cfg Config, application *app.App, live *LiveText, services Services, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(api, application, live, services, cfg.AllowedUserID, logger)
	b.api = api
	if cfg.AllowedUserID == 0 {
		logger.Warn("Telegram bot accepts messages from any user")
	}
	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))
	return b, nil
}

func newBot(s sender, application *app.App, live *LiveText, services Services, allowedUser int64, logger *zap.Logger) *Bot {
	if live == nil {
		live = NewLiveText(DefaultLiveInterval, logger)
	}
	return &Bot{
		sender:      s,
		app:         application,
		live:        live,
		background:  services.Background,
		weather:     services.Weather,
		classifier:  services.Classifier,
		allowedUser: allowedUser,
		logger:      logger,
	}
}

// Start polls for updates until ctx is canceled. Each message is handled on
// its own goroutine so /cancel can interrupt a running AI write. Start returns
// only after every handler has finished, so their writes reach the store
// before it is closed.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	return b.serve(ctx, b.api.GetUpdatesChan(u), b.api.StopReceivingUpdates)
}

func (b *Bot) serve(ctx context.Context, updates tgbotapi.UpdatesChannel, stop func()) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			stop()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			wg.Add(1)
			go func(message *tgbotapi.Message) {
				defer wg.Done()
				b.handleMessage(ctx, message)
			}(update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	if b.allowedUser != 0 && message.From.ID != b.allowedUser {
		b.logger.Warn("Ignoring message from unknown user", zap.Int64("user_id", message.From.ID))
		b.sendMessage(message.Chat.ID, "This notebook is private.")
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	if strings.TrimSpace(content) == "" {
		return
	}
	b.handleNew(ctx, message, content)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "new":
		b.handleNew(ctx, message, args)
	case "notes":
		b.handleNotes(message)
	case "search":
		b.handleSearch(ctx, message, args)
	case "title":
		b.handleUpdate(ctx, message, args, fieldTitle)
	case "edit":
		b.handleUpdate(ctx, message, args, fieldContent)
	case "pin":
		b.handlePin(ctx, message, args)
	case "tag":
		b.handleTag(ctx, message, args, true)
	case "untag":
		b.handleTag(ctx, message, args, false)
	case "priority":
		b.handlePriority(ctx, message, args)
	case "color":
		b.handleColor(ctx, message, args)
	case "check":
		b.handleCheck(ctx, message, args)
	case "delete":
		b.handleDelete(ctx, message, args)
	case "tags":
		b.handleTags(message)
	case "ai":
		b.handleAI(ctx, message, args)
	case "cancel":
		b.handleCancel(ctx, message)
	case "name":
		b.handleName(ctx, message, args)
	case "move":
		b.handleMove(ctx, message, args)
	case "resize":
		b.handleResize(ctx, message, args)
	case "format":
		b.handleFormat(ctx, message, args)
	case "theme":
		b.handleTheme(ctx, message, args)
	case "unit":
		b.handleUnit(ctx, message, args)
	case "engine":
		b.handleEngine(ctx, message, args)
	case "go":
		b.handleGo(message, args)
	case "bg":
		b.handleBackground(ctx, message, args)
	case "weather":
		b.handleWeather(ctx, message)
	case "location":
		b.handleLocation(ctx, message, args)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

// escapeMarkdown escapes the characters MarkdownV2 treats as markup.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func (b *Bot) sendMessage(chatID int64, text string) tgbotapi.Message {
	msg := tgbotapi.NewMessage(chatID, text)
	sent, err := b.sender.Send(msg)
	if err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
	return sent
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send formatted message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	b.sendMessage(chatID, "⚠️ "+text)
}

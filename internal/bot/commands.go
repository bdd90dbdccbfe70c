package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/stickytab/internal/aiwrite"
	"github.com/xaenox/stickytab/internal/app"
	"github.com/xaenox/stickytab/internal/background"
	"github.com/xaenox/stickytab/internal/models"
	"github.com/xaenox/stickytab/internal/notes"
	"github.com/xaenox/stickytab/internal/settings"
	"go.uber.org/zap"
)

const (
	fieldTitle   = notes.FieldTitle
	fieldContent = notes.FieldContent

	previewLength   = 120
	selectionMarker = "::"
)

var priorityMarkers = map[models.Priority]string{
	models.PriorityHigh:   "🔴",
	models.PriorityMedium: "🟡",
	models.PriorityLow:    "🟢",
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	greeting := settings.Greeting(b.app.Settings().UserName)
	welcome := greeting + ` 📝
Send me any text and I'll keep it as a sticky note.
Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/new <title> - Create a note (next lines become the text)
/notes - List notes, pinned first
/search <text> - Filter the list (empty clears)
/title <n> <text> - Rename note n
/edit <n> <text> - Replace the text of note n
/pin <n> - Pin or unpin
/tag <n> <tag>, /untag <n> <tag> - Manage tags
/tags - Show all tags
/priority <n> low|medium|high - Set or clear priority
/color <n> <#hex> - Change color
/check <n> <line> - Tick a checklist line
/format <n> bold|italic|code - Toggle text style
/move <n> <m> - Put note n where note m is
/resize <n> <width> <height> - Resize (auto clears)
/delete <n> - Delete a note
/ai <n> <prompt> [:: text to rewrite] - Write with AI
/cancel - Stop the AI write
/name <name>, /location <city> - Personalize
/theme light|dark|glass, /unit c|f - Appearance and units
/engine <name> - Search engine for /go
/go <text or address> - Search link
/weather - Current weather
/bg [new] - Background image (new fetches another)

Notes are numbered as shown by /notes.`

	b.sendMessage(message.Chat.ID, help)
}

// handleNew saves text as a note. Text from /new uses its first line as the title.
func (b *Bot) handleNew(ctx context.Context, message *tgbotapi.Message, text string) {
	text = strings.TrimSpace(text)
	intent := app.CreateNote{Content: text}
	if message.IsCommand() {
		title, rest, _ := strings.Cut(text, "\n")
		intent = app.CreateNote{Title: strings.TrimSpace(title), Content: strings.TrimSpace(rest)}
	}

	out, ok := b.dispatch(ctx, message.Chat.ID, intent)
	if !ok {
		return
	}
	b.logger.Info("Note created from chat",
		zap.String("note_id", out.NoteID),
		zap.Int64("user_id", message.From.ID))

	reply := fmt.Sprintf("📝 Saved as note %s.", b.number(out.NoteID))
	if tags := b.autoTag(ctx, out.NoteID, text); len(tags) > 0 {
		reply += " Tagged #" + strings.Join(tags, " #") + "."
	}
	b.sendMessage(message.Chat.ID, reply)
}

// autoTag applies the classifier's suggestions and returns the tags added.
func (b *Bot) autoTag(ctx context.Context, id, text string) []string {
	if b.classifier == nil {
		return nil
	}
	added := []string{}
	for _, tag := range b.classifier.ClassifyContent(text) {
		out, err := b.app.Dispatch(ctx, app.AddTag{ID: id, Tag: tag})
		if err != nil {
			b.logger.Warn("Failed to tag note", zap.Error(err), zap.String("tag", tag))
			continue
		}
		if out.Changed {
			added = append(added, tag)
		}
	}
	return added
}

func (b *Bot) handleNotes(message *tgbotapi.Message) {
	view := app.Render(b.app.Snapshot())
	if view.Empty {
		if view.Query != "" {
			b.sendMessage(message.Chat.ID, fmt.Sprintf("No notes match %q.", view.Query))
			return
		}
		b.sendMessage(message.Chat.ID, "You don't have any notes yet.")
		return
	}

	response := "*Your notes:*\n\n"
	if view.Query != "" {
		response = fmt.Sprintf("*Notes matching* _%s_*:*\n\n", escapeMarkdown(view.Query))
	}
	for i, card := range view.Cards {
		response += formatCard(i+1, card) + "\n"
	}
	b.sendMarkdown(message.Chat.ID, response)
}

func formatCard(n int, card app.Card) string {
	var sb strings.Builder
	sb.WriteString(escapeMarkdown(fmt.Sprintf("%d.", n)))
	if card.Pinned {
		sb.WriteString(" 📌")
	}
	title := card.Title
	if title == "" {
		title = "Untitled"
	}
	sb.WriteString(" *" + escapeMarkdown(title) + "*")
	if marker, ok := priorityMarkers[card.Priority]; ok {
		sb.WriteString(" " + marker)
	}
	sb.WriteString("\n")

	if preview := truncate(card.Content, previewLength); preview != "" {
		sb.WriteString(styledPreview(preview, card.Formatting) + "\n")
	}
	meta := []string{}
	for _, tag := range card.Tags {
		meta = append(meta, "#"+strings.ReplaceAll(tag, " ", "_"))
	}
	if card.Edited != "" {
		meta = append(meta, card.Edited)
	}
	meta = append(meta, card.Words)
	sb.WriteString("_" + escapeMarkdown(strings.Join(meta, " · ")) + "_\n")
	return sb.String()
}

// styledPreview applies the note's text style as MarkdownV2 entities.
func styledPreview(text string, f models.Formatting) string {
	styled := escapeMarkdown(text)
	if f.Code {
		styled = "`" + strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(text) + "`"
	}
	if f.Italic {
		styled = "_" + styled + "_"
	}
	if f.Bold {
		styled = "*" + styled + "*"
	}
	return styled
}

func (b *Bot) handleSearch(ctx context.Context, message *tgbotapi.Message, query string) {
	if _, ok := b.dispatch(ctx, message.Chat.ID, app.Search{Query: query}); !ok {
		return
	}
	b.handleNotes(message)
}

func (b *Bot) handleUpdate(ctx context.Context, message *tgbotapi.Message, args string, field notes.Field) {
	id, text, ok := b.noteArgs(message.Chat.ID, args, true)
	if !ok {
		return
	}
	if _, ok := b.dispatch(ctx, message.Chat.ID, app.UpdateNote{ID: id, Field: field, Value: text}); !ok {
		return
	}
	b.sendMessage(message.Chat.ID, "✏️ Updated.")
}

func (b *Bot) handlePin(ctx context.Context, message *tgbotapi.Message, args string) {
	id, _, ok := b.noteArgs(message.Chat.ID, args, false)
	if !ok {
		return
	}
	if _, ok := b.dispatch(ctx, message.Chat.ID, app.TogglePin{ID: id}); !ok {
		return
	}
	if card, ok := b.card(id); ok && card.Pinned {
		b.sendMessage(message.Chat.ID, "📌 Pinned.")
		return
	}
	b.sendMessage(message.Chat.ID, "Unpinned.")
}

func (b *Bot) handleTag(ctx context.Context, message *tgbotapi.Message, args string, add bool) {
	id, tag, ok := b.noteArgs(message.Chat.ID, args, true)
	if !ok {
		return
	}
	tag = strings.TrimPrefix(tag, "#")

	var intent app.Intent = app.RemoveTag{ID: id, Tag: tag}
	if add {
		intent = app.AddTag{ID: id, Tag: tag}
	}
	out, ok := b.dispatch(ctx, message.Chat.ID, intent)
	if !ok {
		return
	}
	switch {
	case out.Changed && add:
		b.sendMessage(message.Chat.ID, "🏷 Tagged #"+tag+".")
	case out.Changed:
		b.sendMessage(message.Chat.ID, "Removed #"+tag+".")
	case add:
		b.sendMessage(message.Chat.ID, "The note already has that tag.")
	default:
		b.sendMessage(message.Chat.ID, "The note has no such tag.")
	}
}

func (b *Bot) handleTags(message *tgbotapi.Message) {
	tags := b.app.Tags()
	if len(tags) == 0 {
		b.sendMessage(message.Chat.ID, "You don't have any tags yet.")
		return
	}

	response := "*Your tags:*\n"
	for _, tag := range tags {
		formattedTag := "#" + strings.ReplaceAll(tag, " ", "_")
		response += escapeMarkdown(formattedTag) + "\n"
	}
	b.sendMarkdown(message.Chat.ID, response)
}

func (b *Bot) handlePriority(ctx context.Context, message *tgbotapi.Message, args string) {
	id, value, ok := b.noteArgs(message.Chat.ID, args, true)
	if !ok {
		return
	}
	priority := models.Priority(strings.ToLower(value))
	if _, ok := b.dispatch(ctx, message.Chat.ID, app.SetPriority{ID: id, Priority: priority}); !ok {
		return
	}
	if card, ok := b.card(id); ok && card.Priority == models.PriorityNone {
		b.sendMessage(message.Chat.ID, "Priority cleared.")
		return
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("%s Priority set to %s.", priorityMarkers[priority], priority))
}

func (b *Bot) handleColor(ctx context.Context, message *tgbotapi.Message, args string) {
	id, color, ok := b.noteArgs(message.Chat.ID, args, true)
	if !ok {
		return
	}
	if _, ok := b.dispatch(ctx, message.Chat.ID, app.SetColor{ID: id, Color: color}); !ok {
		return
	}
	card, _ := b.card(id)
	if card.Color != color {
		b.sendMessage(message.Chat.ID, fmt.Sprintf("%q is not a hex color, using %s.", color, card.Color))
		return
	}
	b.sendMessage(message.Chat.ID, "🎨 Color set to "+card.Color+".")
}

func (b *Bot) handleCheck(ctx context.Context, message *tgbotapi.Message, args string) {
	id, lineArg, ok := b.noteArgs(message.Chat.ID, args, true)
	if !ok {
		return
	}
	line, err := strconv.Atoi(lineArg)
	card, found := b.card(id)
	if err != nil || !found {
		b.sendMessage(message.Chat.ID, "Usage: /check <note> <line>")
		return
	}
	cursor, ok := lineOffset(card.Content, line)
	if !ok {
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Note %s has no line %d.", b.number(id), line))
		return
	}

	out, ok := b.dispatch(ctx, message.Chat.ID, app.ToggleCheckbox{ID: id, CursorOffset: cursor})
	if !ok {
		return
	}
	if !out.Changed {
		b.sendMessage(message.Chat.ID, "That line is not a checklist item.")
		return
	}
	card, _ = b.card(id)
	b.sendMessage(message.Chat.ID, card.Content)
}

// lineOffset returns the character offset of the first non-blank character
// of the 1-based line.
func lineOffset(text string, line int) (int, bool) {
	lines := strings.Split(text, "\n")
	if line < 1 || line > len(lines) {
		return 0, false
	}
	offset := 0
	for _, l := range lines[:line-1] {
		offset += utf8.RuneCountInString(l) + 1
	}
	for _, r := range lines[line-1] {
		if !unicode.IsSpace(r) {
			break
		}
		offset++
	}
	return offset, true
}

func (b *Bot) handleDelete(ctx context.Context, message *tgbotapi.Message, args string) {
	id, _, ok := b.noteArgs(message.Chat.ID, args, false)
	if !ok {
		return
	}
	if _, ok := b.dispatch(ctx, message.Chat.ID, app.DeleteNote{ID: id}); !ok {
		return
	}
	b.sendMessage(message.Chat.ID, "🗑 Deleted.")
}

func (b *Bot) handleMove(ctx context.Context, message *tgbotapi.Message, args string) {
	id, targetRef, ok := b.noteArgs(message.Chat.ID, args, true)
	if !ok {
		return
	}
	target, ok := b.resolve(targetRef)
	if !ok {
		b.sendMessage(message.Chat.ID, "Note not found. Use /notes to see the numbers.")
		return
	}
	out, ok := b.dispatch(ctx, message.Chat.ID, app.Reorder{DraggedID: id, TargetID: target})
	if !ok {
		return
	}
	if !out.Changed {
		b.sendMessage(message.Chat.ID, "The note is already there.")
		return
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("↕️ Moved to %s.", b.number(id)))
}

// handleResize takes "<n> <width> <height>" in pixels. "auto" or a missing
// height leaves that dimension sized by the grid.
func (b *Bot) handleResize(ctx context.Context, message *tgbotapi.Message, args string) {
	id, rest, ok := b.noteArgs(message.Chat.ID, args, true)
	if !ok {
		return
	}
	fields := strings.Fields(rest)
	if len(fields) > 2 {
		b.sendMessage(message.Chat.ID, "Usage: /resize <n> <width> <height>")
		return
	}
	sizes := make([]*float64, 2)
	for i, field := range fields {
		if strings.EqualFold(field, "auto") {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || v <= 0 {
			b.sendMessage(message.Chat.ID, "Usage: /resize <n> <width> <height>")
			return
		}
		sizes[i] = &v
	}
	if _, ok := b.dispatch(ctx, message.Chat.ID, app.Resize{ID: id, Width: sizes[0], Height: sizes[1]}); !ok {
		return
	}
	card, _ := b.card(id)
	b.sendMessage(message.Chat.ID, fmt.Sprintf("📐 Note %s spans %d×%d.", b.number(id), card.ColumnSpan, card.RowSpan))
}

func (b *Bot) handleFormat(ctx context.Context, message *tgbotapi.Message, args string) {
	id, kind, ok := b.noteArgs(message.Chat.ID, args, true)
	if !ok {
		return
	}
	format := models.FormatKind(strings.ToLower(kind))
	if _, ok := b.dispatch(ctx, message.Chat.ID, app.ToggleFormatting{ID: id, Kind: format}); !ok {
		return
	}
	card, _ := b.card(id)
	state := "off"
	if formatOn(card.Formatting, format) {
		state = "on"
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("%s %s.", formatLabels[format], state))
}

var formatLabels = map[models.FormatKind]string{
	models.FormatBold:   "Bold",
	models.FormatItalic: "Italic",
	models.FormatCode:   "Code",
}

func formatOn(f models.Formatting, kind models.FormatKind) bool {
	switch kind {
	case models.FormatBold:
		return f.Bold
	case models.FormatItalic:
		return f.Italic
	case models.FormatCode:
		return f.Code
	}
	return false
}

// handleAI streams a response into a note. Without a selection the text is
// appended; with "prompt :: text" the first occurrence of text is rewritten.
func (b *Bot) handleAI(ctx context.Context, message *tgbotapi.Message, args string) {
	id, rest, ok := b.noteArgs(message.Chat.ID, args, true)
	if !ok {
		return
	}
	card, _ := b.card(id)

	prompt, selection, _ := strings.Cut(rest, selectionMarker)
	prompt, selection = strings.TrimSpace(prompt), strings.TrimSpace(selection)
	if prompt == "" {
		b.sendMessage(message.Chat.ID, "What should I write? Usage: /ai <n> <prompt>")
		return
	}
	cursor := utf8.RuneCountInString(card.Content)
	if selection != "" {
		i := strings.Index(card.Content, selection)
		if i < 0 {
			b.sendMessage(message.Chat.ID, "That text is not in the note.")
			return
		}
		cursor = utf8.RuneCountInString(card.Content[:i])
	}

	if _, ok := b.dispatch(ctx, message.Chat.ID, app.StartAIWrite{NoteID: id, CursorOffset: cursor, Selection: selection}); !ok {
		return
	}
	placeholder := b.sendMessage(message.Chat.ID, "✨ Writing…")
	token := b.live.begin(b.sender, message.Chat.ID, placeholder.MessageID, id)

	_, err := b.app.Dispatch(ctx, app.SubmitAIWrite{Prompt: prompt})
	switch {
	case errors.Is(err, aiwrite.ErrCanceled):
		b.live.end(token, "✖ Canceled.")
	case err != nil:
		b.live.end(token, "")
		// Only these leave the prompt open; every other failure has already
		// ended the session.
		if errors.Is(err, aiwrite.ErrNotConfigured) || errors.Is(err, aiwrite.ErrEmptyPrompt) {
			if _, cerr := b.app.Dispatch(ctx, app.CancelAIWrite{NoteID: id}); cerr != nil {
				b.logger.Warn("Failed to close AI prompt", zap.Error(cerr), zap.String("note_id", id))
			}
		}
		if text := aiwrite.UserMessage(err); text != "" {
			b.sendErrorMessage(message.Chat.ID, text)
		}
	default:
		final, _ := b.card(id)
		b.live.end(token, final.Content)
	}
}

func (b *Bot) handleCancel(ctx context.Context, message *tgbotapi.Message) {
	if b.app.Snapshot().Session == nil {
		b.sendMessage(message.Chat.ID, "Nothing to cancel.")
		return
	}
	b.dispatch(ctx, message.Chat.ID, app.CancelAll{})
}

func (b *Bot) handleName(ctx context.Context, message *tgbotapi.Message, name string) {
	if _, ok := b.dispatch(ctx, message.Chat.ID, app.SetUserName{Name: name}); !ok {
		return
	}
	b.sendMessage(message.Chat.ID, settings.Greeting(name)+" 👋")
}

func (b *Bot) handleTheme(ctx context.Context, message *tgbotapi.Message, theme string) {
	if theme == "" {
		b.sendMessage(message.Chat.ID, "Theme: "+b.app.Settings().Theme+".")
		return
	}
	theme = strings.ToLower(theme)
	if _, ok := b.dispatch(ctx, message.Chat.ID, app.SetTheme{Theme: theme}); !ok {
		return
	}
	b.sendMessage(message.Chat.ID, "🎨 Theme set to "+theme+".")
}

func (b *Bot) handleUnit(ctx context.Context, message *tgbotapi.Message, unit string) {
	unit = strings.ToLower(strings.TrimPrefix(unit, "°"))
	if _, ok := b.dispatch(ctx, message.Chat.ID, app.SetTemperatureUnit{Unit: unit}); !ok {
		return
	}
	if unit == settings.UnitFahrenheit {
		b.sendMessage(message.Chat.ID, "🌡 Temperatures in °F.")
		return
	}
	b.sendMessage(message.Chat.ID, "🌡 Temperatures in °C.")
}

func (b *Bot) handleEngine(ctx context.Context, message *tgbotapi.Message, engine string) {
	if engine == "" {
		s := b.app.Settings()
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Searching with %s. Options: %s.",
			settings.EngineName(s.SearchEngine), strings.Join(settings.Engines(), ", ")))
		return
	}
	engine = strings.ToLower(engine)
	if _, ok := b.dispatch(ctx, message.Chat.ID, app.SetSearchEngine{Engine: engine}); !ok {
		return
	}
	b.sendMessage(message.Chat.ID, "🔎 Searching with "+settings.EngineName(engine)+".")
}

// handleGo answers with the address the search bar would open.
func (b *Bot) handleGo(message *tgbotapi.Message, query string) {
	target, ok := settings.SearchTarget(b.app.Settings().SearchEngine, query)
	if !ok {
		b.sendMessage(message.Chat.ID, settings.Placeholder(b.app.Settings().SearchEngine)+": /go <text>")
		return
	}
	b.sendMessage(message.Chat.ID, target)
}

func (b *Bot) handleLocation(ctx context.Context, message *tgbotapi.Message, location string) {
	s := b.app.Settings()
	s.Location = location
	if err := b.app.SaveSettings(ctx, s); err != nil {
		b.logger.Error("Failed to save settings", zap.Error(err))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your location.")
		return
	}
	if strings.TrimSpace(location) == "" {
		b.sendMessage(message.Chat.ID, "Location cleared.")
		return
	}
	b.sendMessage(message.Chat.ID, "📍 Location set to "+strings.TrimSpace(location)+".")
}

func (b *Bot) handleWeather(ctx context.Context, message *tgbotapi.Message) {
	s := b.app.Settings()
	if b.weather == nil || s.Location == "" {
		b.sendMessage(message.Chat.ID, "Set a location first with /location <city>.")
		return
	}
	report, ok, err := b.weather.Current(ctx, s.Location, s.TemperatureUnit == "f")
	if err != nil {
		b.logger.Warn("Failed to fetch weather", zap.Error(err), zap.String("location", s.Location))
		b.sendErrorMessage(message.Chat.ID, "Weather is unavailable right now.")
		return
	}
	if !ok {
		b.sendMessage(message.Chat.ID, fmt.Sprintf("I couldn't find %q.", s.Location))
		return
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("%s · %s in %s", report, report.Description(), report.Location))
}

// handleBackground sends the cached background while it is fresh. "new"
// always fetches another one.
func (b *Bot) handleBackground(ctx context.Context, message *tgbotapi.Message, args string) {
	if b.background == nil {
		b.sendMessage(message.Chat.ID, "Backgrounds are not configured.")
		return
	}
	var url string
	var err error
	if strings.EqualFold(args, "new") {
		url, err = b.background.Next(ctx)
	} else {
		url, err = b.background.Refresh(ctx, background.DefaultMaxAge)
	}
	if err != nil {
		b.logger.Warn("Failed to fetch background", zap.Error(err))
		b.sendErrorMessage(message.Chat.ID, "Couldn't fetch a new background. Try again later.")
		return
	}
	photo := tgbotapi.NewPhoto(message.Chat.ID, tgbotapi.FileURL(url))
	if _, err := b.sender.Send(photo); err != nil {
		b.logger.Error("Failed to send background", zap.Error(err), zap.Int64("chat_id", message.Chat.ID))
	}
}

// dispatch runs an intent and answers known failures itself.
func (b *Bot) dispatch(ctx context.Context, chatID int64, intent app.Intent) (app.Outcome, bool) {
	out, err := b.app.Dispatch(ctx, intent)
	switch {
	case err == nil:
		return out, true
	case errors.Is(err, app.ErrNoteNotFound):
		b.sendMessage(chatID, "Note not found. Use /notes to see the numbers.")
	case errors.Is(err, app.ErrInvalidPriority):
		b.sendMessage(chatID, "Priority must be low, medium or high.")
	case errors.Is(err, app.ErrInvalidFormat):
		b.sendMessage(chatID, "Format must be bold, italic or code.")
	case errors.Is(err, settings.ErrEmptyName):
		b.sendMessage(chatID, "Usage: /name <your name>")
	case errors.Is(err, settings.ErrUnknownTheme):
		b.sendMessage(chatID, "Theme must be light, dark or glass.")
	case errors.Is(err, settings.ErrUnknownUnit):
		b.sendMessage(chatID, "Unit must be c or f.")
	case errors.Is(err, settings.ErrUnknownEngine):
		b.sendMessage(chatID, "Search engine must be one of "+strings.Join(settings.Engines(), ", ")+".")
	default:
		b.logger.Error("Failed to apply intent",
			zap.Error(err),
			zap.String("intent", fmt.Sprintf("%T", intent)),
			zap.Int64("chat_id", chatID))
		b.sendErrorMessage(chatID, "Sorry, something went wrong. Please try again.")
	}
	return out, false
}

// noteArgs splits "<note> <rest>" and resolves the note reference.
func (b *Bot) noteArgs(chatID int64, args string, needRest bool) (string, string, bool) {
	ref, rest := splitRef(args)
	if ref == "" || (needRest && rest == "") {
		b.sendMessage(chatID, "Missing arguments. Use /help to see the syntax.")
		return "", "", false
	}
	id, ok := b.resolve(ref)
	if !ok {
		b.sendMessage(chatID, "Note not found. Use /notes to see the numbers.")
		return "", "", false
	}
	return id, rest, true
}

func splitRef(args string) (string, string) {
	args = strings.TrimSpace(args)
	i := strings.IndexFunc(args, unicode.IsSpace)
	if i < 0 {
		return args, ""
	}
	return args[:i], strings.TrimSpace(args[i:])
}

// resolve accepts a 1-based position in the current listing or a note id.
func (b *Bot) resolve(ref string) (string, bool) {
	view := app.Render(b.app.Snapshot())
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(view.Cards) {
			return "", false
		}
		return view.Cards[n-1].ID, true
	}
	for _, card := range view.Cards {
		if card.ID == ref {
			return card.ID, true
		}
	}
	return "", false
}

func (b *Bot) card(id string) (app.Card, bool) {
	for _, card := range app.Render(b.app.Snapshot()).Cards {
		if card.ID == id {
			return card, true
		}
	}
	return app.Card{}, false
}

func (b *Bot) number(id string) string {
	for i, card := range app.Render(b.app.Snapshot()).Cards {
		if card.ID == id {
			return strconv.Itoa(i + 1)
		}
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

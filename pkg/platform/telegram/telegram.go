// Package telegram adapts the platform capability surface to the Telegram
// Bot API via telego.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"

	"github.com/flowbotio/flowbot/pkg/events"
	"github.com/flowbotio/flowbot/pkg/models"
	"github.com/flowbotio/flowbot/pkg/platform"
)

// Adapter implements platform.Platform against the Telegram Bot API and maps
// long-polled updates to inbound events.
type Adapter struct {
	bot    *telego.Bot
	logger *slog.Logger
}

// New creates an adapter for the bot identified by token.
func New(token string, logger *slog.Logger) (*Adapter, error) {
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Adapter{bot: bot, logger: logger}, nil
}

// Listen long-polls Telegram for updates and publishes each recognized one
// through publish. It returns when ctx is cancelled or polling fails.
func (a *Adapter) Listen(ctx context.Context, publish func(context.Context, events.Inbound) error) error {
	updates, err := a.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	for update := range updates {
		evt, ok := a.mapUpdate(update)
		if !ok {
			continue
		}

		if err := publish(ctx, evt); err != nil {
			a.logger.ErrorContext(ctx, "Failed to publish inbound event", "error", err, "event_type", evt.Type)
		}
	}

	return ctx.Err()
}

// mapUpdate translates a Telegram update into an inbound event. Updates the
// engine has no use for (edits, channel posts, joins) are dropped here, which
// is the intended idle-tolerance rather than an error.
func (a *Adapter) mapUpdate(update telego.Update) (events.Inbound, bool) {
	if update.CallbackQuery != nil {
		query := update.CallbackQuery

		var chatID int64

		var messageID int

		if query.Message != nil {
			chatID = query.Message.GetChat().ID
			messageID = query.Message.GetMessageID()
		}

		evt := events.NewInbound(events.CallbackEvent, strconv.FormatInt(query.From.ID, 10), chatID)
		evt.MessageID = messageID
		evt.CallbackData = query.Data
		evt.CallbackID = query.ID
		evt.User = userMeta(&query.From)

		return evt, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return events.Inbound{}, false
	}

	userID := strconv.FormatInt(msg.From.ID, 10)

	var evt events.Inbound

	switch {
	case msg.Contact != nil:
		evt = events.NewInbound(events.ContactEvent, userID, msg.Chat.ID)
		evt.Contact = &events.Contact{
			PhoneNumber: msg.Contact.PhoneNumber,
			FirstName:   msg.Contact.FirstName,
			LastName:    msg.Contact.LastName,
		}
	case msg.Location != nil:
		evt = events.NewInbound(events.LocationEvent, userID, msg.Chat.ID)
		evt.Location = &events.Location{
			Latitude:  msg.Location.Latitude,
			Longitude: msg.Location.Longitude,
		}
	case strings.HasPrefix(msg.Text, "/"):
		evt = events.NewInbound(events.CommandEvent, userID, msg.Chat.ID)
		evt.Text = msg.Text
	case msg.Text != "":
		evt = events.NewInbound(events.TextEvent, userID, msg.Chat.ID)
		evt.Text = msg.Text
	default:
		return events.Inbound{}, false
	}

	evt.MessageID = msg.MessageID
	evt.User = userMeta(msg.From)

	return evt, true
}

func userMeta(user *telego.User) events.UserMeta {
	return events.UserMeta{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

func (a *Adapter) SendText(ctx context.Context, chatID int64, text string, format models.FormatMode, keyboard platform.Keyboard) error {
	params := &telego.SendMessageParams{
		ChatID:      telego.ChatID{ID: chatID},
		Text:        text,
		ParseMode:   parseMode(format),
		ReplyMarkup: replyMarkup(keyboard),
	}

	if _, err := a.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func (a *Adapter) SendMedia(ctx context.Context, chatID int64, kind platform.MediaKind, sourceRef, caption string, format models.FormatMode, keyboard platform.Keyboard) error {
	file, cleanup, err := inputFile(sourceRef)
	if err != nil {
		return err
	}

	defer cleanup()

	chat := telego.ChatID{ID: chatID}
	mode := parseMode(format)
	markup := replyMarkup(keyboard)

	switch kind {
	case platform.MediaPhoto:
		_, err = a.bot.SendPhoto(ctx, &telego.SendPhotoParams{
			ChatID: chat, Photo: file, Caption: caption, ParseMode: mode, ReplyMarkup: markup,
		})
	case platform.MediaVideo:
		_, err = a.bot.SendVideo(ctx, &telego.SendVideoParams{
			ChatID: chat, Video: file, Caption: caption, ParseMode: mode, ReplyMarkup: markup,
		})
	case platform.MediaAudio:
		_, err = a.bot.SendAudio(ctx, &telego.SendAudioParams{
			ChatID: chat, Audio: file, Caption: caption, ParseMode: mode, ReplyMarkup: markup,
		})
	case platform.MediaDocument:
		_, err = a.bot.SendDocument(ctx, &telego.SendDocumentParams{
			ChatID: chat, Document: file, Caption: caption, ParseMode: mode, ReplyMarkup: markup,
		})
	default:
		return fmt.Errorf("unsupported media kind %q", kind)
	}

	if err != nil {
		return fmt.Errorf("failed to send %s: %w", kind, err)
	}

	return nil
}

func (a *Adapter) SendLocation(ctx context.Context, chatID int64, latitude, longitude float64) error {
	_, err := a.bot.SendLocation(ctx, &telego.SendLocationParams{
		ChatID:    telego.ChatID{ID: chatID},
		Latitude:  latitude,
		Longitude: longitude,
	})
	if err != nil {
		return fmt.Errorf("failed to send location: %w", err)
	}

	return nil
}

func (a *Adapter) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, format models.FormatMode, keyboard platform.Keyboard) error {
	params := &telego.EditMessageTextParams{
		ChatID:    telego.ChatID{ID: chatID},
		MessageID: messageID,
		Text:      text,
		ParseMode: parseMode(format),
	}

	// Edits only support inline markup on Telegram.
	if keyboard.Kind == platform.KeyboardKindInline {
		params.ReplyMarkup = inlineMarkup(keyboard)
	}

	if _, err := a.bot.EditMessageText(ctx, params); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}

	return nil
}

func (a *Adapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	err := a.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	return nil
}

func (a *Adapter) AnswerCallback(ctx context.Context, callbackID, text string) error {
	err := a.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}

	return nil
}

func parseMode(format models.FormatMode) string {
	switch format {
	case models.FormatMarkdown:
		return telego.ModeMarkdown
	case models.FormatHTML:
		return telego.ModeHTML
	default:
		return ""
	}
}

// inputFile resolves a media source reference: local paths are uploaded from
// disk, anything else is passed to Telegram as a remote URL or file id.
func inputFile(sourceRef string) (telego.InputFile, func(), error) {
	noop := func() {}

	if strings.HasPrefix(sourceRef, "http://") || strings.HasPrefix(sourceRef, "https://") {
		return telego.InputFile{URL: sourceRef}, noop, nil
	}

	info, err := os.Stat(sourceRef)
	if err != nil || info.IsDir() {
		// Not a readable local path; let Telegram treat it as a file id.
		return telego.InputFile{FileID: sourceRef}, noop, nil
	}

	file, err := os.Open(sourceRef)
	if err != nil {
		return telego.InputFile{}, noop, fmt.Errorf("failed to open media file %s: %w", sourceRef, err)
	}

	return telego.InputFile{File: file}, func() { _ = file.Close() }, nil
}

func replyMarkup(keyboard platform.Keyboard) telego.ReplyMarkup {
	switch keyboard.Kind {
	case platform.KeyboardKindInline:
		return inlineMarkup(keyboard)
	case platform.KeyboardKindReply:
		rows := make([][]telego.KeyboardButton, 0, len(keyboard.Reply))

		for _, row := range keyboard.Reply {
			buttons := make([]telego.KeyboardButton, 0, len(row))

			for _, btn := range row {
				buttons = append(buttons, telego.KeyboardButton{
					Text:            btn.Text,
					RequestContact:  btn.RequestContact,
					RequestLocation: btn.RequestLocation,
				})
			}

			rows = append(rows, buttons)
		}

		return &telego.ReplyKeyboardMarkup{
			Keyboard:        rows,
			ResizeKeyboard:  keyboard.Resize,
			OneTimeKeyboard: keyboard.OneTime,
		}
	case platform.KeyboardKindRemove:
		return &telego.ReplyKeyboardRemove{RemoveKeyboard: true}
	default:
		return nil
	}
}

func inlineMarkup(keyboard platform.Keyboard) *telego.InlineKeyboardMarkup {
	rows := make([][]telego.InlineKeyboardButton, 0, len(keyboard.Inline))

	for _, row := range keyboard.Inline {
		buttons := make([]telego.InlineKeyboardButton, 0, len(row))

		for _, btn := range row {
			buttons = append(buttons, telego.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.CallbackData,
				URL:          btn.URL,
			})
		}

		rows = append(rows, buttons)
	}

	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

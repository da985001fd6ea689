// Package platform abstracts the chat platform capabilities the flow engine
// renders through. Adapters translate this surface to a concrete bot API.
package platform

import (
	"context"

	"github.com/flowbotio/flowbot/pkg/models"
)

// MediaKind selects the platform primitive used to deliver a media node.
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
)

// MediaKindFor maps a media node kind to its platform media kind.
func MediaKindFor(kind models.NodeKind) (MediaKind, bool) {
	switch kind {
	case models.NodeKindPhoto:
		return MediaPhoto, true
	case models.NodeKindVideo:
		return MediaVideo, true
	case models.NodeKindAudio:
		return MediaAudio, true
	case models.NodeKindDocument:
		return MediaDocument, true
	default:
		return "", false
	}
}

// KeyboardKind is the closed set of keyboard renderings a message can carry.
// At most one applies per message.
type KeyboardKind string

const (
	KeyboardKindNone   KeyboardKind = "none"
	KeyboardKindInline KeyboardKind = "inline"
	KeyboardKindReply  KeyboardKind = "reply"
	KeyboardKindRemove KeyboardKind = "remove"
)

// InlineButton is one control on an inline keyboard. URL buttons open the
// link natively; all other buttons carry opaque callback data.
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

// ReplyButton is one control on a reply keyboard. Request flags mark the
// platform-native contact/location request buttons.
type ReplyButton struct {
	Text            string `json:"text"`
	RequestContact  bool   `json:"request_contact,omitempty"`
	RequestLocation bool   `json:"request_location,omitempty"`
}

// Keyboard is the single keyboard-rendering action attached to an outbound
// message.
type Keyboard struct {
	Kind    KeyboardKind     `json:"kind"`
	Inline  [][]InlineButton `json:"inline,omitempty"`
	Reply   [][]ReplyButton  `json:"reply,omitempty"`
	Resize  bool             `json:"resize,omitempty"`
	OneTime bool             `json:"one_time,omitempty"`
}

// NoKeyboard attaches nothing to the message.
func NoKeyboard() Keyboard {
	return Keyboard{Kind: KeyboardKindNone}
}

// RemoveKeyboard clears any reply keyboard left by a prior message.
func RemoveKeyboard() Keyboard {
	return Keyboard{Kind: KeyboardKindRemove}
}

// InlineKeyboard attaches the given inline button rows.
func InlineKeyboard(rows [][]InlineButton) Keyboard {
	return Keyboard{Kind: KeyboardKindInline, Inline: rows}
}

// ReplyKeyboard attaches the given reply button rows.
func ReplyKeyboard(rows [][]ReplyButton, resize, oneTime bool) Keyboard {
	return Keyboard{Kind: KeyboardKindReply, Reply: rows, Resize: resize, OneTime: oneTime}
}

// Platform is the outbound capability set the engine renders through. Every
// operation is one message turn; none of them block on user input.
type Platform interface {
	SendText(ctx context.Context, chatID int64, text string, format models.FormatMode, keyboard Keyboard) error
	SendMedia(ctx context.Context, chatID int64, kind MediaKind, sourceRef, caption string, format models.FormatMode, keyboard Keyboard) error
	SendLocation(ctx context.Context, chatID int64, latitude, longitude float64) error
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string, format models.FormatMode, keyboard Keyboard) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// AnswerCallback acknowledges an inline selection, optionally flashing a
	// short notice to the user.
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Package events defines the inbound platform events flowing between chat
// adapters and the flow engine.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the event bus topic inbound platform events are published on.
const Topic = "flowbot.inbound"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// CommandEvent is a slash-command invocation ("/start", "/help").
	CommandEvent EventType = "inbound.command"

	// CallbackEvent is an inline keyboard selection.
	CallbackEvent EventType = "inbound.callback"

	// TextEvent is a free-text message.
	TextEvent EventType = "inbound.text"

	// ContactEvent carries a platform-native contact attachment.
	ContactEvent EventType = "inbound.contact"

	// LocationEvent carries a platform-native location attachment.
	LocationEvent EventType = "inbound.location"
)

// UserMeta identifies the sending end user; the engine mirrors it into the
// user store on every turn.
type UserMeta struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Contact is a shared phone contact attachment.
type Contact struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
}

// Location is a shared geographic position attachment.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Inbound is one platform event addressed to the engine. Exactly the fields
// implied by Type are set: Text for commands and text messages, CallbackData
// for callbacks, Contact/Location for attachment events.
type Inbound struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	UserID    string   `json:"user_id"`
	ChatID    int64    `json:"chat_id"`
	MessageID int      `json:"message_id,omitempty"`
	User      UserMeta `json:"user,omitempty"`

	Text         string    `json:"text,omitempty"`
	CallbackData string    `json:"callback_data,omitempty"`
	CallbackID   string    `json:"callback_id,omitempty"`
	Contact      *Contact  `json:"contact,omitempty"`
	Location     *Location `json:"location,omitempty"`
}

func (e Inbound) GetType() EventType {
	return e.Type
}

// NewInbound creates an inbound event with a fresh id and timestamp.
func NewInbound(eventType EventType, userID string, chatID int64) Inbound {
	return Inbound{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		ChatID:    chatID,
	}
}

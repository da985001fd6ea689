package platform

import (
	"context"
	"sync"

	"github.com/flowbotio/flowbot/pkg/models"
)

// SentMessage is one outbound call captured by the Recorder.
type SentMessage struct {
	Op        string // "text", "media", "location", "edit", "delete", "callback"
	ChatID    int64
	MessageID int
	Text      string
	MediaKind MediaKind
	SourceRef string
	Format    models.FormatMode
	Keyboard  Keyboard
	Latitude  float64
	Longitude float64
}

// Recorder is an in-memory Platform used by engine and emitter tests. It
// records every outbound call in order and is safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	sent []SentMessage
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Sent returns a copy of the captured calls in send order.
func (r *Recorder) Sent() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]SentMessage(nil), r.sent...)
}

// Last returns the most recent captured call.
func (r *Recorder) Last() (SentMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sent) == 0 {
		return SentMessage{}, false
	}

	return r.sent[len(r.sent)-1], true
}

// Reset clears the captured calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = nil
}

func (r *Recorder) record(msg SentMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, msg)
}

func (r *Recorder) SendText(_ context.Context, chatID int64, text string, format models.FormatMode, keyboard Keyboard) error {
	r.record(SentMessage{Op: "text", ChatID: chatID, Text: text, Format: format, Keyboard: keyboard})

	return nil
}

func (r *Recorder) SendMedia(_ context.Context, chatID int64, kind MediaKind, sourceRef, caption string, format models.FormatMode, keyboard Keyboard) error {
	r.record(SentMessage{
		Op:        "media",
		ChatID:    chatID,
		MediaKind: kind,
		SourceRef: sourceRef,
		Text:      caption,
		Format:    format,
		Keyboard:  keyboard,
	})

	return nil
}

func (r *Recorder) SendLocation(_ context.Context, chatID int64, latitude, longitude float64) error {
	r.record(SentMessage{Op: "location", ChatID: chatID, Latitude: latitude, Longitude: longitude})

	return nil
}

func (r *Recorder) EditMessageText(_ context.Context, chatID int64, messageID int, text string, format models.FormatMode, keyboard Keyboard) error {
	r.record(SentMessage{Op: "edit", ChatID: chatID, MessageID: messageID, Text: text, Format: format, Keyboard: keyboard})

	return nil
}

func (r *Recorder) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	r.record(SentMessage{Op: "delete", ChatID: chatID, MessageID: messageID})

	return nil
}

func (r *Recorder) AnswerCallback(_ context.Context, callbackID, text string) error {
	r.record(SentMessage{Op: "callback", Text: text})

	return nil
}

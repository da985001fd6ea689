// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/flowbotio/flowbot/pkg/events"
	"github.com/flowbotio/flowbot/pkg/models"
)

// CreateTestNode creates a message node with default values that can be
// overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:   uuid.New().String(),
		Kind: models.NodeKindMessage,
		Message: &models.MessageConfig{
			Text:         "Test message",
			KeyboardType: models.KeyboardNone,
		},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithKind sets the node kind.
func WithKind(kind models.NodeKind) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = kind
	}
}

// WithText sets the node's message text.
func WithText(text string) func(*models.Node) {
	return func(n *models.Node) {
		if n.Message == nil {
			n.Message = &models.MessageConfig{}
		}

		n.Message.Text = text
	}
}

// WithCommand configures the node as a command node.
func WithCommand(command string, synonyms ...string) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = models.NodeKindCommand

		if n.Message == nil {
			n.Message = &models.MessageConfig{}
		}

		n.Message.Command = command
		n.Message.Synonyms = synonyms
	}
}

// WithKeyboard sets the keyboard type and buttons.
func WithKeyboard(keyboardType models.KeyboardType, buttons ...models.Button) func(*models.Node) {
	return func(n *models.Node) {
		if n.Message == nil {
			n.Message = &models.MessageConfig{}
		}

		n.Message.KeyboardType = keyboardType
		n.Message.Buttons = buttons
	}
}

// WithInput configures the node as a user-input node with the given spec.
func WithInput(spec *models.InputSpec) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = models.NodeKindUserInput
		n.Input = spec
	}
}

// GotoButton builds a goto navigation button.
func GotoButton(text, target string) models.Button {
	return models.Button{Text: text, Action: models.ActionGoto, Target: target}
}

// CreateTestGraph builds an indexed graph from the given nodes, prepending a
// start node wired to nothing.
func CreateTestGraph(nodes ...*models.Node) *models.Graph {
	start := &models.Node{
		ID:   "start",
		Kind: models.NodeKindStart,
		Message: &models.MessageConfig{
			Text: "Welcome!",
		},
	}

	graph := &models.Graph{
		ID:    uuid.New().String(),
		Name:  "test-graph",
		Nodes: append([]*models.Node{start}, nodes...),
	}

	graph.Index()

	return graph
}

// CommandInbound builds an inbound command event.
func CommandInbound(userID string, chatID int64, text string) events.Inbound {
	evt := events.NewInbound(events.CommandEvent, userID, chatID)
	evt.Text = text

	return evt
}

// TextInbound builds an inbound free-text event.
func TextInbound(userID string, chatID int64, text string) events.Inbound {
	evt := events.NewInbound(events.TextEvent, userID, chatID)
	evt.Text = text

	return evt
}

// CallbackInbound builds an inbound callback event.
func CallbackInbound(userID string, chatID int64, data string) events.Inbound {
	evt := events.NewInbound(events.CallbackEvent, userID, chatID)
	evt.CallbackData = data
	evt.CallbackID = "cb-" + uuid.New().String()[:8]
	evt.MessageID = 1

	return evt
}

// ContactInbound builds an inbound contact-attachment event.
func ContactInbound(userID string, chatID int64, phone string) events.Inbound {
	evt := events.NewInbound(events.ContactEvent, userID, chatID)
	evt.Contact = &events.Contact{PhoneNumber: phone}

	return evt
}

package flow

import (
	"github.com/flowbotio/flowbot/pkg/models"
	"github.com/flowbotio/flowbot/pkg/platform"
	"github.com/flowbotio/flowbot/pkg/session"
)

// selectedMark prefixes response options currently in the multi-select set.
const selectedMark = "✅ "

// KeyboardDecision is the single keyboard-rendering action for one message,
// plus the input spec to arm when the node collects input.
type KeyboardDecision struct {
	Keyboard platform.Keyboard
	Arm      *models.InputSpec
}

// ResolveKeyboard decides the one keyboard action for rendering a node. The
// priority order is strict and each rule is terminal, which is what prevents
// a navigation keyboard and a response keyboard from ever being attached to
// the same message:
//
//  1. buttons-type input spec: keyboard built solely from its response
//     options, the node's own buttons are ignored
//  2. text-type input spec: no keyboard, free-text capture armed
//  3. keyboardType inline: the node's buttons as an inline keyboard
//  4. keyboardType reply: the node's buttons as a reply keyboard
//  5. keyboardType none: a removal directive iff the previous rendered
//     message used a reply keyboard, otherwise nothing
func ResolveKeyboard(node *models.Node, sess *session.Session) KeyboardDecision {
	if spec := node.Input; spec != nil {
		if spec.CollectsButtons() {
			return KeyboardDecision{
				Keyboard: optionsKeyboard(node, nil),
				Arm:      spec,
			}
		}

		if spec.CollectsText() {
			return KeyboardDecision{
				Keyboard: platform.NoKeyboard(),
				Arm:      spec,
			}
		}
	}

	switch node.KeyboardType() {
	case models.KeyboardInline:
		return KeyboardDecision{Keyboard: inlineButtonsKeyboard(node)}
	case models.KeyboardReply:
		return KeyboardDecision{Keyboard: replyButtonsKeyboard(node)}
	default:
		if sess != nil && sess.LastKeyboardWasReply {
			return KeyboardDecision{Keyboard: platform.RemoveKeyboard()}
		}

		return KeyboardDecision{Keyboard: platform.NoKeyboard()}
	}
}

// OptionsKeyboard rebuilds the response-option keyboard with the current
// multi-select state, used when a toggle updates the rendered message.
func OptionsKeyboard(node *models.Node, pending *session.PendingInput) platform.Keyboard {
	return optionsKeyboard(node, pending)
}

func optionsKeyboard(node *models.Node, pending *session.PendingInput) platform.Keyboard {
	spec := node.Input

	if node.KeyboardType() == models.KeyboardReply {
		rows := make([][]platform.ReplyButton, 0, len(spec.Options))

		for _, opt := range spec.Options {
			rows = append(rows, []platform.ReplyButton{{Text: opt.Text}})
		}

		return platform.ReplyKeyboard(rows, node.Message.ResizeKeyboard, node.Message.OneTimeKeyboard)
	}

	rows := make([][]platform.InlineButton, 0, len(spec.Options))

	for i, opt := range spec.Options {
		text := opt.Text
		if pending != nil && pending.IsSelected(i) {
			text = selectedMark + text
		}

		button := platform.InlineButton{Text: text, CallbackData: OptionKey(node.ID, i)}

		// URL options open natively; selection still flows through the key.
		if opt.Action == models.ActionURL && opt.URL != "" {
			button = platform.InlineButton{Text: text, URL: opt.URL}
		}

		rows = append(rows, []platform.InlineButton{button})
	}

	return platform.InlineKeyboard(rows)
}

func inlineButtonsKeyboard(node *models.Node) platform.Keyboard {
	buttons := node.Buttons()
	rows := make([][]platform.InlineButton, 0, len(buttons))

	for i, btn := range buttons {
		inline := platform.InlineButton{Text: btn.Text, CallbackData: ButtonKey(node.ID, i)}

		if btn.Action == models.ActionURL {
			url := btn.URL
			if url == "" {
				url = btn.Target
			}

			inline = platform.InlineButton{Text: btn.Text, URL: url}
		}

		rows = append(rows, []platform.InlineButton{inline})
	}

	return platform.InlineKeyboard(rows)
}

func replyButtonsKeyboard(node *models.Node) platform.Keyboard {
	buttons := node.Buttons()
	rows := make([][]platform.ReplyButton, 0, len(buttons))

	for _, btn := range buttons {
		rows = append(rows, []platform.ReplyButton{{
			Text:            btn.Text,
			RequestContact:  btn.Action == models.ActionContact,
			RequestLocation: btn.Action == models.ActionLocation,
		}})
	}

	return platform.ReplyKeyboard(rows, node.Message.ResizeKeyboard, node.Message.OneTimeKeyboard)
}

package flow

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/flowbotio/flowbot/pkg/events"
	"github.com/flowbotio/flowbot/pkg/models"
	"github.com/flowbotio/flowbot/pkg/platform"
	"github.com/flowbotio/flowbot/pkg/session"
	"github.com/flowbotio/flowbot/pkg/userstore"
)

const (
	defaultRetryMessage   = "That doesn't look right, please try again."
	emptySelectionWarning = "Select at least one option before finishing."
	contactRequestPrompt  = "Please share your contact."
	locationRequestPrompt = "Please share your location."
	contactRequestButton  = "Share contact"
	locationRequestButton = "Share location"
)

// Engine interprets a validated graph against inbound platform events. Every
// behavioral decision is delegated to the keyboard resolver, the navigation
// resolver, and the input collection rules, so compiled output and direct
// interpretation stay behaviorally identical.
type Engine struct {
	graph    *models.Graph
	sessions session.Store
	platform platform.Platform
	users    userstore.Store
	nav      *Resolver
	logger   *slog.Logger

	persistWarn sync.Once
}

// NewEngine creates an engine over a validated graph.
func NewEngine(graph *models.Graph, sessions session.Store, chat platform.Platform, users userstore.Store, logger *slog.Logger) *Engine {
	if users == nil {
		users = userstore.NewNoopStore()
	}

	return &Engine{
		graph:    graph,
		sessions: sessions,
		platform: chat,
		users:    users,
		nav:      NewResolver(graph),
		logger:   logger,
	}
}

// Graph returns the graph the engine runs.
func (e *Engine) Graph() *models.Graph {
	return e.graph
}

// HandleEvent processes one inbound platform event. All session reads and
// mutations happen under the store's per-user serialization, so overlapping
// deliveries for the same user cannot race the pending input or variables.
// Events no handler recognizes are ignored; nothing a single user sends can
// terminate the process.
func (e *Engine) HandleEvent(ctx context.Context, evt events.Inbound) error {
	e.touchUser(ctx, evt)

	return e.sessions.With(ctx, evt.UserID, func(sess *session.Session) error {
		switch evt.Type {
		case events.CommandEvent:
			return e.handleCommand(ctx, sess, evt)
		case events.CallbackEvent:
			return e.handleCallback(ctx, sess, evt)
		case events.TextEvent:
			return e.handleText(ctx, sess, evt)
		case events.ContactEvent:
			return e.handleContact(ctx, sess, evt)
		case events.LocationEvent:
			e.logger.DebugContext(ctx, "Ignoring location event with no armed handler", "user_id", evt.UserID)

			return nil
		default:
			e.logger.DebugContext(ctx, "Ignoring unknown inbound event", "event_type", evt.Type, "user_id", evt.UserID)

			return nil
		}
	})
}

func (e *Engine) handleCommand(ctx context.Context, sess *session.Session, evt events.Inbound) error {
	name := CommandName(evt.Text)

	node, ok := e.graph.CommandNode(name)
	if !ok {
		e.logger.DebugContext(ctx, "Ignoring unregistered command", "command", name, "user_id", evt.UserID)

		return nil
	}

	return e.renderNode(ctx, sess, evt, node)
}

func (e *Engine) handleText(ctx context.Context, sess *session.Session, evt events.Inbound) error {
	if sess.Pending != nil {
		spec := sess.Pending.Spec

		if spec.CollectsText() {
			return e.collectText(ctx, sess, evt)
		}

		// Reply-keyboard response options answer as plain text.
		if spec.CollectsButtons() {
			if idx, ok := MatchOptionText(spec, evt.Text); ok {
				return e.collectSelection(ctx, sess, evt, idx)
			}
		}

		// Not the armed spec's expected shape; fall through to ordinary
		// dispatch.
	}

	// Reply-keyboard navigation buttons also arrive as plain text.
	if node, ok := e.graph.NodeByID(sess.LastNodeID); ok {
		for _, btn := range node.Buttons() {
			if btn.Text == strings.TrimSpace(evt.Text) {
				return e.resolveAndApply(ctx, sess, evt, btn.Action, btn.Target, btn.URL)
			}
		}
	}

	// Free-text command synonyms dispatch through the command table.
	if node, ok := e.graph.CommandNode(evt.Text); ok {
		return e.renderNode(ctx, sess, evt, node)
	}

	e.logger.DebugContext(ctx, "Ignoring unmatched text message", "user_id", evt.UserID)

	return nil
}

func (e *Engine) handleCallback(ctx context.Context, sess *session.Session, evt events.Inbound) error {
	key, err := ParseCallbackKey(evt.CallbackData)
	if err != nil {
		e.logger.DebugContext(ctx, "Ignoring malformed callback", "error", err, "user_id", evt.UserID)

		return e.answerCallback(ctx, evt, "")
	}

	if key.IsOption() {
		pending := sess.Pending

		// Stale taps: nothing armed, armed for another node, or an index the
		// armed spec does not have. Acknowledge and move on.
		if pending == nil || !pending.Spec.CollectsButtons() ||
			pending.NodeID != key.NodeID || key.Index >= len(pending.Spec.Options) {
			e.logger.DebugContext(ctx, "Ignoring stale option callback", "node_id", key.NodeID, "user_id", evt.UserID)

			return e.answerCallback(ctx, evt, "")
		}

		return e.collectSelection(ctx, sess, evt, key.Index)
	}

	node, ok := e.graph.NodeByID(key.NodeID)
	if !ok || key.Index >= len(node.Buttons()) {
		e.logger.DebugContext(ctx, "Ignoring callback for unknown button", "node_id", key.NodeID, "user_id", evt.UserID)

		return e.answerCallback(ctx, evt, "")
	}

	if err := e.answerCallback(ctx, evt, ""); err != nil {
		return err
	}

	btn := node.Buttons()[key.Index]

	return e.resolveAndApply(ctx, sess, evt, btn.Action, btn.Target, btn.URL)
}

func (e *Engine) handleContact(ctx context.Context, sess *session.Session, evt events.Inbound) error {
	// A shared contact satisfies an armed phone input.
	if sess.Pending != nil && sess.Pending.Spec.CollectsText() &&
		sess.Pending.Spec.InputType == models.InputTypePhone && evt.Contact != nil {
		return e.completeInput(ctx, sess, evt, evt.Contact.PhoneNumber, evt.Contact.PhoneNumber, nil)
	}

	e.logger.DebugContext(ctx, "Ignoring contact event with no armed handler", "user_id", evt.UserID)

	return nil
}

// collectText runs the free-text validation path of the armed input spec.
func (e *Engine) collectText(ctx context.Context, sess *session.Session, evt events.Inbound) error {
	spec := sess.Pending.Spec
	text := strings.TrimSpace(evt.Text)

	if spec.AllowSkip && text == spec.EffectiveSkipToken() {
		return e.completeInput(ctx, sess, evt, nil, "", nil)
	}

	if verr := ValidateText(spec, text); verr != nil {
		e.logger.DebugContext(ctx, "Input rejected, session stays armed",
			"reason", verr.Reason, "node_id", sess.Pending.NodeID, "user_id", evt.UserID)

		retry := spec.RetryMessage
		if retry == "" {
			retry = defaultRetryMessage
		}

		return e.platform.SendText(ctx, evt.ChatID, retry, models.FormatNone, platform.NoKeyboard())
	}

	return e.completeInput(ctx, sess, evt, TextValue(spec, text), text, nil)
}

// collectSelection handles one response-option selection by stable index.
func (e *Engine) collectSelection(ctx context.Context, sess *session.Session, evt events.Inbound, index int) error {
	pending := sess.Pending
	spec := pending.Spec
	opt := spec.Options[index]

	if !spec.AllowMultiple {
		if err := e.answerCallback(ctx, evt, ""); err != nil {
			return err
		}

		return e.completeInput(ctx, sess, evt, opt.StoredValue(), opt.Text, &opt)
	}

	if opt.Done {
		if len(pending.Selected) == 0 {
			// Non-blocking warning; the engine stays armed.
			if evt.CallbackID != "" {
				return e.answerCallback(ctx, evt, emptySelectionWarning)
			}

			return e.platform.SendText(ctx, evt.ChatID, emptySelectionWarning, models.FormatNone, platform.NoKeyboard())
		}

		if err := e.answerCallback(ctx, evt, ""); err != nil {
			return err
		}

		values := SelectedValues(spec, pending.Selected)

		return e.completeInput(ctx, sess, evt, values, formatValue(values), &opt)
	}

	pending.Toggle(index)

	// Reflect the new selection state on the rendered keyboard. Only callback
	// events carry the id of the bot's keyboard message; a plain-text toggle
	// would point EditMessageText at the user's own message.
	if evt.CallbackID != "" && evt.MessageID != 0 {
		if node, ok := e.graph.NodeByID(pending.NodeID); ok {
			keyboard := OptionsKeyboard(node, pending)

			if keyboard.Kind == platform.KeyboardKindInline {
				text := RenderText(node.Text(), sess.Vars)
				if err := e.platform.EditMessageText(ctx, evt.ChatID, evt.MessageID, text, node.FormatMode(), keyboard); err != nil {
					e.logger.DebugContext(ctx, "Failed to refresh selection keyboard", "error", err)
				}
			}
		}
	}

	return e.answerCallback(ctx, evt, "")
}

// completeInput finishes the armed input: store the value, mirror it to the
// user store, send the success message, then navigate. A nil value means the
// input was skipped and nothing is stored.
func (e *Engine) completeInput(ctx context.Context, sess *session.Session, evt events.Inbound, value any, display string, opt *models.ResponseOption) error {
	spec := sess.Pending.Spec
	sess.ClearPending()

	if value != nil && spec.VariableName != "" {
		sess.SetVar(spec.VariableName, value)

		if spec.SaveToDatabase {
			e.saveUserField(ctx, evt.UserID, spec.VariableName, value)
		}
	}

	if spec.SuccessMessage != "" {
		message := RenderText(spec.SuccessMessage, sess.Vars)
		if err := e.platform.SendText(ctx, evt.ChatID, message, models.FormatNone, platform.NoKeyboard()); err != nil {
			return err
		}
	}

	// Per-option navigation wins over the spec-level next node; options
	// resolve independently just like node buttons.
	if opt != nil && opt.Action != "" && !opt.Done {
		return e.resolveAndApply(ctx, sess, evt, opt.Action, opt.Target, opt.URL)
	}

	if spec.NextNodeID != "" {
		return e.applyEffect(ctx, sess, evt, RenderNode{NodeID: spec.NextNodeID})
	}

	return nil
}

func (e *Engine) resolveAndApply(ctx context.Context, sess *session.Session, evt events.Inbound, action models.ButtonAction, target, url string) error {
	effect, err := e.nav.Resolve(action, target, url)
	if err != nil {
		// Unreachable after validation; ends the turn without a crash.
		e.logger.ErrorContext(ctx, "Navigation failed", "error", err, "action", action, "target", target)

		return nil
	}

	return e.applyEffect(ctx, sess, evt, effect)
}

func (e *Engine) applyEffect(ctx context.Context, sess *session.Session, evt events.Inbound, effect Effect) error {
	switch eff := effect.(type) {
	case RenderNode:
		node, ok := e.graph.NodeByID(eff.NodeID)
		if !ok {
			e.logger.ErrorContext(ctx, "Navigation target missing at runtime", "node_id", eff.NodeID)

			return nil
		}

		return e.renderNode(ctx, sess, evt, node)
	case InvokeCommand:
		node, ok := e.graph.CommandNode(eff.Name)
		if !ok {
			e.logger.ErrorContext(ctx, "Command target missing at runtime", "command", eff.Name)

			return nil
		}

		return e.renderNode(ctx, sess, evt, node)
	case OfferLink:
		return e.platform.SendText(ctx, evt.ChatID, eff.URL, models.FormatNone, platform.NoKeyboard())
	case RequestContact:
		keyboard := platform.ReplyKeyboard([][]platform.ReplyButton{{
			{Text: contactRequestButton, RequestContact: true},
		}}, true, true)

		sess.LastKeyboardWasReply = true

		return e.platform.SendText(ctx, evt.ChatID, contactRequestPrompt, models.FormatNone, keyboard)
	case RequestLocation:
		keyboard := platform.ReplyKeyboard([][]platform.ReplyButton{{
			{Text: locationRequestButton, RequestLocation: true},
		}}, true, true)

		sess.LastKeyboardWasReply = true

		return e.platform.SendText(ctx, evt.ChatID, locationRequestPrompt, models.FormatNone, keyboard)
	default:
		return nil
	}
}

// renderNode produces the node's outbound message, applies the keyboard
// decision, and arms input collection when the node asks for it.
func (e *Engine) renderNode(ctx context.Context, sess *session.Session, evt events.Inbound, node *models.Node) error {
	text := RenderText(node.Text(), sess.Vars)
	decision := ResolveKeyboard(node, sess)

	var err error

	switch {
	case node.Kind.IsMedia():
		kind, _ := platform.MediaKindFor(node.Kind)
		err = e.platform.SendMedia(ctx, evt.ChatID, kind, node.Media.SourceRef, text, node.FormatMode(), decision.Keyboard)
	case node.Kind == models.NodeKindLocation:
		err = e.platform.SendLocation(ctx, evt.ChatID, node.Location.Latitude, node.Location.Longitude)
	default:
		err = e.platform.SendText(ctx, evt.ChatID, text, node.FormatMode(), decision.Keyboard)
	}

	if err != nil {
		return err
	}

	sess.LastNodeID = node.ID
	sess.LastKeyboardWasReply = decision.Keyboard.Kind == platform.KeyboardKindReply

	if decision.Arm != nil {
		// Arming silently replaces any prior pending input.
		sess.Arm(node.ID, decision.Arm)
	}

	return nil
}

func (e *Engine) answerCallback(ctx context.Context, evt events.Inbound, text string) error {
	if evt.CallbackID == "" {
		return nil
	}

	return e.platform.AnswerCallback(ctx, evt.CallbackID, text)
}

// touchUser mirrors the sender's identity into the user store. Failures
// degrade to in-memory state and are logged once per process.
func (e *Engine) touchUser(ctx context.Context, evt events.Inbound) {
	err := e.users.UpsertUser(ctx, evt.UserID, evt.User.Username, evt.User.FirstName, evt.User.LastName)
	if err != nil {
		e.persistWarn.Do(func() {
			e.logger.WarnContext(ctx, "User store unavailable, continuing with in-memory sessions only", "error", err)
		})
	}
}

// saveUserField mirrors a collected variable to the user store,
// fire-and-forget.
func (e *Engine) saveUserField(ctx context.Context, userID, key string, value any) {
	if err := e.users.UpdateUserField(ctx, userID, key, value); err != nil {
		e.persistWarn.Do(func() {
			e.logger.WarnContext(ctx, "User store unavailable, collected value kept in session only", "error", err)
		})
	}
}

// CommandName extracts the bare command from a slash-command message,
// dropping arguments and any @botname suffix.
func CommandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}

	return name
}

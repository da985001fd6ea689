package graph

import (
	"fmt"

	"github.com/flowbotio/flowbot/pkg/models"
)

// Validate checks a graph for referential integrity and per-kind required
// fields. It is pure: it never mutates the graph and reports every finding
// instead of stopping at the first. Running it twice on the same graph yields
// identical results.
func Validate(g *models.Graph) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]bool, len(g.Nodes))

	for _, node := range g.Nodes {
		if seen[node.ID] {
			errs = append(errs, ValidationError{
				Kind:    ErrDuplicateNodeID,
				NodeID:  node.ID,
				Message: "node id is used more than once",
			})
		}

		seen[node.ID] = true

		errs = append(errs, validateRequiredFields(g, node)...)
		errs = append(errs, validateKeyboard(g, node)...)

		if node.Input != nil {
			errs = append(errs, validateInputSpec(g, node)...)
		}
	}

	errs = append(errs, validateConnections(g)...)
	errs = append(errs, validateReachability(g)...)

	return errs
}

func validateRequiredFields(g *models.Graph, node *models.Node) []ValidationError {
	var errs []ValidationError

	missing := func(field, message string) {
		errs = append(errs, ValidationError{
			Kind:    ErrMissingRequiredField,
			NodeID:  node.ID,
			Field:   field,
			Message: message,
		})
	}

	switch node.Kind {
	case models.NodeKindStart, models.NodeKindMessage:
		if node.Text() == "" {
			missing("text", "node has no display text")
		}
	case models.NodeKindCommand:
		if node.Text() == "" {
			missing("text", "node has no display text")
		}

		if node.Message == nil || node.Message.Command == "" {
			missing("command", "command node has no command string")
		}
	case models.NodeKindUserInput:
		if node.Text() == "" {
			missing("text", "user-input node has no prompt text")
		}

		if node.Input == nil {
			missing("input", "user-input node has no input spec")
		} else if node.Input.VariableName == "" {
			missing("input.variableName", "input spec has no variable name")
		}
	case models.NodeKindPhoto, models.NodeKindVideo, models.NodeKindAudio, models.NodeKindDocument:
		if node.Media == nil || node.Media.SourceRef == "" {
			missing("sourceRef", "media node has no source reference")
		}
	case models.NodeKindLocation:
		if node.Location == nil {
			missing("location", "location node has no coordinates")
		}
	}

	return errs
}

func validateKeyboard(g *models.Graph, node *models.Node) []ValidationError {
	var errs []ValidationError

	buttons := node.Buttons()
	keyboard := node.KeyboardType()

	switch keyboard {
	case models.KeyboardNone:
		if len(buttons) > 0 {
			errs = append(errs, ValidationError{
				Kind:    ErrInvalidKeyboardConfig,
				NodeID:  node.ID,
				Field:   "keyboardType",
				Message: "keyboardType is none but the node has buttons",
			})
		}
	case models.KeyboardInline, models.KeyboardReply:
		// Response options supply the rendered keyboard when a buttons-type
		// input spec is present, so an empty button list is accepted then.
		hasOptionKeyboard := node.Input != nil && node.Input.CollectsButtons()
		if len(buttons) == 0 && !hasOptionKeyboard {
			errs = append(errs, ValidationError{
				Kind:    ErrInvalidKeyboardConfig,
				NodeID:  node.ID,
				Field:   "keyboardType",
				Message: fmt.Sprintf("keyboardType is %s but the node has no buttons", keyboard),
			})
		}
	}

	for i, btn := range buttons {
		errs = append(errs, validateAction(g, node, fmt.Sprintf("buttons[%d]", i), btn.Action, btn.Target, btn.URL)...)

		if keyboard == models.KeyboardInline && btn.Action.RequestsAttachment() {
			errs = append(errs, ValidationError{
				Kind:    ErrInvalidKeyboardButtonMix,
				NodeID:  node.ID,
				Field:   fmt.Sprintf("buttons[%d]", i),
				Message: fmt.Sprintf("%s request buttons are only valid on reply keyboards", btn.Action),
			})
		}
	}

	return errs
}

func validateInputSpec(g *models.Graph, node *models.Node) []ValidationError {
	var errs []ValidationError

	spec := node.Input

	switch spec.ResponseType {
	case models.ResponseTypeText:
		if spec.MinLength < 0 || spec.MaxLength < 0 {
			errs = append(errs, ValidationError{
				Kind:    ErrInvalidLengthBounds,
				NodeID:  node.ID,
				Field:   "input",
				Message: "length bounds must not be negative",
			})
		}

		if spec.MaxLength > 0 && spec.MinLength > spec.MaxLength {
			errs = append(errs, ValidationError{
				Kind:    ErrInvalidLengthBounds,
				NodeID:  node.ID,
				Field:   "input",
				Message: fmt.Sprintf("minLength %d exceeds maxLength %d", spec.MinLength, spec.MaxLength),
			})
		}
	case models.ResponseTypeButtons:
		regular := 0

		for i, opt := range spec.Options {
			if !opt.Done {
				regular++
			}

			if opt.Action != "" {
				errs = append(errs, validateAction(g, node, fmt.Sprintf("input.options[%d]", i), opt.Action, opt.Target, opt.URL)...)
			}
		}

		if regular == 0 {
			errs = append(errs, ValidationError{
				Kind:    ErrMissingRequiredField,
				NodeID:  node.ID,
				Field:   "input.options",
				Message: "buttons input spec has no selectable options",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Kind:    ErrMissingRequiredField,
			NodeID:  node.ID,
			Field:   "input.responseType",
			Message: fmt.Sprintf("unknown response type %q", spec.ResponseType),
		})
	}

	if spec.NextNodeID != "" {
		if _, ok := g.NodeByID(spec.NextNodeID); !ok {
			errs = append(errs, ValidationError{
				Kind:    ErrDanglingTarget,
				NodeID:  node.ID,
				Field:   "input.nextNodeId",
				Message: fmt.Sprintf("next node %q does not exist", spec.NextNodeID),
			})
		}
	}

	return errs
}

// validateAction checks one button or response option action against the
// graph. Buttons resolve independently, so every one is checked on its own.
func validateAction(g *models.Graph, node *models.Node, field string, action models.ButtonAction, target, url string) []ValidationError {
	var errs []ValidationError

	if !action.IsValid() {
		return []ValidationError{{
			Kind:    ErrMissingRequiredField,
			NodeID:  node.ID,
			Field:   field,
			Message: fmt.Sprintf("unknown action %q", action),
		}}
	}

	switch action {
	case models.ActionGoto:
		if target == "" {
			errs = append(errs, ValidationError{
				Kind:    ErrMissingRequiredField,
				NodeID:  node.ID,
				Field:   field,
				Message: "goto action has no target node",
			})
		} else if _, ok := g.NodeByID(target); !ok {
			errs = append(errs, ValidationError{
				Kind:    ErrDanglingTarget,
				NodeID:  node.ID,
				Field:   field,
				Message: fmt.Sprintf("target node %q does not exist", target),
			})
		}
	case models.ActionCommand:
		if target == "" {
			errs = append(errs, ValidationError{
				Kind:    ErrMissingRequiredField,
				NodeID:  node.ID,
				Field:   field,
				Message: "command action has no command string",
			})
		} else if !g.HasCommand(target) {
			errs = append(errs, ValidationError{
				Kind:    ErrDanglingTarget,
				NodeID:  node.ID,
				Field:   field,
				Message: fmt.Sprintf("command %q is not registered by any node", target),
			})
		}
	case models.ActionURL:
		if url == "" && target == "" {
			errs = append(errs, ValidationError{
				Kind:    ErrMissingRequiredField,
				NodeID:  node.ID,
				Field:   field,
				Message: "url action has no url",
			})
		}
	}

	return errs
}

func validateConnections(g *models.Graph) []ValidationError {
	var errs []ValidationError

	for i, conn := range g.Connections {
		field := fmt.Sprintf("connections[%d]", i)

		source, sourceOK := g.NodeByID(conn.Source)
		if !sourceOK {
			errs = append(errs, ValidationError{
				Kind:    ErrDanglingTarget,
				Field:   field,
				Message: fmt.Sprintf("connection source %q does not exist", conn.Source),
			})
		}

		if _, ok := g.NodeByID(conn.Target); !ok {
			errs = append(errs, ValidationError{
				Kind:    ErrDanglingTarget,
				Field:   field,
				Message: fmt.Sprintf("connection target %q does not exist", conn.Target),
			})
		}

		if !sourceOK {
			continue
		}

		// Connections are derived from buttons; a connection no button or
		// option produces means the document drifted from the keyboard.
		if !connectionMirrored(source, conn.Target) {
			errs = append(errs, ValidationError{
				Kind:    ErrInconsistentConnection,
				NodeID:  conn.Source,
				Field:   field,
				Message: fmt.Sprintf("no button or option on %q navigates to %q", conn.Source, conn.Target),
				Warning: true,
			})
		}
	}

	return errs
}

func connectionMirrored(source *models.Node, target string) bool {
	for _, btn := range source.Buttons() {
		if btn.Action == models.ActionGoto && btn.Target == target {
			return true
		}
	}

	if source.Input != nil {
		if source.Input.NextNodeID == target {
			return true
		}

		for _, opt := range source.Input.Options {
			if opt.Action == models.ActionGoto && opt.Target == target {
				return true
			}
		}
	}

	return false
}

func validateReachability(g *models.Graph) []ValidationError {
	var errs []ValidationError

	inbound := g.InboundDegree()

	for _, node := range g.Nodes {
		if node.Kind == models.NodeKindStart || node.Kind == models.NodeKindCommand {
			continue
		}

		if inbound[node.ID] == 0 {
			errs = append(errs, ValidationError{
				Kind:    ErrUnreachableNode,
				NodeID:  node.ID,
				Message: "node has no inbound edge and is not a start or command node",
				Warning: true,
			})
		}
	}

	return errs
}

// Package graph loads and validates flow documents produced by the builder.
package graph

import "fmt"

// ErrorKind classifies a validation finding. Each check reports its own kind
// so callers can react per class instead of matching message text.
type ErrorKind string

const (
	// ErrInvalidDocument indicates the document failed schema or decode checks.
	ErrInvalidDocument ErrorKind = "invalid_document"

	// ErrDuplicateNodeID indicates two nodes share an id.
	ErrDuplicateNodeID ErrorKind = "duplicate_node_id"

	// ErrDanglingTarget indicates a button, option, connection or next-node
	// reference points at a node or command that does not exist.
	ErrDanglingTarget ErrorKind = "dangling_target"

	// ErrMissingRequiredField indicates a node lacks a field its kind requires.
	ErrMissingRequiredField ErrorKind = "missing_required_field"

	// ErrInvalidKeyboardButtonMix indicates a contact/location request action
	// placed on an inline keyboard button.
	ErrInvalidKeyboardButtonMix ErrorKind = "invalid_keyboard_button_mix"

	// ErrInvalidKeyboardConfig indicates a keyboard type inconsistent with the
	// node's button list.
	ErrInvalidKeyboardConfig ErrorKind = "invalid_keyboard_config"

	// ErrInvalidLengthBounds indicates a text input spec with nonsensical
	// min/max length bounds.
	ErrInvalidLengthBounds ErrorKind = "invalid_length_bounds"

	// ErrInconsistentConnection warns that a connection is not mirrored by any
	// button or option target.
	ErrInconsistentConnection ErrorKind = "inconsistent_connection"

	// ErrUnreachableNode warns that a non-start node has no inbound edge and
	// no command binding.
	ErrUnreachableNode ErrorKind = "unreachable_node"
)

// ValidationError is one finding produced by Load or Validate. Warnings do
// not prevent compilation; everything else does.
type ValidationError struct {
	Kind    ErrorKind `json:"kind"`
	NodeID  string    `json:"nodeId,omitempty"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
	Warning bool      `json:"warning,omitempty"`
}

func (e ValidationError) Error() string {
	severity := "error"
	if e.Warning {
		severity = "warning"
	}

	if e.NodeID != "" {
		return fmt.Sprintf("%s [%s] node %s: %s", severity, e.Kind, e.NodeID, e.Message)
	}

	return fmt.Sprintf("%s [%s]: %s", severity, e.Kind, e.Message)
}

// HasFatal reports whether any finding is a hard error.
func HasFatal(errs []ValidationError) bool {
	for _, err := range errs {
		if !err.Warning {
			return true
		}
	}

	return false
}

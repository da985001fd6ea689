package models

// ButtonAction represents the navigation action a button or response option
// triggers when selected.
type ButtonAction string

const (
	ActionGoto     ButtonAction = "goto"     // Jump to another node
	ActionCommand  ButtonAction = "command"  // Invoke a named command
	ActionURL      ButtonAction = "url"      // Surface a link
	ActionContact  ButtonAction = "contact"  // Request the user's contact (reply keyboards only)
	ActionLocation ButtonAction = "location" // Request the user's location (reply keyboards only)
)

// IsValid reports whether the action is one of the known navigation actions.
func (a ButtonAction) IsValid() bool {
	switch a {
	case ActionGoto, ActionCommand, ActionURL, ActionContact, ActionLocation:
		return true
	default:
		return false
	}
}

// RequestsAttachment reports whether the action asks the platform for a
// native attachment rather than navigating.
func (a ButtonAction) RequestsAttachment() bool {
	return a == ActionContact || a == ActionLocation
}

// Button is one selectable control on a node keyboard. Target carries the
// node id for goto and the command string for command; URL carries the link
// for url actions. Request-type actions carry neither.
type Button struct {
	ID     string       `json:"id"`
	Text   string       `json:"text"   validate:"required"`
	Action ButtonAction `json:"action" validate:"required"`
	Target string       `json:"target,omitempty"`
	URL    string       `json:"url,omitempty"`
}

// ResponseOption is one selectable choice inside a user-input node configured
// for button-based answers. Done marks the reserved control that completes a
// multi-select.
type ResponseOption struct {
	Text   string       `json:"text"  validate:"required"`
	Value  string       `json:"value"`
	Action ButtonAction `json:"action,omitempty"`
	Target string       `json:"target,omitempty"`
	URL    string       `json:"url,omitempty"`
	Done   bool         `json:"done,omitempty"`
}

// StoredValue returns the value persisted when the option is selected,
// falling back to the display text when no explicit value is set.
func (o ResponseOption) StoredValue() string {
	if o.Value != "" {
		return o.Value
	}

	return o.Text
}

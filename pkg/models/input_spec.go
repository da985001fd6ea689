package models

// ResponseType selects how a user-input node collects its answer.
type ResponseType string

const (
	ResponseTypeText    ResponseType = "text"    // Free-text answer captured from the next message
	ResponseTypeButtons ResponseType = "buttons" // Answer chosen from rendered response options
)

// InputType narrows a free-text answer to a validated shape.
type InputType string

const (
	InputTypeText   InputType = "text"
	InputTypeNumber InputType = "number"
	InputTypeEmail  InputType = "email"
	InputTypePhone  InputType = "phone"
)

// DefaultSkipToken is the message text that skips an optional input when no
// explicit token is configured.
const DefaultSkipToken = "/skip"

// InputSpec configures the input collection engine for a user-input node.
// Text fields apply when ResponseType is text; Options and AllowMultiple
// apply when it is buttons. Persistence and navigation fields apply to both.
type InputSpec struct {
	ResponseType ResponseType `json:"responseType" validate:"required"`

	InputType    InputType `json:"inputType,omitempty"`
	MinLength    int       `json:"minLength,omitempty"`
	MaxLength    int       `json:"maxLength,omitempty"`
	Required     bool      `json:"required,omitempty"`
	AllowSkip    bool      `json:"allowSkip,omitempty"`
	SkipToken    string    `json:"skipToken,omitempty"`
	RetryMessage string    `json:"retryMessage,omitempty"`

	Options       []ResponseOption `json:"options,omitempty"`
	AllowMultiple bool             `json:"allowMultipleSelection,omitempty"`

	SuccessMessage string `json:"successMessage,omitempty"`
	SaveToDatabase bool   `json:"saveToDatabase,omitempty"`
	VariableName   string `json:"variableName,omitempty"`
	NextNodeID     string `json:"nextNodeId,omitempty"`

	// InputTimeout is recorded from the document but not enforced by the
	// engine; waiting is stored state, not a suspended call.
	InputTimeout int `json:"inputTimeout,omitempty"`
}

// EffectiveSkipToken returns the configured skip token or the default.
func (s *InputSpec) EffectiveSkipToken() string {
	if s.SkipToken != "" {
		return s.SkipToken
	}

	return DefaultSkipToken
}

// CollectsText reports whether the spec captures a free-text answer.
func (s *InputSpec) CollectsText() bool {
	return s.ResponseType == ResponseTypeText
}

// CollectsButtons reports whether the spec renders response options.
func (s *InputSpec) CollectsButtons() bool {
	return s.ResponseType == ResponseTypeButtons
}

// DoneOption returns the index of the reserved done control, or -1.
func (s *InputSpec) DoneOption() int {
	for i, opt := range s.Options {
		if opt.Done {
			return i
		}
	}

	return -1
}

// Package models defines the core domain models for flow-graph bot compilation
package models

// NodeKind represents the kind of a dialogue node.
type NodeKind string

const (
	NodeKindStart     NodeKind = "start"      // Entry node, bound to the platform start command
	NodeKindCommand   NodeKind = "command"    // Bound to a named command plus synonyms
	NodeKindMessage   NodeKind = "message"    // Plain outbound message
	NodeKindUserInput NodeKind = "user-input" // Arms the input collection engine
	NodeKindPhoto     NodeKind = "photo"
	NodeKindVideo     NodeKind = "video"
	NodeKindAudio     NodeKind = "audio"
	NodeKindDocument  NodeKind = "document"
	NodeKindLocation  NodeKind = "location"
)

// AllNodeKinds lists every kind the loader accepts, in document order.
var AllNodeKinds = []NodeKind{
	NodeKindStart,
	NodeKindCommand,
	NodeKindMessage,
	NodeKindUserInput,
	NodeKindPhoto,
	NodeKindVideo,
	NodeKindAudio,
	NodeKindDocument,
	NodeKindLocation,
}

// IsValid reports whether the kind is one of the known node kinds.
func (k NodeKind) IsValid() bool {
	for _, known := range AllNodeKinds {
		if k == known {
			return true
		}
	}

	return false
}

// IsMedia reports whether the kind carries a media payload.
func (k NodeKind) IsMedia() bool {
	switch k {
	case NodeKindPhoto, NodeKindVideo, NodeKindAudio, NodeKindDocument:
		return true
	default:
		return false
	}
}

// FormatMode is the text formatting applied to a node's outbound message.
type FormatMode string

const (
	FormatNone     FormatMode = "none"
	FormatMarkdown FormatMode = "markdown"
	FormatHTML     FormatMode = "html"
)

// KeyboardType selects which platform keyboard primitive a node renders.
type KeyboardType string

const (
	KeyboardNone   KeyboardType = "none"
	KeyboardInline KeyboardType = "inline"
	KeyboardReply  KeyboardType = "reply"
)

// Position is the editor layout position of a node. The runtime ignores it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one screen/step of the dialogue. Exactly one of the kind-specific
// config variants is populated, matching Kind; Message is shared by every
// text-bearing kind (start, command, message, user-input prompt).
type Node struct {
	ID       string   `json:"id"   validate:"required"`
	Kind     NodeKind `json:"kind" validate:"required"`
	Position Position `json:"position"`

	Message  *MessageConfig  `json:"message,omitempty"`
	Media    *MediaConfig    `json:"media,omitempty"`
	Location *LocationConfig `json:"location,omitempty"`
	Input    *InputSpec      `json:"input,omitempty"`
}

// MessageConfig holds the display and keyboard configuration shared by
// text-bearing node kinds.
type MessageConfig struct {
	Text            string       `json:"text"`
	FormatMode      FormatMode   `json:"formatMode"`
	Command         string       `json:"command,omitempty"`
	Synonyms        []string     `json:"synonyms,omitempty"`
	KeyboardType    KeyboardType `json:"keyboardType"`
	ResizeKeyboard  bool         `json:"resizeKeyboard"`
	OneTimeKeyboard bool         `json:"oneTimeKeyboard"`
	Buttons         []Button     `json:"buttons,omitempty"`
}

// MediaConfig holds the payload of photo/video/audio/document nodes.
// SourceRef may be a remote URL or a locally addressed file; resolving it is
// the platform adapter's concern.
type MediaConfig struct {
	SourceRef string `json:"sourceRef" validate:"required"`
	Caption   string `json:"caption"`
}

// LocationConfig holds the coordinates sent by a location node.
type LocationConfig struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Text returns the node's display text, or its media caption.
func (n *Node) Text() string {
	if n.Message != nil {
		return n.Message.Text
	}

	if n.Media != nil {
		return n.Media.Caption
	}

	return ""
}

// KeyboardType returns the configured keyboard type, defaulting to none.
func (n *Node) KeyboardType() KeyboardType {
	if n.Message == nil || n.Message.KeyboardType == "" {
		return KeyboardNone
	}

	return n.Message.KeyboardType
}

// Buttons returns the node's own button list (not response options).
func (n *Node) Buttons() []Button {
	if n.Message == nil {
		return nil
	}

	return n.Message.Buttons
}

// FormatMode returns the configured format mode, defaulting to none.
func (n *Node) FormatMode() FormatMode {
	if n.Message == nil || n.Message.FormatMode == "" {
		return FormatNone
	}

	return n.Message.FormatMode
}

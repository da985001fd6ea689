package flow

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback data carries an opaque key identifying the pressed control, never
// free-form strings matched ad hoc per handler. Two key kinds exist: node
// buttons and input-spec response options.
const (
	keyKindButton = "btn"
	keyKindOption = "opt"
)

// CallbackKey is a decoded callback data key.
type CallbackKey struct {
	Kind   string // keyKindButton or keyKindOption
	NodeID string
	Index  int // stable index into the node's buttons or the spec's options
}

// IsOption reports whether the key addresses an input-spec response option.
func (k CallbackKey) IsOption() bool {
	return k.Kind == keyKindOption
}

// ButtonKey encodes the callback data for a node button.
func ButtonKey(nodeID string, index int) string {
	return fmt.Sprintf("%s:%s:%d", keyKindButton, nodeID, index)
}

// OptionKey encodes the callback data for a response option.
func OptionKey(nodeID string, index int) string {
	return fmt.Sprintf("%s:%s:%d", keyKindOption, nodeID, index)
}

// ParseCallbackKey decodes callback data. Node ids may themselves contain
// separators, so the index is taken from the last segment.
func ParseCallbackKey(data string) (CallbackKey, error) {
	first := strings.Index(data, ":")
	last := strings.LastIndex(data, ":")

	if first < 0 || last <= first {
		return CallbackKey{}, fmt.Errorf("malformed callback key %q", data)
	}

	kind := data[:first]
	if kind != keyKindButton && kind != keyKindOption {
		return CallbackKey{}, fmt.Errorf("unknown callback key kind %q", kind)
	}

	index, err := strconv.Atoi(data[last+1:])
	if err != nil || index < 0 {
		return CallbackKey{}, fmt.Errorf("malformed callback key index in %q", data)
	}

	return CallbackKey{
		Kind:   kind,
		NodeID: data[first+1 : last],
		Index:  index,
	}, nil
}

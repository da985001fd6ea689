// Package session holds per-user conversational state and its stores.
package session

import (
	"time"

	"github.com/flowbotio/flowbot/pkg/models"
)

// Session is the one mutable record per end-user identity. It is created on
// the first inbound event and lives until externally evicted.
type Session struct {
	UserID string         `json:"user_id"`
	Vars   map[string]any `json:"vars"`

	// Pending is the armed input-collection request, nil when idle. A
	// session has at most one; arming replaces any prior pending input.
	Pending *PendingInput `json:"pending,omitempty"`

	// LastKeyboardWasReply tracks whether the previously rendered message
	// attached a reply keyboard, so the next keyboardless render can remove it.
	LastKeyboardWasReply bool `json:"last_keyboard_was_reply"`

	LastNodeID string    `json:"last_node_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewSession creates an empty session for a user.
func NewSession(userID string) *Session {
	now := time.Now().UTC()

	return &Session{
		UserID:    userID,
		Vars:      make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PendingInput is an armed input spec awaiting a matching inbound event,
// plus the accumulated multi-select choices.
type PendingInput struct {
	NodeID string            `json:"node_id"`
	Spec   *models.InputSpec `json:"spec"`

	// Selected holds stable option indexes in selection order. Indexes, not
	// display texts, so duplicate labels stay distinguishable.
	Selected []int `json:"selected,omitempty"`
}

// IsSelected reports whether the option index is in the selected set.
func (p *PendingInput) IsSelected(index int) bool {
	for _, sel := range p.Selected {
		if sel == index {
			return true
		}
	}

	return false
}

// Toggle flips membership of the option index in the selected set. Selecting
// an already-selected option deselects it; selection order of the remaining
// entries is preserved.
func (p *PendingInput) Toggle(index int) {
	for i, sel := range p.Selected {
		if sel == index {
			p.Selected = append(p.Selected[:i], p.Selected[i+1:]...)

			return
		}
	}

	p.Selected = append(p.Selected, index)
}

// Arm replaces any pending input with a fresh one for the given node.
func (s *Session) Arm(nodeID string, spec *models.InputSpec) {
	s.Pending = &PendingInput{NodeID: nodeID, Spec: spec}
}

// ClearPending returns the session to the idle state.
func (s *Session) ClearPending() {
	s.Pending = nil
}

// SetVar stores a collected value under the given variable name.
func (s *Session) SetVar(name string, value any) {
	if s.Vars == nil {
		s.Vars = make(map[string]any)
	}

	s.Vars[name] = value
}

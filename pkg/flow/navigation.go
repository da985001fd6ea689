package flow

import (
	"github.com/flowbotio/flowbot/pkg/models"
)

// Effect is the closed set of outcomes a navigation action resolves to.
// Buttons and response options resolve independently; a multi-button node may
// fan out to any mix of effects.
type Effect interface {
	effect()
}

// RenderNode re-renders another node, including re-arming any input spec
// found there.
type RenderNode struct {
	NodeID string
}

// InvokeCommand dispatches a named command exactly as a fresh inbound
// command would.
type InvokeCommand struct {
	Name string
}

// OfferLink surfaces a URL to the user.
type OfferLink struct {
	URL string
}

// RequestContact asks the platform for a native contact attachment.
type RequestContact struct{}

// RequestLocation asks the platform for a native location attachment.
type RequestLocation struct{}

func (RenderNode) effect()      {}
func (InvokeCommand) effect()   {}
func (OfferLink) effect()       {}
func (RequestContact) effect()  {}
func (RequestLocation) effect() {}

// Resolver maps triggered navigation actions onto effects against one graph.
type Resolver struct {
	graph *models.Graph
}

// NewResolver creates a navigation resolver for the graph.
func NewResolver(graph *models.Graph) *Resolver {
	return &Resolver{graph: graph}
}

// Resolve maps an action plus its target to a concrete effect. Targets are
// checked against the graph so stale keys surface as
// ErrNavigationTargetMissing instead of silent no-ops.
func (r *Resolver) Resolve(action models.ButtonAction, target, url string) (Effect, error) {
	switch action {
	case models.ActionGoto:
		if _, ok := r.graph.NodeByID(target); !ok {
			return nil, &NavigationError{Action: string(action), Target: target, Err: ErrNavigationTargetMissing}
		}

		return RenderNode{NodeID: target}, nil
	case models.ActionCommand:
		if !r.graph.HasCommand(target) {
			return nil, &NavigationError{Action: string(action), Target: target, Err: ErrNavigationTargetMissing}
		}

		return InvokeCommand{Name: target}, nil
	case models.ActionURL:
		if url == "" {
			url = target
		}

		return OfferLink{URL: url}, nil
	case models.ActionContact:
		return RequestContact{}, nil
	case models.ActionLocation:
		return RequestLocation{}, nil
	default:
		return nil, &NavigationError{Action: string(action), Target: target, Err: ErrUnknownAction}
	}
}

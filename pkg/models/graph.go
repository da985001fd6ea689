package models

import "strings"

// Connection is a derived edge between two nodes. Navigation is driven by
// button targets; connections exist so the editor document and the buttons
// can be cross-checked during validation.
type Connection struct {
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Graph is the in-memory representation of a flow document.
type Graph struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Nodes       []*Node       `json:"nodes" validate:"required,min=1"`
	Connections []*Connection `json:"connections"`

	nodeIndex map[string]*Node
	commands  map[string]string // lower-cased command or synonym -> node id
}

// Index builds the node and command lookup tables. The loader calls it once
// after decoding; it is safe to call again after mutating Nodes.
func (g *Graph) Index() {
	g.nodeIndex = make(map[string]*Node, len(g.Nodes))
	g.commands = make(map[string]string)

	for _, node := range g.Nodes {
		g.nodeIndex[node.ID] = node

		if node.Message == nil {
			continue
		}

		// A single command table covers the canonical string and every
		// synonym, so each command dispatches through one handler.
		if node.Message.Command != "" {
			g.commands[normalizeCommand(node.Message.Command)] = node.ID
		}

		for _, synonym := range node.Message.Synonyms {
			if synonym == "" {
				continue
			}

			g.commands[normalizeCommand(synonym)] = node.ID
		}

		if node.Kind == NodeKindStart {
			g.commands["start"] = node.ID
		}
	}
}

// NodeByID returns the node with the given id.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	node, ok := g.nodeIndex[id]

	return node, ok
}

// CommandNode resolves a command string (with or without the leading slash,
// case-insensitive) to its node through the command table.
func (g *Graph) CommandNode(command string) (*Node, bool) {
	id, ok := g.commands[normalizeCommand(command)]
	if !ok {
		return nil, false
	}

	return g.NodeByID(id)
}

// HasCommand reports whether any node is registered for the command string.
func (g *Graph) HasCommand(command string) bool {
	_, ok := g.commands[normalizeCommand(command)]

	return ok
}

// Commands returns a copy of the command table, normalized command string to
// node id.
func (g *Graph) Commands() map[string]string {
	table := make(map[string]string, len(g.commands))
	for command, id := range g.commands {
		table[command] = id
	}

	return table
}

// StartNode returns the graph's start node, if present.
func (g *Graph) StartNode() (*Node, bool) {
	for _, node := range g.Nodes {
		if node.Kind == NodeKindStart {
			return node, true
		}
	}

	return nil, false
}

// InboundDegree counts inbound references per node id: connections plus
// button, option and next-node targets. Used for reachability warnings.
func (g *Graph) InboundDegree() map[string]int {
	inbound := make(map[string]int, len(g.Nodes))

	for _, conn := range g.Connections {
		inbound[conn.Target]++
	}

	for _, node := range g.Nodes {
		for _, btn := range node.Buttons() {
			if btn.Action == ActionGoto && btn.Target != "" {
				inbound[btn.Target]++
			}
		}

		if node.Input == nil {
			continue
		}

		if node.Input.NextNodeID != "" {
			inbound[node.Input.NextNodeID]++
		}

		for _, opt := range node.Input.Options {
			if opt.Action == ActionGoto && opt.Target != "" {
				inbound[opt.Target]++
			}
		}
	}

	return inbound
}

func normalizeCommand(command string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(command), "/"))
}

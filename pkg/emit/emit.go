// Package emit turns a validated graph into a runnable program. Both outputs
// share the flow engine and its resolvers: Emit produces an in-process
// dispatch program, GenerateSource produces equivalent standalone Go source.
package emit

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/flowbotio/flowbot/pkg/events"
	"github.com/flowbotio/flowbot/pkg/flow"
	"github.com/flowbotio/flowbot/pkg/models"
	"github.com/flowbotio/flowbot/pkg/platform"
	"github.com/flowbotio/flowbot/pkg/session"
	"github.com/flowbotio/flowbot/pkg/userstore"
)

var (
	ErrNilGraph    = errors.New("graph is required")
	ErrNilSessions = errors.New("session store is required")
	ErrNilPlatform = errors.New("platform is required")
)

// Deps is the runtime collaborators an emitted program binds to. Users may be
// nil; the engine degrades to a noop store.
type Deps struct {
	Sessions session.Store
	Platform platform.Platform
	Users    userstore.Store
	Logger   *slog.Logger
}

// Program is the emitted dispatch artifact: the engine plus the precomputed
// command and callback-key tables the graph can ever produce. Every table
// entry delegates to the engine, so emitted dispatch and direct
// interpretation cannot diverge.
type Program struct {
	graph     *models.Graph
	engine    *flow.Engine
	commands  map[string]string
	callbacks map[string]bool
}

// Emit builds the dispatch program for a validated graph.
func Emit(graph *models.Graph, deps Deps) (*Program, error) {
	if graph == nil {
		return nil, ErrNilGraph
	}

	if deps.Sessions == nil {
		return nil, ErrNilSessions
	}

	if deps.Platform == nil {
		return nil, ErrNilPlatform
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	program := &Program{
		graph:     graph,
		engine:    flow.NewEngine(graph, deps.Sessions, deps.Platform, deps.Users, logger),
		commands:  graph.Commands(),
		callbacks: make(map[string]bool),
	}

	for _, node := range graph.Nodes {
		for i := range node.Buttons() {
			program.callbacks[flow.ButtonKey(node.ID, i)] = true
		}

		if node.Input != nil {
			for i := range node.Input.Options {
				program.callbacks[flow.OptionKey(node.ID, i)] = true
			}
		}
	}

	return program, nil
}

// Graph returns the graph the program was emitted from.
func (p *Program) Graph() *models.Graph {
	return p.graph
}

// Engine returns the underlying flow engine.
func (p *Program) Engine() *flow.Engine {
	return p.engine
}

// Commands lists the registered command strings in sorted order.
func (p *Program) Commands() []string {
	commands := make([]string, 0, len(p.commands))
	for command := range p.commands {
		commands = append(commands, command)
	}

	sort.Strings(commands)

	return commands
}

// ValidCallback reports whether the graph can ever render the callback key.
func (p *Program) ValidCallback(key string) bool {
	return p.callbacks[key]
}

// HandleEvent dispatches one inbound event. Commands outside the table are
// dropped up front; everything else goes through the engine, including
// unknown callback keys, which still need their callback queries answered.
func (p *Program) HandleEvent(ctx context.Context, evt events.Inbound) error {
	if evt.Type == events.CommandEvent && !p.graph.HasCommand(flow.CommandName(evt.Text)) {
		return nil
	}

	return p.engine.HandleEvent(ctx, evt)
}

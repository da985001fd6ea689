package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"

	"github.com/flowbotio/flowbot/pkg/emit"
	"github.com/flowbotio/flowbot/pkg/events"
	"github.com/flowbotio/flowbot/pkg/graph"
	"github.com/flowbotio/flowbot/pkg/log"
	"github.com/flowbotio/flowbot/pkg/platform/telegram"
)

// RunOptions configures a bot run. Generated programs fill it from the
// environment; the CLI fills it from flags.
type RunOptions struct {
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL"`
	SessionURL  string `env:"SESSION_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// RunEmbedded is the entry point of generated bot programs: options come from
// the environment and the process runs until interrupted.
func RunEmbedded(name string, document []byte) error {
	var opts RunOptions
	if err := env.Parse(&opts); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return RunBot(ctx, name, document, opts)
}

// RunBot validates the document, wires the engine to Telegram through the
// event bus, and blocks until ctx is cancelled.
func RunBot(ctx context.Context, name string, document []byte, opts RunOptions) error {
	log.Setup(opts.LogLevel)
	logger := log.WithModule(name)

	loaded, findings := graph.Load(document)
	if graph.HasFatal(findings) {
		for _, finding := range findings {
			if !finding.Warning {
				logger.Error("Validation failed", "kind", finding.Kind, "node_id", finding.NodeID, "message", finding.Message)
			}
		}

		return fmt.Errorf("flow document failed validation")
	}

	for _, finding := range findings {
		logger.Warn("Validation warning", "kind", finding.Kind, "node_id", finding.NodeID, "message", finding.Message)
	}

	sessions, err := NewSessionStore(opts.SessionURL)
	if err != nil {
		return err
	}
	defer func() { _ = sessions.Close() }()

	users, err := NewUserStore(opts.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = users.Close(context.Background()) }()

	adapter, err := telegram.New(opts.BotToken, logger)
	if err != nil {
		return err
	}

	program, err := emit.Emit(loaded, emit.Deps{
		Sessions: sessions,
		Platform: adapter,
		Users:    users,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	bus, err := NewEventBus(logger)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	for _, eventType := range []events.EventType{
		events.CommandEvent,
		events.CallbackEvent,
		events.TextEvent,
		events.ContactEvent,
		events.LocationEvent,
	} {
		if err := bus.Handle(eventType, program.HandleEvent); err != nil {
			return err
		}
	}

	if err := bus.Subscribe(ctx); err != nil {
		return err
	}

	logger.Info("Bot started", "graph", loaded.Name, "commands", program.Commands())

	// Events are keyed by user id so partitioned transports keep per-user
	// ordering; the session store serializes the in-process case.
	return adapter.Listen(ctx, func(ctx context.Context, evt events.Inbound) error {
		return bus.Publish(ctx, evt.UserID, evt)
	})
}

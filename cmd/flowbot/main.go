package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"

	"github.com/flowbotio/flowbot/pkg/cmd"
	"github.com/flowbotio/flowbot/pkg/emit"
	"github.com/flowbotio/flowbot/pkg/graph"
	"github.com/flowbotio/flowbot/pkg/log"
)

func main() {
	root := &cli.Command{
		Name:                  "flowbot",
		EnableShellCompletion: true,
		Usage:                 "Compile flow-graph documents into conversational bots",
		Commands: []*cli.Command{
			validateCommand(),
			compileCommand(),
			runCommand(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func graphFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "graph",
		Aliases:  []string{"g"},
		Usage:    "Path to the flow document (JSON)",
		Required: true,
		Sources:  cli.EnvVars("FLOWBOT_GRAPH"),
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a flow document and report findings",
		Flags: []cli.Flag{graphFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			document, err := os.ReadFile(command.String("graph"))
			if err != nil {
				return fmt.Errorf("failed to read flow document: %w", err)
			}

			_, findings := graph.Load(document)

			for _, finding := range findings {
				severity := "error"
				if finding.Warning {
					severity = "warning"
				}

				fmt.Printf("%s: %s\n", severity, finding.Error())
			}

			if graph.HasFatal(findings) {
				return fmt.Errorf("flow document failed validation")
			}

			fmt.Println("flow document is valid")

			return nil
		},
	}
}

func compileCommand() *cli.Command {
	return &cli.Command{
		Name:  "compile",
		Usage: "Generate a standalone bot program from a flow document",
		Flags: []cli.Flag{
			graphFlag(),
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory for the generated program",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Bot name used in generated logs (defaults to the graph name)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			document, err := os.ReadFile(command.String("graph"))
			if err != nil {
				return fmt.Errorf("failed to read flow document: %w", err)
			}

			source, err := emit.GenerateSource(document, emit.GenerateOptions{
				BotName: command.String("name"),
			})
			if err != nil {
				return err
			}

			outDir := command.String("out")
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			outPath := filepath.Join(outDir, "main.go")
			if err := os.WriteFile(outPath, source, 0o644); err != nil {
				return fmt.Errorf("failed to write generated program: %w", err)
			}

			fmt.Println("wrote", outPath)

			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a flow document as a Telegram bot",
		Flags: []cli.Flag{
			graphFlag(),
			&cli.StringFlag{
				Name:     "token",
				Usage:    "Telegram bot token",
				Required: true,
				Sources:  cli.EnvVars("BOT_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "User store URL (file, sqlite or postgres scheme)",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "session-url",
				Usage:   "Session store URL (memory or redis scheme)",
				Sources: cli.EnvVars("SESSION_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			document, err := os.ReadFile(command.String("graph"))
			if err != nil {
				return fmt.Errorf("failed to read flow document: %w", err)
			}

			name := "flowbot"
			if base := filepath.Base(command.String("graph")); base != "" {
				name = "flowbot-" + base
			}

			return cmd.RunBot(ctx, name, document, cmd.RunOptions{
				BotToken:    command.String("token"),
				DatabaseURL: command.String("database-url"),
				SessionURL:  command.String("session-url"),
				LogLevel:    command.String("log-level"),
			})
		},
	}
}

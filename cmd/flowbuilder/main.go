// Package main is the flowbuilder command: the console API server and its
// maintenance commands.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/flowbuilder/pkg/log"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("flowbuilder")

	cmd := &cli.Command{
		Name:                  "flowbuilder",
		Usage:                 "Build workflows from activity templates",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   log.FormatText,
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"), command.String("log-format"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			ServeCommand(),
			TemplatesCommand(),
			WorkflowsCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func databaseURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "database-url",
		Usage:    "Storage URL: a directory path, postgres:// or redis://",
		Required: true,
		Sources:  cli.EnvVars("DATABASE_URL"),
	}
}

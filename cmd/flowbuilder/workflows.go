package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	cli "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/dukex/flowbuilder/pkg/cmd"
	"github.com/dukex/flowbuilder/pkg/log"
	"github.com/dukex/flowbuilder/pkg/models"
)

func WorkflowsCommand() *cli.Command {
	return &cli.Command{
		Name:    "workflows",
		Aliases: []string{"w"},
		Usage:   "Inspect stored workflows",
		Commands: []*cli.Command{
			{
				Name:      "export",
				Usage:     "Print a workflow as YAML",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{databaseURLFlag()},
				Action: func(ctx context.Context, command *cli.Command) error {
					id := command.Args().First()
					if id == "" {
						return errors.New("missing workflow id")
					}

					persistence, err := cmd.NewPersistence(ctx, log.WithModule("workflows"), command.String("database-url"))
					if err != nil {
						return err
					}
					defer persistence.Close(ctx) //nolint:errcheck

					wf, err := persistence.WorkflowByID(ctx, id)
					if err != nil {
						return err
					}

					return exportWorkflow(command.Root().Writer, wf)
				},
			},
		},
	}
}

// exportWorkflow writes wf as YAML with the same field names and value envelopes
// as its stored JSON.
func exportWorkflow(w io.Writer, wf *models.Workflow) error {
	raw, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("failed to encode workflow: %w", err)
	}

	var document map[string]any
	if err := json.Unmarshal(raw, &document); err != nil {
		return fmt.Errorf("failed to encode workflow: %w", err)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(document); err != nil {
		return fmt.Errorf("failed to write workflow: %w", err)
	}

	return encoder.Close()
}

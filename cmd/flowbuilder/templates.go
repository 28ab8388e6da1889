package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/flowbuilder/pkg/cmd"
	"github.com/dukex/flowbuilder/pkg/log"
	"github.com/dukex/flowbuilder/pkg/schema"
	"github.com/dukex/flowbuilder/pkg/services"
)

func TemplatesCommand() *cli.Command {
	return &cli.Command{
		Name:    "templates",
		Aliases: []string{"t"},
		Usage:   "Manage activity templates",
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Validate and store templates from a JSON document",
				ArgsUsage: "<file>",
				Flags:     []cli.Flag{databaseURLFlag()},
				Action: func(ctx context.Context, command *cli.Command) error {
					path := command.Args().First()
					if path == "" {
						return errors.New("missing template file")
					}

					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("failed to read %s: %w", path, err)
					}

					persistence, err := cmd.NewPersistence(ctx, log.WithModule("templates"), command.String("database-url"))
					if err != nil {
						return err
					}
					defer persistence.Close(ctx) //nolint:errcheck

					studio := services.NewStudio(persistence, services.WithLogger(log.WithModule("studio")))
					if err := studio.Load(ctx); err != nil {
						return err
					}

					return importTemplates(ctx, studio, data, command.Root().Writer)
				},
			},
		},
	}
}

// importTemplates validates the whole document before storing anything, then
// creates the templates in document order.
func importTemplates(ctx context.Context, studio *services.Studio, data []byte, out io.Writer) error {
	templates, err := schema.DecodeTemplates(data)
	if err != nil {
		return err
	}

	for _, template := range templates {
		created, err := studio.CreateTemplate(ctx, template)
		if err != nil {
			return fmt.Errorf("failed to import template %q: %w", template.Name, err)
		}

		fmt.Fprintf(out, "Imported %s (%s)\n", created.Name, created.ID)
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/tmc/langchaingo/llms/openai"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/flowbuilder/pkg/assistant"
	"github.com/dukex/flowbuilder/pkg/cmd"
	"github.com/dukex/flowbuilder/pkg/eventbus"
	"github.com/dukex/flowbuilder/pkg/events"
	"github.com/dukex/flowbuilder/pkg/log"
	"github.com/dukex/flowbuilder/pkg/otelhelper"
	"github.com/dukex/flowbuilder/pkg/services"
)

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the console API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			databaseURLFlag(),
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "openai-token",
				Usage:   "API key for the workflow assistant; the assistant is disabled without it",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "openai-model",
				Usage:   "Model used by the workflow assistant",
				Value:   "gpt-4o-mini",
				Sources: cli.EnvVars("OPENAI_MODEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			return runServe(ctx, command)
		},
	}
}

func runServe(ctx context.Context, command *cli.Command) error {
	logger := log.WithModule("api")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Initializing Flowbuilder API")

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(cmd.EventBusConfig{
		Provider:     command.String("event-bus"),
		KafkaBrokers: command.String("kafka-brokers"),
		OTELEnabled:  command.Bool("otel-enabled"),
	}, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	if err := watchSaveFailures(ctx, eventBus, logger); err != nil {
		return err
	}

	tracer, shutdown, err := newTracer(ctx, command.Bool("otel-enabled"))
	if err != nil {
		return err
	}

	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to flush traces", "error", err)
		}
	}()

	studio := services.NewStudio(persistence,
		services.WithPublisher(eventBus),
		services.WithTracer(tracer),
		services.WithLogger(log.WithModule("studio")),
	)

	// A failed load leaves the banner up and empty collections; the console still serves.
	if err := studio.Load(ctx); err != nil {
		logger.ErrorContext(ctx, "Initial load failed", "error", err)
	}

	chat, err := newChat(command.String("openai-token"), command.String("openai-model"))
	if err != nil {
		return err
	}

	app := NewAPI(logger, studio, chat).App()

	go func() {
		<-ctx.Done()

		if err := app.ShutdownWithContext(context.WithoutCancel(ctx)); err != nil {
			logger.Error("Failed to shut down the server", "error", err)
		}
	}()

	if err := app.Listen(":" + strconv.Itoa(command.Int("port"))); err != nil {
		return fmt.Errorf("failed to start the API server: %w", err)
	}

	return nil
}

// watchSaveFailures logs every failed auto-save published on the bus.
func watchSaveFailures(ctx context.Context, bus eventbus.EventSubscriber, logger *slog.Logger) error {
	err := bus.Handle(events.WorkflowSaveFailedEvent, func(ctx context.Context, event any) error {
		saved, ok := event.(*events.WorkflowSaved)
		if !ok {
			return nil
		}

		logger.WarnContext(ctx, "Workflow auto-save failed", "workflow_id", saved.WorkflowID, "error", saved.Error)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to register event handler: %w", err)
	}

	if err := bus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	return nil
}

// nolint:ireturn
func newTracer(ctx context.Context, enabled bool) (trace.Tracer, otelhelper.Shutdown, error) {
	if !enabled {
		return otelhelper.NoopTracer(), func(context.Context) error { return nil }, nil
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, "flowbuilder")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	return tracer, shutdown, nil
}

func newChat(token, model string) (*assistant.Chat, error) {
	if token == "" {
		return nil, nil
	}

	llm, err := openai.New(openai.WithToken(token), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create the assistant model: %w", err)
	}

	return assistant.NewChat(assistant.NewLLMSuggester(llm), log.WithModule("assistant")), nil
}

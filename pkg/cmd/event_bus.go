package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/dukex/flowbuilder/pkg/channels/gochannel"
	"github.com/dukex/flowbuilder/pkg/channels/kafka"
	"github.com/dukex/flowbuilder/pkg/eventbus"
)

// EventBusConfig selects and configures the event bus.
type EventBusConfig struct {
	// Provider is "gochannel" (default) or "kafka".
	Provider     string
	KafkaBrokers string
	OTELEnabled  bool
}

// NewEventBus builds the bus the console store publishes change events to.
func NewEventBus(cfg EventBusConfig, logger *slog.Logger) (*eventbus.WatermillEventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch cfg.Provider {
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-process pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.Config{
			Brokers:       cfg.KafkaBrokers,
			ConsumerGroup: "flowbuilder",
			OTELEnabled:   cfg.OTELEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", cfg.Provider)
	}
}

// Package kafka provides the watermill Kafka pub/sub used to fan console events out
// to other processes.
package kafka

import (
	"errors"
	"strings"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
)

var ErrNoBrokers = errors.New("no kafka brokers configured")

// Config selects the brokers and the consumer group of this process.
type Config struct {
	// Brokers is a comma-separated broker list, as read from KAFKA_BROKERS.
	Brokers       string
	ConsumerGroup string
	OTELEnabled   bool
}

func (c Config) brokers() []string {
	var out []string

	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}

	return out
}

// CreateChannel connects a publisher and a subscriber. New consumer groups start
// from the oldest retained event.
func CreateChannel(logger watermill.LoggerAdapter, cfg Config) (*kafka.Publisher, *kafka.Subscriber, error) {
	brokers := cfg.brokers()
	if len(brokers) == 0 {
		return nil, nil, ErrNoBrokers
	}

	group := cfg.ConsumerGroup
	if group == "" {
		group = "flowbuilder"
	}

	saramaSubscriberConfig := kafka.DefaultSaramaSubscriberConfig()
	saramaSubscriberConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaSubscriberConfig,
			ConsumerGroup:         "cg-" + group,
			OTELEnabled:           cfg.OTELEnabled,
		},
		logger,
	)
	if err != nil {
		return nil, nil, err
	}

	saramaPublisherConfig := sarama.NewConfig()
	saramaPublisherConfig.Producer.Return.Successes = true

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaPublisherConfig,
			OTELEnabled:           cfg.OTELEnabled,
		},
		logger,
	)
	if err != nil {
		_ = subscriber.Close()

		return nil, nil, err
	}

	return publisher, subscriber, nil
}

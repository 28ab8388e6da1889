package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/dukex/flowbuilder/pkg/events"
)

type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger

	mu            sync.RWMutex
	subscriptions map[events.EventType][]EventHandler
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		logger:        logger,
		subscriptions: make(map[events.EventType][]EventHandler),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(_ context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

// Subscribe starts delivering messages to the registered handlers until ctx ends.
// Every handler of a type receives the event; the message is acked once all succeed.
func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eb.dispatch(ctx, msg)
		}
	}()

	return nil
}

func (eb *WatermillEventBus) dispatch(ctx context.Context, msg *message.Message) {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	eb.mu.RLock()
	handlers := eb.subscriptions[eventType]
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		msg.Ack()

		return
	}

	event, ok := decode(eventType, msg.Payload)
	if !ok {
		eb.logger.WarnContext(ctx, "dropping undecodable event", "event_type", eventType, "message_id", msg.UUID)
		msg.Nack()

		return
	}

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			eb.logger.ErrorContext(ctx, "event handler failed", "event_type", eventType, "error", err)
			msg.Nack()

			return
		}
	}

	msg.Ack()
}

func decode(eventType events.EventType, payload []byte) (any, bool) {
	var event any

	switch eventType {
	case events.TemplateCreatedEvent, events.TemplateUpdatedEvent, events.TemplateDeletedEvent:
		event = &events.TemplateChanged{}
	case events.WorkflowCreatedEvent, events.WorkflowUpdatedEvent, events.WorkflowDeletedEvent:
		event = &events.WorkflowChanged{}
	case events.WorkflowSavedEvent, events.WorkflowSaveFailedEvent:
		event = &events.WorkflowSaved{}
	default:
		return nil, false
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, false
	}

	return event, true
}

// Handle registers handler for eventType. Several handlers may share a type.
func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscriptions[eventType] = append(eb.subscriptions[eventType], handler)

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}

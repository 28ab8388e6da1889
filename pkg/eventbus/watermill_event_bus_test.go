package eventbus_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/flowbuilder/pkg/channels/gochannel"
	"github.com/dukex/flowbuilder/pkg/eventbus"
	"github.com/dukex/flowbuilder/pkg/events"
)

func newBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub, slog.Default())
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_DeliversToEveryHandler(t *testing.T) {
	bus := newBus(t)

	first := make(chan *events.WorkflowChanged, 1)
	second := make(chan *events.WorkflowChanged, 1)

	require.NoError(t, bus.Handle(events.WorkflowUpdatedEvent, func(_ context.Context, event any) error {
		first <- event.(*events.WorkflowChanged)

		return nil
	}))
	require.NoError(t, bus.Handle(events.WorkflowUpdatedEvent, func(_ context.Context, event any) error {
		second <- event.(*events.WorkflowChanged)

		return nil
	}))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	event := events.NewWorkflowChanged(events.WorkflowUpdatedEvent, "wf-1")
	event.Command = "RenameBranch"
	require.NoError(t, bus.Publish(ctx, "wf-1", event))

	for _, ch := range []chan *events.WorkflowChanged{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, "wf-1", got.WorkflowID)
			assert.Equal(t, "RenameBranch", got.Command)
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestWatermillEventBus_IgnoresUnhandledTypes(t *testing.T) {
	bus := newBus(t)

	saved := make(chan *events.WorkflowSaved, 1)
	require.NoError(t, bus.Handle(events.WorkflowSaveFailedEvent, func(_ context.Context, event any) error {
		saved <- event.(*events.WorkflowSaved)

		return nil
	}))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "tpl", events.NewTemplateChanged(events.TemplateCreatedEvent, "tpl", "Trigger")))
	require.NoError(t, bus.Publish(ctx, "wf-1", events.NewWorkflowSaved("wf-1", assert.AnError, "Failed to update workflow")))

	select {
	case got := <-saved:
		assert.Equal(t, "Failed to update workflow", got.Banner)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var created, assigned int
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		created++
		assert.Equal(t, "t-1", e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketAssigned, func(_ context.Context, _ Event) error {
		assigned++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t-1"}))
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, assigned, "handlers only see their own event type")
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	var reached bool
	d.Subscribe(EventTicketCompleted, func(_ context.Context, _ Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCompleted, func(_ context.Context, _ Event) error {
		reached = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCompleted}))
	assert.True(t, reached)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketDeleted}))
}

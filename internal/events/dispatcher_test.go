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
	var got []Event
	d.Subscribe(EventUserRegistered, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})
	d.Subscribe(EventBlogCreated, func(context.Context, Event) error {
		t.Fatal("unexpected blog event")
		return nil
	})

	event := New(EventUserRegistered, 1, UserPayload{Username: "alice"})
	require.NoError(t, d.Publish(context.Background(), event))

	require.Len(t, got, 1)
	assert.Equal(t, event.ID, got[0].ID)
	assert.Equal(t, int64(1), got[0].ActorID)
	assert.Equal(t, UserPayload{Username: "alice"}, got[0].Payload)
}

func TestDispatcherRunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	calls := 0
	d.Subscribe(EventUserLoggedOut, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventUserLoggedOut, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), New(EventUserLoggedOut, 1, nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestNewAssignsUniqueIDs(t *testing.T) {
	a := New(EventBlogCreated, 1, nil)
	b := New(EventBlogCreated, 1, nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
}

func TestDispatcherRecoversPanickingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	delivered := false
	d.Subscribe(EventBlogUpdated, func(context.Context, Event) error {
		panic("handler bug")
	})
	d.Subscribe(EventBlogUpdated, nil)
	d.Subscribe(EventBlogUpdated, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	var err error
	require.NotPanics(t, func() {
		err = d.Publish(context.Background(), New(EventBlogUpdated, 1, BlogPayload{BlogID: 1}))
	})
	assert.ErrorContains(t, err, "handler bug")
	assert.ErrorContains(t, err, string(EventBlogUpdated))
	assert.True(t, delivered)
}

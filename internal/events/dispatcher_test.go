package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcher_RunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []string
	d.Subscribe(EventTeamCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "first")
		return errors.New("sink down")
	})
	d.Subscribe(EventTeamCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "second")
		return nil
	})
	d.Subscribe(EventTeamUpdated, func(_ context.Context, e Event) error {
		seen = append(seen, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTeamCreated, TargetID: 3})
	require.EqualError(t, err, "sink down")
	require.Equal(t, []string{"first", "second"}, seen)
}

func TestDispatcher_NoListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventRoleChanged}))
}

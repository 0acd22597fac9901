package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/orgchart-service/internal/config"
	"github.com/spec-kit/orgchart-service/internal/events"
	"github.com/spec-kit/orgchart-service/internal/service"
)

// gatedPublisher records subjects and can hold each Publish until released.
type gatedPublisher struct {
	mu       sync.Mutex
	subjects []string
	entered  chan struct{}
	gate     chan struct{}
}

func (p *gatedPublisher) Publish(_ context.Context, subject, _ string, _ []byte) error {
	if p.entered != nil {
		p.entered <- struct{}{}
	}
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *gatedPublisher) Close() error { return nil }

func (p *gatedPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

func newWorker(pub *gatedPublisher, buffer int) (*ChangeFeedWorker, events.Dispatcher) {
	dispatcher := events.NewInMemoryDispatcher()
	feed := service.NewChangeFeed(nil, pub, zap.NewNop(), config.NATSConfig{SubjectPrefix: "orgchart"})
	w := NewChangeFeedWorker(feed, zap.NewNop(), buffer)
	w.Start(dispatcher)
	return w, dispatcher
}

func TestChangeFeedWorker_DrainsOnStop(t *testing.T) {
	pub := &gatedPublisher{}
	w, dispatcher := newWorker(pub, 8)
	ctx := context.Background()

	for _, eventType := range []events.EventType{events.EventCorporationCreated, events.EventTeamCreated, events.EventTeamUpdated} {
		require.NoError(t, dispatcher.Publish(ctx, events.Event{ID: string(eventType), Type: eventType}))
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
	require.Equal(t, []string{
		"orgchart.org.corporation.created",
		"orgchart.org.team.created",
		"orgchart.org.team.updated",
	}, pub.published())

	err := dispatcher.Publish(ctx, events.Event{ID: "late", Type: events.EventTeamUpdated})
	require.ErrorIs(t, err, ErrStopped)
}

func TestChangeFeedWorker_FullQueueDropsEvent(t *testing.T) {
	pub := &gatedPublisher{entered: make(chan struct{}, 4), gate: make(chan struct{})}
	w, dispatcher := newWorker(pub, 1)
	ctx := context.Background()

	require.NoError(t, dispatcher.Publish(ctx, events.Event{ID: "1", Type: events.EventTeamCreated}))
	<-pub.entered // first event is in flight
	require.NoError(t, dispatcher.Publish(ctx, events.Event{ID: "2", Type: events.EventTeamCreated}))

	err := dispatcher.Publish(ctx, events.Event{ID: "3", Type: events.EventTeamCreated})
	require.ErrorIs(t, err, ErrQueueFull)

	close(pub.gate)
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
	require.Len(t, pub.published(), 2)
}

func TestChangeFeedWorker_StopWithoutStart(t *testing.T) {
	feed := service.NewChangeFeed(nil, nil, zap.NewNop(), config.NATSConfig{})
	w := NewChangeFeedWorker(feed, nil, 0)
	require.NoError(t, w.Stop(context.Background()))
	require.NoError(t, w.Stop(context.Background()))
}

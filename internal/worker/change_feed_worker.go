package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/orgchart-service/internal/events"
	"github.com/spec-kit/orgchart-service/internal/service"
)

var (
	ErrQueueFull = errors.New("change feed queue full")
	ErrStopped   = errors.New("change feed stopped")
)

// ChangeFeedWorker delivers organization events to the change feed from a
// single goroutine, so broker round trips stay out of request handling.
// Events keep their commit order.
type ChangeFeedWorker struct {
	feed   *service.ChangeFeed
	logger *zap.Logger
	queue  chan events.Event
	done   chan struct{}

	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewChangeFeedWorker creates a worker holding up to buffer undelivered events.
func NewChangeFeedWorker(feed *service.ChangeFeed, logger *zap.Logger, buffer int) *ChangeFeedWorker {
	if buffer <= 0 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeFeedWorker{
		feed:   feed,
		logger: logger,
		queue:  make(chan events.Event, buffer),
		done:   make(chan struct{}),
	}
}

// Start subscribes the worker to every event type and begins delivery.
func (w *ChangeFeedWorker) Start(dispatcher events.Dispatcher) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
	go w.run()
}

// Stop refuses new events and waits until the queued ones are delivered or
// ctx ends.
func (w *ChangeFeedWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	started := w.started
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()
	if !started {
		return nil
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("change feed stopped before draining", zap.Int("pending", len(w.queue)))
		return ctx.Err()
	}
}

func (w *ChangeFeedWorker) enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- event:
		return nil
	default:
		w.logger.Warn("change feed queue full; event dropped",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return ErrQueueFull
	}
}

func (w *ChangeFeedWorker) run() {
	defer close(w.done)
	// request contexts are gone by the time an event is delivered
	ctx := context.Background()
	for event := range w.queue {
		if err := w.feed.Handle(ctx, event); err != nil {
			w.logger.Warn("change feed delivery failed",
				zap.String("event_id", event.ID),
				zap.Int64("commit_id", event.CommitID),
				zap.Error(err))
		}
	}
}

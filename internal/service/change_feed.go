package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/orgchart-service/internal/broker"
	"github.com/spec-kit/orgchart-service/internal/config"
	"github.com/spec-kit/orgchart-service/internal/events"
)

// ChangeFeed forwards organization events to the log and, when a publisher
// is configured, to the broker under "<prefix>.<event type>".
type ChangeFeed struct {
	dispatcher events.Dispatcher
	publisher  broker.Publisher
	logger     *zap.Logger
	cfg        config.NATSConfig
}

// NewChangeFeed creates the feed. publisher may be nil.
func NewChangeFeed(dispatcher events.Dispatcher, publisher broker.Publisher, logger *zap.Logger, cfg config.NATSConfig) *ChangeFeed {
	return &ChangeFeed{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes Handle to every organization event, delivering
// synchronously on the publishing goroutine.
func (f *ChangeFeed) RegisterHandlers() {
	if f.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		f.dispatcher.Subscribe(eventType, f.Handle)
	}
}

// Subject returns the broker subject for an event type.
func (f *ChangeFeed) Subject(eventType events.EventType) string {
	if f.cfg.SubjectPrefix == "" {
		return string(eventType)
	}
	return f.cfg.SubjectPrefix + "." + string(eventType)
}

// Handle logs event and forwards it to the publisher, if any.
func (f *ChangeFeed) Handle(ctx context.Context, event events.Event) error {
	f.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Int64("commit_id", event.CommitID),
		zap.Int64("target_id", event.TargetID),
		zap.Int64("actor_id", event.Actor.PersonID),
		zap.Any("payload", event.Payload))

	if f.publisher == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.Type, err)
	}
	if err := f.publisher.Publish(ctx, f.Subject(event.Type), event.ID, data); err != nil {
		return fmt.Errorf("publish %s: %w", event.ID, err)
	}
	return nil
}

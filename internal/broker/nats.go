// Package broker publishes organization change events to NATS.
package broker

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher sends payloads to subjects.
type Publisher interface {
	Publish(ctx context.Context, subject, msgID string, data []byte) error
	Close() error
}

// NATS is a Publisher over a core NATS connection.
type NATS struct {
	nc *nats.Conn
}

// Connect dials the server at url.
func Connect(url string, logger *zap.Logger) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("orgchart-service"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	logger.Info("connected to nats", zap.String("url", url))
	return &NATS{nc: nc}, nil
}

// Publish sends data to subject. msgID travels in the Nats-Msg-Id header so
// JetStream consumers can deduplicate.
func (n *NATS) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	if msgID != "" {
		msg.Header.Set(nats.MsgIdHdr, msgID)
	}
	if err := n.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Ping flushes the connection, confirming the server is reachable.
func (n *NATS) Ping(ctx context.Context) error {
	return n.nc.FlushWithContext(ctx)
}

// Close drains and closes the connection.
func (n *NATS) Close() error {
	return n.nc.Drain()
}

// Conn exposes the underlying connection.
func (n *NATS) Conn() *nats.Conn {
	return n.nc
}

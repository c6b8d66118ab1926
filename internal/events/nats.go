package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type natsConn interface {
	Publish(subject string, data []byte) error
}

// NatsPublisher sends each event as JSON to "<prefix>.<event type>",
// e.g. gym.reservation.booked.
type NatsPublisher struct {
	conn   natsConn
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
}

func NewNatsPublisher(url, prefix string, logger *zap.Logger) (*NatsPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("gymplanner"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NatsPublisher{conn: nc, nc: nc, prefix: prefix, logger: logger}, nil
}

func (p *NatsPublisher) Subject(t Type) string {
	if p.prefix == "" {
		return string(t)
	}
	return p.prefix + "." + string(t)
}

func (p *NatsPublisher) Publish(_ context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := p.Subject(e.Type)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug("event published", zap.String("subject", subject), zap.String("session_id", e.SessionID))
	return nil
}

// Close flushes pending messages.
func (p *NatsPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}

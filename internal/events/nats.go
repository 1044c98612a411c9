package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const SubjectPrefix = "users."

// Subject maps an event type to its NATS subject, e.g. user.created -> users.created.
func Subject(t Type) string {
	return SubjectPrefix + strings.TrimPrefix(string(t), "user.")
}

// NatsPublisher forwards bus events to NATS so the notification worker can
// consume them out of process.
type NatsPublisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

func NewNatsPublisher(natsURL string, log *zap.Logger) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("trainerhub"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NatsPublisher{conn: nc, log: log}, nil
}

func (p *NatsPublisher) Handle(_ context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("failed to marshal event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	subject := Subject(event.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Error("failed to publish to nats", zap.String("subject", subject), zap.Error(err))
		return
	}

	p.log.Debug("event forwarded to nats", zap.String("subject", subject), zap.String("user", event.User.UniqID))
}

func (p *NatsPublisher) Close() {
	_ = p.conn.Drain()
}

// Decode parses a payload produced by NatsPublisher.
func Decode(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return event, nil
}

package pubsub

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

const streamName = "DRAFT_EVENTS"

// NATSPublisher publishes draft events to a NATS JetStream stream so other
// instances and companion tools can replay the draft.
type NATSPublisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
}

// NewNATSPublisher connects to NATS and ensures the draft events stream
// exists.
func NewNATSPublisher(natsURL, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("pubsub: connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("pubsub: create JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(streamName); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("pubsub: create stream: %w", err)
		}
	}

	return &NATSPublisher{nc: nc, js: js, subject: subject}, nil
}

// Publish sends an event to the stream. Failures are logged and swallowed;
// event delivery is never allowed to slow or fail the draft.
func (p *NATSPublisher) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to encode draft event", "type", event.Type, "err", err)
		return
	}
	if _, err := p.js.Publish(p.subject, data); err != nil {
		slog.Warn("failed to publish draft event", "type", event.Type, "err", err)
	}
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/hxshowcase/internal/logfields"
)

// NATSRelay relays chat messages over a core NATS subject. NATS echoes
// messages back to the publishing connection, which is what Relay needs.
type NATSRelay struct {
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
}

// NewNATSRelay connects to url and relays on subject.
func NewNATSRelay(url, subject string) (*NATSRelay, error) {
	conn, err := nats.Connect(url, nats.Name("hxshowcase-chat"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS chat relay connected", "url", conn.ConnectedUrlRedacted(), "subject", subject)
	return &NATSRelay{conn: conn, subject: subject}, nil
}

func (r *NATSRelay) Publish(_ context.Context, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}
	if err := r.conn.Publish(r.subject, data); err != nil {
		return fmt.Errorf("failed to publish chat message: %w", err)
	}
	return nil
}

func (r *NATSRelay) Subscribe(deliver func(Message)) error {
	sub, err := r.conn.Subscribe(r.subject, func(msg *nats.Msg) {
		var m Message
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			slog.Warn("ignoring malformed relayed chat message", logfields.Error(err))
			return
		}
		deliver(m)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.subject, err)
	}
	r.sub = sub
	return r.conn.Flush()
}

// Close drains the subscription and closes the connection.
func (r *NATSRelay) Close() error {
	if r.sub != nil {
		if err := r.sub.Unsubscribe(); err != nil && r.conn.IsConnected() {
			slog.Debug("chat relay unsubscribe", logfields.Error(err))
		}
	}
	if err := r.conn.Drain(); err != nil {
		r.conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}

// Package relay republishes bus events onto NATS so other services can react
// to marketplace activity without polling themselves. Delivery inherits the
// bus's lossy contract; the envelope carries the missed count so consumers
// can detect gaps.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/tradewatch/tradewatch/internal/bus"
)

// SubjectPrefix is the root of all relayed event subjects; the event kind is
// appended (e.g. "tradewatch.events.new_message").
const SubjectPrefix = "tradewatch.events"

// Envelope is the JSON wrapper published per event.
type Envelope struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	At      time.Time `json:"at"`
	Missed  uint64    `json:"missed,omitempty"`
	Payload any       `json:"payload"`
}

type Relay struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func New(url string, logger *slog.Logger) (*Relay, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Relay{conn: conn, logger: logger}, nil
}

// Run drains sub until ctx is cancelled or the bus closes. Publish failures
// are logged, never fatal.
func (r *Relay) Run(ctx context.Context, sub *bus.Subscriber) error {
	for {
		ev, missed, err := sub.Receive(ctx)
		if err != nil {
			if errors.Is(err, bus.ErrClosed) {
				return nil
			}
			return err
		}
		if missed > 0 {
			r.logger.Warn("relay lagged behind the event bus", "missed", missed)
		}

		env := Envelope{
			ID:      uuid.NewString(),
			Kind:    ev.Kind(),
			At:      time.Now().UTC(),
			Missed:  missed,
			Payload: ev,
		}
		payload, err := json.Marshal(env)
		if err != nil {
			r.logger.Error("failed to marshal event envelope", "kind", ev.Kind(), "error", err)
			continue
		}
		subject := SubjectPrefix + "." + ev.Kind()
		if err := r.conn.Publish(subject, payload); err != nil {
			r.logger.Error("failed to publish event", "subject", subject, "error", err)
		}
	}
}

func (r *Relay) Close() {
	r.conn.Close()
}

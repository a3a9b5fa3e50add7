//go:build integration

package relay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tradewatch/tradewatch/internal/bus"
	"github.com/tradewatch/tradewatch/internal/market"
)

func TestIntegration_RelayPublishes(t *testing.T) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r, err := New(natsURL, logger)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer r.Close()

	nc, err := nats.Connect(natsURL)
	if err != nil {
		t.Fatalf("failed to connect consumer: %v", err)
	}
	defer nc.Close()

	received := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(SubjectPrefix+".new_message", received)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()
	nc.Flush()

	b := bus.New(16)
	defer b.Close()
	busSub := b.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx, busSub)

	b.Publish(market.NewMessage{Message: market.Message{ID: 7, ChatID: "users-1-2", Text: "hi"}})

	select {
	case msg := <-received:
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if env.Kind != "new_message" {
			t.Errorf("expected kind new_message, got %q", env.Kind)
		}
		if env.ID == "" {
			t.Error("expected envelope id")
		}
		if env.At.IsZero() {
			t.Error("expected envelope timestamp")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("relayed event never arrived")
	}
}

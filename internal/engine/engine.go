// Package engine is the incremental reconciliation core: a single polling
// loop that turns raw marketplace snapshots into an ordered stream of domain
// events. All mutable state (chat/order baselines, message cursors,
// continuation tags) is owned exclusively by the running loop; the only
// suspension points are gateway calls and the end-of-cycle sleep, so one
// cycle's diff-and-emit sequence is atomic with respect to the next.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/tradewatch/tradewatch/internal/bus"
	"github.com/tradewatch/tradewatch/internal/cursor"
	"github.com/tradewatch/tradewatch/internal/extract"
	"github.com/tradewatch/tradewatch/internal/market"
	"github.com/tradewatch/tradewatch/internal/session"
	"github.com/tradewatch/tradewatch/internal/transport"
)

// Config holds the loop timing knobs.
type Config struct {
	PollInterval    time.Duration // sleep between successful cycles
	ErrorRetryDelay time.Duration // sleep after a transient multiplex failure
}

// chatMark is the per-chat baseline: the last seen message cursors and
// preview text. Unseen chats default to -1/-1/empty.
type chatMark struct {
	nodeMsgID int64
	userMsgID int64
	preview   string
}

// Engine drives the reconciliation loop. Construct with New, then call Run
// once; the engine is not reusable after Run returns.
type Engine struct {
	gw     transport.Gateway
	sess   *session.Session
	store  cursor.Store
	bus    *bus.Bus
	logger *slog.Logger

	pollInterval    time.Duration
	errorRetryDelay time.Duration

	// Continuation tags echoed with the multiplex endpoint. Correlation
	// metadata only: diffing never depends on their values.
	chatTag  string
	orderTag string

	chats   map[market.ChatID]chatMark
	orders  map[market.OrderID]market.OrderSummary
	cursors map[market.ChatID]int64

	cycles    atomic.Int64
	published atomic.Int64
	lastCycle atomic.Int64
	numChats  atomic.Int64
	numOrders atomic.Int64
}

func New(gw transport.Gateway, sess *session.Session, store cursor.Store, b *bus.Bus, cfg Config, logger *slog.Logger) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1500 * time.Millisecond
	}
	if cfg.ErrorRetryDelay <= 0 {
		cfg.ErrorRetryDelay = 5 * time.Second
	}
	return &Engine{
		gw:              gw,
		sess:            sess,
		store:           store,
		bus:             b,
		logger:          logger,
		pollInterval:    cfg.PollInterval,
		errorRetryDelay: cfg.ErrorRetryDelay,
		chatTag:         randomTag(),
		orderTag:        randomTag(),
		chats:           map[market.ChatID]chatMark{},
		orders:          map[market.OrderID]market.OrderSummary{},
		cursors:         map[market.ChatID]int64{},
	}
}

// Stats is a point-in-time snapshot of loop progress for the ops API.
type Stats struct {
	Cycles          int64     `json:"cycles"`
	EventsPublished int64     `json:"events_published"`
	TrackedChats    int64     `json:"tracked_chats"`
	TrackedOrders   int64     `json:"tracked_orders"`
	LastCycleAt     time.Time `json:"last_cycle_at"`
}

func (e *Engine) Stats() Stats {
	var last time.Time
	if n := e.lastCycle.Load(); n > 0 {
		last = time.Unix(0, n).UTC()
	}
	return Stats{
		Cycles:          e.cycles.Load(),
		EventsPublished: e.published.Load(),
		TrackedChats:    e.numChats.Load(),
		TrackedOrders:   e.numOrders.Load(),
		LastCycleAt:     last,
	}
}

// Run executes the polling loop until ctx is cancelled or authorization is
// lost. Transient multiplex failures are retried indefinitely; sub-phase
// failures (history fetch, order fetch, cursor save) only skip their phase
// for the current cycle.
func (e *Engine) Run(ctx context.Context) error {
	loaded, err := e.store.Load(ctx)
	if err != nil {
		e.logger.Error("failed to load message cursors", "error", err)
	} else {
		e.cursors = loaded
	}
	e.logger.Info("starting polling loop",
		"user", e.sess.Username,
		"poll_interval", e.pollInterval,
		"known_cursors", len(e.cursors),
	)

	first := true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := e.gw.PostMultiplex(ctx, e.sess.CSRFToken, []transport.MultiplexObject{
			{Type: "orders_counters", ID: e.sess.UserID, Tag: e.orderTag, Data: false},
			{Type: "chat_bookmarks", ID: e.sess.UserID, Tag: e.chatTag, Data: false},
		}, nil)
		if err != nil {
			if errors.Is(err, transport.ErrUnauthorized) {
				return fmt.Errorf("multiplex fetch: %w", err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Error("multiplex fetch failed", "error", err, "retry_in", e.errorRetryDelay)
			if err := e.sleep(ctx, e.errorRetryDelay); err != nil {
				return err
			}
			continue
		}

		events, changed := e.diffChats(resp, first)
		for _, ev := range events {
			e.publish(ev)
		}

		dirty := false
		if len(changed) > 0 {
			histories, err := e.fetchHistories(ctx, changed)
			if err != nil {
				e.logger.Error("failed to fetch chat histories", "error", err)
			} else {
				dirty = e.deliverMessages(changed, histories, first)
			}
		}

		if dirty {
			if err := e.store.Save(ctx, e.cursors); err != nil {
				e.logger.Error("failed to persist message cursors", "error", err)
			}
		}

		e.refreshOrders(ctx)

		first = false
		e.cycles.Add(1)
		e.numChats.Store(int64(len(e.chats)))
		e.numOrders.Store(int64(len(e.orders)))
		e.lastCycle.Store(time.Now().UnixNano())
		if err := e.sleep(ctx, e.pollInterval); err != nil {
			return err
		}
	}
}

// diffChats consumes the multiplex response: updates continuation tags,
// diffs chat summaries against the baseline and collects the chats whose
// node message advanced. On the first cycle every chat yields InitialChat and
// only chats with at least one message become history-fetch candidates.
func (e *Engine) diffChats(resp *transport.MultiplexResponse, first bool) ([]market.Event, []market.ChatSummary) {
	var events []market.Event
	var changed []market.ChatSummary

	for _, obj := range resp.Objects {
		switch obj.Type {
		case "chat_bookmarks":
			e.chatTag = obj.Tag
			html := extract.BookmarksHTML(obj.Data)
			if html == "" {
				continue
			}
			chats := extract.ParseChatBookmarks(html)
			if first {
				for _, ch := range chats {
					events = append(events, market.InitialChat{Chat: ch})
					if ch.NodeMessageID > 0 {
						changed = append(changed, ch)
					}
					e.chats[ch.ID] = chatMark{ch.NodeMessageID, ch.UserMessageID, ch.Preview}
				}
				continue
			}
			if len(chats) > 0 {
				events = append(events, market.ChatsListChanged{})
			}
			for _, ch := range chats {
				prev, ok := e.chats[ch.ID]
				if !ok {
					prev = chatMark{nodeMsgID: -1, userMsgID: -1}
				}
				if ch.NodeMessageID > prev.nodeMsgID {
					events = append(events, market.LastChatMessageChanged{Chat: ch})
					changed = append(changed, ch)
				}
				e.chats[ch.ID] = chatMark{ch.NodeMessageID, ch.UserMessageID, ch.Preview}
			}

		case "orders_counters":
			e.orderTag = obj.Tag
			purchases, sales := extract.ParseOrderCounters(obj.Data)
			events = append(events, market.OrdersListChanged{Purchases: purchases, Sales: sales})
		}
	}
	return events, changed
}

type chatNodeQuery struct {
	Node        string `json:"node"`
	LastMessage int64  `json:"last_message"`
	Content     string `json:"content"`
}

// fetchHistories asks for the full message history of every changed chat in
// one combined multiplex call.
func (e *Engine) fetchHistories(ctx context.Context, changed []market.ChatSummary) (map[market.ChatID][]market.Message, error) {
	objects := make([]transport.MultiplexObject, 0, len(changed))
	for _, ch := range changed {
		objects = append(objects, transport.MultiplexObject{
			Type: "chat_node",
			ID:   string(ch.ID),
			Tag:  "00000000",
			Data: chatNodeQuery{Node: string(ch.ID), LastMessage: -1},
		})
	}

	resp, err := e.gw.PostMultiplex(ctx, e.sess.CSRFToken, objects, nil)
	if err != nil {
		return nil, err
	}

	names := make(map[market.ChatID]string, len(changed))
	for _, ch := range changed {
		names[ch.ID] = ch.Name
	}

	out := make(map[market.ChatID][]market.Message, len(changed))
	for _, obj := range resp.Objects {
		if obj.Type != "chat_node" {
			continue
		}
		chatID := market.ChatID(obj.ID.String())
		out[chatID] = extract.ParseChatHistory(obj.Data, chatID, names[chatID])
	}
	return out, nil
}

// deliverMessages filters each history through the persisted cursor, advances
// the cursor for everything retrieved, and emits NewMessage for the survivors
// in ascending ID order. On the first cycle the cursor still advances but
// delivery is suppressed so startup never replays full chat history as new.
// Returns whether any cursor value changed.
func (e *Engine) deliverMessages(changed []market.ChatSummary, histories map[market.ChatID][]market.Message, first bool) bool {
	dirty := false
	for _, ch := range changed {
		msgs := histories[ch.ID]
		if last, ok := e.cursors[ch.ID]; ok {
			fresh := msgs[:0:0]
			for _, m := range msgs {
				if m.ID > last {
					fresh = append(fresh, m)
				}
			}
			msgs = fresh
		}

		maxID := int64(0)
		for _, m := range msgs {
			if m.ID > maxID {
				maxID = m.ID
			}
		}
		if maxID > 0 {
			if prev, ok := e.cursors[ch.ID]; !ok || prev != maxID {
				e.cursors[ch.ID] = maxID
				dirty = true
			}
		}

		if first {
			continue
		}
		for _, m := range msgs {
			e.publish(market.NewMessage{Message: m})
		}
	}
	return dirty
}

// refreshOrders fetches the trade page, diffs the order snapshots against the
// baseline and replaces the baseline wholesale. Any failure skips the phase
// for this cycle; the baseline keeps its previous value.
func (e *Engine) refreshOrders(ctx context.Context) {
	body, err := e.gw.GetOrdersPage(ctx)
	if err != nil {
		e.logger.Error("failed to fetch orders page", "error", err)
		return
	}
	list, err := extract.ParseOrdersList(body, e.sess.UserID)
	if err != nil {
		e.logger.Error("failed to parse orders page", "error", err)
		return
	}

	newMap := make(map[market.OrderID]market.OrderSummary, len(list))
	for _, o := range list {
		newMap[o.ID] = o
	}

	if len(e.orders) == 0 {
		for _, o := range list {
			e.publish(market.InitialOrder{Order: o})
		}
	} else {
		for _, o := range list {
			prev, ok := e.orders[o.ID]
			switch {
			case ok && prev.Status != o.Status:
				e.publish(market.OrderStatusChanged{Order: o})
			case !ok:
				e.publish(market.NewOrder{Order: o})
				// An order first seen already closed surfaces both its
				// creation and its terminal transition in the same cycle.
				if o.Status == market.StatusClosed {
					e.publish(market.OrderStatusChanged{Order: o})
				}
			}
		}
	}
	// Orders gone from the page are dropped silently; absence is not a signal.
	e.orders = newMap
}

func (e *Engine) publish(ev market.Event) {
	e.bus.Publish(ev)
	e.published.Add(1)
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

const tagAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// randomTag seeds a continuation tag; the server replaces it on the first
// response.
func randomTag() string {
	b := make([]byte, 10)
	for i := range b {
		b[i] = tagAlphabet[rand.Intn(len(tagAlphabet))]
	}
	return string(b)
}

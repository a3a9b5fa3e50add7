package market

// Event is the closed set of domain events the reconciliation engine emits.
// Events are immutable value records; they are never retried or acknowledged.
type Event interface {
	// Kind returns a stable lowercase name for the event variant, used for
	// log fields and relay subjects.
	Kind() string
}

// InitialChat is emitted once per chat seen on the engine's first cycle.
type InitialChat struct {
	Chat ChatSummary
}

// ChatsListChanged signals that the bookmarks subscription returned a fresh
// snapshot on a non-first cycle. It carries no payload; consumers re-query.
type ChatsListChanged struct{}

// LastChatMessageChanged is emitted when a chat's node message ID advanced
// past the engine's baseline.
type LastChatMessageChanged struct {
	Chat ChatSummary
}

// NewMessage is emitted for every history message that survived the persisted
// cursor filter, in ascending message ID order.
type NewMessage struct {
	Message Message
}

// InitialOrder is emitted once per order present while the order baseline is
// still empty.
type InitialOrder struct {
	Order OrderSummary
}

// OrdersListChanged carries the buyer/seller pending counters from the
// multiplex response.
type OrdersListChanged struct {
	Purchases int
	Sales     int
}

// NewOrder is emitted when an order appears that the baseline has never seen.
type NewOrder struct {
	Order OrderSummary
}

// OrderStatusChanged is emitted when a known order's status differs from the
// baseline, and additionally right after NewOrder when an order first appears
// already closed.
type OrderStatusChanged struct {
	Order OrderSummary
}

func (InitialChat) Kind() string            { return "initial_chat" }
func (ChatsListChanged) Kind() string       { return "chats_list_changed" }
func (LastChatMessageChanged) Kind() string { return "last_chat_message_changed" }
func (NewMessage) Kind() string             { return "new_message" }
func (InitialOrder) Kind() string           { return "initial_order" }
func (OrdersListChanged) Kind() string      { return "orders_list_changed" }
func (NewOrder) Kind() string               { return "new_order" }
func (OrderStatusChanged) Kind() string     { return "order_status_changed" }

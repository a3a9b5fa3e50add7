package market

import "fmt"

// Nominal identifier types. Chats, orders and lots all use string-like IDs on
// the wire; keeping them distinct prevents cross-assignment in diff code.

// ChatID identifies a conversation node. Bookmark chats carry a numeric ID,
// order chats use the "users-<a>-<b>" form.
type ChatID string

// OrderID is the marketplace order identifier (e.g. "A1B2C3D4", no '#' prefix).
type OrderID string

// LotID identifies a single offer within a catalog node.
type LotID string

// UserPairChatID derives the private-chat identifier for two users. The
// remote uses "users-<lower>-<higher>" regardless of who opened the chat.
func UserPairChatID(a, b int64) ChatID {
	if a > b {
		a, b = b, a
	}
	return ChatID(fmt.Sprintf("users-%d-%d", a, b))
}

func (id ChatID) String() string  { return string(id) }
func (id OrderID) String() string { return string(id) }
func (id LotID) String() string   { return string(id) }

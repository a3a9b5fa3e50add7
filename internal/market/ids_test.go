package market

import "testing"

func TestUserPairChatID(t *testing.T) {
	tests := []struct {
		a, b int64
		want ChatID
	}{
		{1, 630231, "users-1-630231"},
		{630231, 1, "users-1-630231"},
		{5, 5, "users-5-5"},
	}
	for _, tt := range tests {
		if got := UserPairChatID(tt.a, tt.b); got != tt.want {
			t.Errorf("UserPairChatID(%d, %d) = %s, expected %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEventKinds(t *testing.T) {
	tests := []struct {
		ev   Event
		kind string
	}{
		{InitialChat{}, "initial_chat"},
		{ChatsListChanged{}, "chats_list_changed"},
		{LastChatMessageChanged{}, "last_chat_message_changed"},
		{NewMessage{}, "new_message"},
		{InitialOrder{}, "initial_order"},
		{OrdersListChanged{}, "orders_list_changed"},
		{NewOrder{}, "new_order"},
		{OrderStatusChanged{}, "order_status_changed"},
	}
	for _, tt := range tests {
		if got := tt.ev.Kind(); got != tt.kind {
			t.Errorf("expected kind %s, got %s", tt.kind, got)
		}
	}
}

package extract

import (
	"encoding/json"
	"sort"

	"github.com/tradewatch/tradewatch/internal/market"
)

// BookmarksHTML pulls the chat-list HTML fragment out of a chat_bookmarks
// payload. Missing or malformed data yields an empty string.
func BookmarksHTML(raw json.RawMessage) string {
	var data struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return ""
	}
	return data.HTML
}

// ParseOrderCounters reads the buyer/seller pending counts from an
// orders_counters payload. Missing fields are zero.
func ParseOrderCounters(raw json.RawMessage) (purchases, sales int) {
	var data struct {
		Buyer  int `json:"buyer"`
		Seller int `json:"seller"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return 0, 0
	}
	return data.Buyer, data.Seller
}

// ParseChatHistory turns a chat_node payload into messages, ascending by ID.
// A nil or malformed payload yields an empty list.
func ParseChatHistory(raw json.RawMessage, chatID market.ChatID, chatName string) []market.Message {
	var data struct {
		Messages []struct {
			ID     int64  `json:"id"`
			Author int64  `json:"author"`
			HTML   string `json:"html"`
		} `json:"messages"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &data) != nil {
		return nil
	}

	out := make([]market.Message, 0, len(data.Messages))
	for _, m := range data.Messages {
		text, attachment := ParseMessageHTML(m.HTML)
		out = append(out, market.Message{
			ID:            m.ID,
			ChatID:        chatID,
			ChatName:      chatName,
			Text:          text,
			AttachmentURL: attachment,
			AuthorID:      m.Author,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

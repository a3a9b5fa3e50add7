// Package extract turns raw marketplace HTML and multiplex payloads into
// structured snapshots. Every function is a pure transform: no state, no I/O,
// and malformed fragments resolve to zero values rather than errors, so the
// engine's diff logic never special-cases parse failures.
package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tradewatch/tradewatch/internal/market"
)

// ParseChatBookmarks reads the chat summaries out of a bookmarks HTML
// fragment from the multiplex response.
func ParseChatBookmarks(html string) []market.ChatSummary {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []market.ChatSummary
	doc.Find("a.contact-item").Each(func(_ int, s *goquery.Selection) {
		id := strings.TrimSpace(s.AttrOr("data-id", ""))
		if id == "" {
			id = "0"
		}
		out = append(out, market.ChatSummary{
			ID:            market.ChatID(id),
			Name:          strings.TrimSpace(s.Find("div.media-user-name").First().Text()),
			Preview:       s.Find("div.contact-item-message").First().Text(),
			NodeMessageID: attrInt64(s, "data-node-msg"),
			UserMessageID: attrInt64(s, "data-user-msg"),
			Unread:        s.HasClass("unread"),
		})
	})
	return out
}

func attrInt64(s *goquery.Selection, attr string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s.AttrOr(attr, "0")), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseMessageHTML extracts the text or attachment link of one chat message
// fragment. System notices (role=alert) count as text. Exactly one of the two
// returns is non-empty for a well-formed fragment; both are empty otherwise.
func ParseMessageHTML(html string) (text, attachmentURL string) {
	// <br> separates lines inside the text node; goquery's Text() would drop it.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(strings.ReplaceAll(html, "<br>", "\n")))
	if err != nil {
		return "", ""
	}

	if n := doc.Find("div.chat-msg-text").First(); n.Length() > 0 {
		return n.Text(), ""
	}
	if n := doc.Find("div[role=alert]").First(); n.Length() > 0 {
		return n.Text(), ""
	}
	if n := doc.Find("a.chat-img-link").First(); n.Length() > 0 {
		return "", n.AttrOr("href", "")
	}
	return "", ""
}

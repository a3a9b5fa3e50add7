// Package session performs the one-time login bootstrap: it fetches the home
// page with the configured auth key and extracts the account identity, CSRF
// token and server-issued session cookie. The engine holds the result
// immutably for its whole run; there is no mid-loop refresh.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tradewatch/tradewatch/internal/market"
	"github.com/tradewatch/tradewatch/internal/transport"
)

var reNodeID = regexp.MustCompile(`/(?:chips|lots)/(\d+)/?`)

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// ErrParse marks a home page that did not carry the expected app data.
var ErrParse = errors.New("session: malformed login page")

// Session is the bootstrap result.
type Session struct {
	UserID        int64
	Username      string
	CSRFToken     string
	SessionCookie string
	Locale        string

	// Promoted category index from the home page, keyed by subcategory ID.
	Subcategories map[market.SubcategoryType]map[int64]market.Subcategory
}

// Bootstrap authenticates against the marketplace. It must be called exactly
// once before the engine starts. An anonymous page means the auth key is
// rejected and returns transport.ErrUnauthorized.
func Bootstrap(ctx context.Context, gw transport.Gateway) (*Session, error) {
	body, setCookies, err := gw.GetHome(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch home: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	username := strings.TrimSpace(doc.Find("div.user-link-name").First().Text())
	if username == "" {
		return nil, transport.ErrUnauthorized
	}

	appAttr, ok := doc.Find("body").First().Attr("data-app-data")
	if !ok {
		return nil, fmt.Errorf("%w: missing app data", ErrParse)
	}
	var app struct {
		UserID    int64  `json:"userId"`
		CSRFToken string `json:"csrf-token"`
		Locale    string `json:"locale"`
	}
	if err := json.Unmarshal([]byte(appAttr), &app); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if app.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrParse)
	}
	if app.CSRFToken == "" {
		return nil, fmt.Errorf("%w: missing csrf token", ErrParse)
	}

	return &Session{
		UserID:        app.UserID,
		Username:      username,
		CSRFToken:     app.CSRFToken,
		SessionCookie: ExtractSessionCookie(setCookies),
		Locale:        app.Locale,
		Subcategories: parseSubcategories(doc),
	}, nil
}

// ExtractSessionCookie finds the PHPSESSID value among Set-Cookie headers.
func ExtractSessionCookie(setCookies []string) string {
	for _, c := range setCookies {
		if _, tail, found := strings.Cut(c, "PHPSESSID="); found {
			if value, _, _ := strings.Cut(tail, ";"); value != "" {
				return value
			}
		}
	}
	return ""
}

func parseSubcategories(doc *goquery.Document) map[market.SubcategoryType]map[int64]market.Subcategory {
	out := make(map[market.SubcategoryType]map[int64]market.Subcategory)

	lists := doc.Find("div.promo-game-list")
	if lists.Length() == 0 {
		return out
	}
	// The page renders the list twice (desktop and mobile); take the second
	// when present.
	container := lists.First()
	if lists.Length() > 1 {
		container = lists.Eq(1)
	}

	container.Find("div.promo-game-item ul.list-inline li a").Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		if name == "" {
			return
		}
		href := a.AttrOr("href", "")
		typ := market.SubcategoryCommon
		if strings.Contains(href, "chips/") {
			typ = market.SubcategoryCurrency
		}
		m := reNodeID.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id, err := parseInt64(m[1])
		if err != nil {
			return
		}
		if out[typ] == nil {
			out[typ] = make(map[int64]market.Subcategory)
		}
		out[typ][id] = market.Subcategory{ID: id, Name: name}
	})
	return out
}

package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tradewatch/tradewatch/internal/market"
	"github.com/tradewatch/tradewatch/internal/transport"
)

var (
	reSubcatID = regexp.MustCompile(`/(?:chips|lots|market|goods|game|category|subcategory)/(\d+)/?`)
	reAmount   = regexp.MustCompile(`(?i)(\d+)\s*(шт|pcs|pieces|ед)\.?`)
	reCategory = regexp.MustCompile(`/(?:chips|lots)/(\d+)/?`)
	reUserID   = regexp.MustCompile(`/users/(\d+)/`)
	reChatID   = regexp.MustCompile(`/chat/(\d+)/`)
	reOrderSum = regexp.MustCompile(`([\d.,]+)\s*([A-Za-zА-Яа-я₽$€£¥₴]+)`)
)

// ParseOrdersList reads the seller's trade page into order summaries. myID is
// the session user; it pins the buyer-chat identifier. The only error is an
// anonymous page, meaning the session is gone.
func ParseOrdersList(html string, myID int64) ([]market.OrderSummary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	if doc.Find("div.user-link-name").Length() == 0 {
		return nil, transport.ErrUnauthorized
	}

	var out []market.OrderSummary
	doc.Find("a.tc-item").Each(func(_ int, row *goquery.Selection) {
		orderDiv := row.Find("div.tc-order").First()
		if orderDiv.Length() == 0 {
			return
		}
		id := strings.TrimPrefix(strings.TrimSpace(orderDiv.Text()), "#")

		// Row class encodes status: warning=refunded, info=paid, plain=closed.
		status := market.StatusClosed
		if row.HasClass("warning") {
			status = market.StatusRefunded
		} else if row.HasClass("info") {
			status = market.StatusPaid
		}

		description := strings.TrimSpace(row.Find("div.order-desc div").First().Text())

		priceText := strings.TrimSpace(strings.ReplaceAll(row.Find("div.tc-price").First().Text(), "\u00a0", " "))
		price, currency := splitPrice(priceText)

		buyerSpan := row.Find("div.media-user-name span").First()
		buyerName := strings.TrimSpace(buyerSpan.Text())
		buyerID := int64(0)
		if href, ok := buyerSpan.Attr("data-href"); ok {
			if _, tail, found := strings.Cut(href, "/users/"); found {
				if n, err := strconv.ParseInt(strings.TrimSuffix(tail, "/"), 10, 64); err == nil {
					buyerID = n
				}
			}
		}

		subName := strings.TrimSpace(row.Find("div.text-muted").First().Text())
		subID := int64(0)
		if href, ok := row.Find("div.text-muted a").First().Attr("href"); ok {
			if m := reSubcatID.FindStringSubmatch(href); m != nil {
				subID, _ = strconv.ParseInt(m[1], 10, 64)
			}
		}

		amount := 1
		if m := reAmount.FindStringSubmatch(description); m != nil {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[1], " ", "")); err == nil {
				amount = n
			}
		}

		out = append(out, market.OrderSummary{
			ID:            market.OrderID(id),
			Description:   description,
			Price:         price,
			Currency:      currency,
			BuyerUsername: buyerName,
			BuyerID:       buyerID,
			ChatID:        market.UserPairChatID(myID, buyerID),
			Status:        status,
			DateText:      strings.TrimSpace(row.Find("div.tc-date-time").First().Text()),
			Subcategory:   market.Subcategory{ID: subID, Name: subName},
			Amount:        amount,
		})
	})
	return out, nil
}

// splitPrice separates "1 200.50 ₽" into value and currency.
func splitPrice(s string) (float64, string) {
	i := strings.LastIndex(s, " ")
	if i < 0 {
		return 0, ""
	}
	value := strings.ReplaceAll(s[:i], " ", "")
	price, err := strconv.ParseFloat(value, 64)
	if err != nil {
		price = 0
	}
	return price, s[i+1:]
}

// ParseOrderSecrets collects the paid-product secret values from an order
// page document.
func ParseOrderSecrets(doc *goquery.Document) []string {
	var secrets []string
	doc.Find("div.param-item").Each(func(_ int, p *goquery.Selection) {
		header := strings.TrimSpace(p.Find("h5").First().Text())
		if !matchesAny(header, paidProductTerms) {
			return
		}
		p.Find("span.secret-placeholder").Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				secrets = append(secrets, t)
			}
		})
	})
	return secrets
}

// ParseOrderPage reads the full order detail page. The only error is an
// anonymous page.
func ParseOrderPage(html string, orderID market.OrderID) (market.Order, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return market.Order{}, err
	}
	if doc.Find("div.user-link-name").Length() == 0 {
		return market.Order{}, transport.ErrUnauthorized
	}

	order := market.Order{ID: orderID, Status: market.StatusPaid, Currency: "RUB", ChatID: market.ChatID("0")}

	if t := strings.TrimSpace(doc.Find("span.text-warning").First().Text()); matchesAny(t, refundTerms) {
		order.Status = market.StatusRefunded
	} else if t := strings.TrimSpace(doc.Find("span.text-success").First().Text()); matchesAny(t, closedTerms) {
		order.Status = market.StatusClosed
	}

	doc.Find("div.param-item").Each(func(_ int, p *goquery.Selection) {
		header := strings.TrimSpace(p.Find("h5").First().Text())
		content := strings.TrimSpace(p.Find("div").First().Text())
		switch {
		case matchesAny(header, shortDescriptionTerms):
			order.ShortDescription = content
		case matchesAny(header, fullDescriptionTerms):
			order.FullDescription = content
		case matchesAny(header, categoryTerms):
			link := p.Find("a").First()
			if href, ok := link.Attr("href"); ok {
				if m := reCategory.FindStringSubmatch(href); m != nil {
					id, _ := strconv.ParseInt(m[1], 10, 64)
					order.Subcategory = market.Subcategory{ID: id, Name: strings.TrimSpace(link.Text())}
				}
			}
		case matchesAny(header, amountTerms):
			if n, err := strconv.Atoi(content); err == nil {
				order.Amount = n
			}
		case matchesAny(header, paidProductTerms):
			// handled by ParseOrderSecrets
		default:
			if content != "" {
				order.LotParams = append(order.LotParams, market.LotParam{Name: header, Value: content})
			}
		}
	})

	order.Secrets = ParseOrderSecrets(doc)

	buyerLink := doc.Find(".order-buyer a").First()
	if buyerLink.Length() > 0 {
		order.BuyerUsername = strings.TrimSpace(buyerLink.Text())
		if href, ok := buyerLink.Attr("href"); ok {
			if m := reUserID.FindStringSubmatch(href); m != nil {
				order.BuyerID, _ = strconv.ParseInt(m[1], 10, 64)
			}
		}
	}

	if sumText := doc.Find(".order-sum").First().Text(); sumText != "" {
		if m := reOrderSum.FindStringSubmatch(sumText); m != nil {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
				order.Sum = v
			}
			if m[2] != "" {
				order.Currency = m[2]
			}
		}
	}

	doc.Find("a[href*='/chat/']").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if href, ok := a.Attr("href"); ok {
			if m := reChatID.FindStringSubmatch(href); m != nil {
				order.ChatID = market.ChatID(m[1])
				return false
			}
		}
		return true
	})

	if r := doc.Find(".review-item").First(); r.Length() > 0 {
		order.Review = &market.Review{
			Stars:   r.Find(".rating-mini .fas.fa-star").Length(),
			Text:    strings.TrimSpace(r.Find(".review-text").First().Text()),
			OrderID: orderID,
		}
	}

	return order, nil
}

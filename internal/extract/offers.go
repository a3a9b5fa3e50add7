package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tradewatch/tradewatch/internal/market"
)

var (
	reOfferID     = regexp.MustCompile(`[?&]id=(\d+)`)
	reSellerID    = regexp.MustCompile(`/users/(\d+)/?`)
	reFirstNumber = regexp.MustCompile(`(\d+)`)
	reStarRating  = regexp.MustCompile(`rating-(\d+(?:\.\d+)?)`)
)

// ParseMyOffers reads the seller's own offers from a node trade page.
func ParseMyOffers(html string, nodeID int64) []market.Offer {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var offers []market.Offer
	doc.Find("a.tc-item[data-offer]").Each(func(_ int, item *goquery.Selection) {
		offerID := strings.TrimSpace(item.AttrOr("data-offer", ""))
		if offerID == "" || offerID == "0" {
			return
		}
		priceEl := item.Find("div.tc-price").First()
		price, _ := strconv.ParseFloat(priceEl.AttrOr("data-s", ""), 64)
		currency := trimText(priceEl.Find("span.unit").First())
		if currency == "" {
			currency = "₽"
		}
		offers = append(offers, market.Offer{
			ID:          market.LotID(offerID),
			NodeID:      nodeID,
			Description: trimText(item.Find("div.tc-desc-text").First()),
			Price:       price,
			Currency:    currency,
			Active:      !item.HasClass("warning"),
		})
	})
	return offers
}

// ParseMarketOffers reads a public catalog page into offers with seller info.
func ParseMarketOffers(html string, nodeID int64) []market.MarketOffer {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var offers []market.MarketOffer
	doc.Find("a.tc-item").Each(func(_ int, item *goquery.Selection) {
		m := reOfferID.FindStringSubmatch(item.AttrOr("href", ""))
		if m == nil {
			return
		}
		priceEl := item.Find("div.tc-price").First()
		price, _ := strconv.ParseFloat(priceEl.AttrOr("data-s", ""), 64)
		currency := trimText(priceEl.Find("span.unit").First())
		if currency == "" {
			currency = "₽"
		}

		sellerEl := item.Find("span.pseudo-a[data-href]").First()
		sellerID := int64(0)
		if sm := reSellerID.FindStringSubmatch(sellerEl.AttrOr("data-href", "")); sm != nil {
			sellerID, _ = strconv.ParseInt(sm[1], 10, 64)
		}

		reviewsEl := item.Find("div.media-user-reviews").First()
		reviews := 0
		if count := trimText(reviewsEl.Find("span.rating-mini-count").First()); count != "" {
			reviews, _ = strconv.Atoi(count)
		} else if rm := reFirstNumber.FindStringSubmatch(reviewsEl.Text()); rm != nil {
			reviews, _ = strconv.Atoi(rm[1])
		}

		rating := 0.0
		if class, ok := reviewsEl.Find("div.rating-stars").First().Attr("class"); ok {
			if rm := reStarRating.FindStringSubmatch(class); rm != nil {
				rating, _ = strconv.ParseFloat(rm[1], 64)
			}
		}

		offers = append(offers, market.MarketOffer{
			ID:            market.LotID(m[1]),
			NodeID:        nodeID,
			Description:   trimText(item.Find("div.tc-desc-text").First()),
			Price:         price,
			Currency:      currency,
			SellerID:      sellerID,
			SellerName:    trimText(sellerEl),
			SellerOnline:  item.AttrOr("data-online", "") == "1",
			SellerRating:  rating,
			SellerReviews: reviews,
			Promo:         item.HasClass("offer-promo"),
		})
	})
	return offers
}

// ParseOfferEditParams reads the currently saved offer fields from the edit
// page form, for merging with a caller's partial edit.
func ParseOfferEditParams(html string) market.OfferEditParams {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return market.OfferEditParams{}
	}
	deactivate := checkboxValue(doc, "deactivate_after_sale")
	active := checkboxValue(doc, "active")
	return market.OfferEditParams{
		Quantity:            fieldValue(doc, "fields[quantity]"),
		Quantity2:           fieldValue(doc, "fields[quantity2]"),
		Method:              fieldValue(doc, "fields[method]"),
		OfferType:           fieldValue(doc, "fields[type]"),
		ServerID:            fieldValue(doc, "server_id"),
		DescRU:              textareaValue(doc, "fields[desc][ru]"),
		DescEN:              textareaValue(doc, "fields[desc][en]"),
		PaymentMsgRU:        textareaValue(doc, "fields[payment_msg][ru]"),
		PaymentMsgEN:        textareaValue(doc, "fields[payment_msg][en]"),
		SummaryRU:           inputValue(doc, "fields[summary][ru]"),
		SummaryEN:           inputValue(doc, "fields[summary][en]"),
		Game:                fieldValue(doc, "fields[game]"),
		Images:              inputValue(doc, "fields[images]"),
		Price:               inputValue(doc, "price"),
		Location:            inputValue(doc, "location"),
		DeactivateAfterSale: &deactivate,
		Active:              &active,
	}
}

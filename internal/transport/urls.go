package transport

import "fmt"

// DefaultBaseURL is the production marketplace origin.
const DefaultBaseURL = "https://funpay.com"

// URLBuilder assembles marketplace routes from a configurable origin.
type URLBuilder struct {
	base string
}

func NewURLBuilder(base string) *URLBuilder {
	if base == "" {
		base = DefaultBaseURL
	}
	return &URLBuilder{base: base}
}

func (u *URLBuilder) Base() string { return u.base }

func (u *URLBuilder) Home() string { return u.base + "/" }

func (u *URLBuilder) Runner() string { return u.base + "/runner/" }

func (u *URLBuilder) OrdersTrade() string { return u.base + "/orders/trade" }

func (u *URLBuilder) OrderPage(orderID string) string {
	return fmt.Sprintf("%s/orders/%s/", u.base, orderID)
}

func (u *URLBuilder) ChatPage(chatID string) string {
	return fmt.Sprintf("%s/chat/?node=%s", u.base, chatID)
}

func (u *URLBuilder) OfferEdit(nodeID, offerID int64) string {
	return fmt.Sprintf("%s/lots/offerEdit?node=%d&offer=%d", u.base, nodeID, offerID)
}

func (u *URLBuilder) OfferSave() string { return u.base + "/lots/offerSave" }

func (u *URLBuilder) MyLots(nodeID int64) string {
	return fmt.Sprintf("%s/lots/%d/trade", u.base, nodeID)
}

func (u *URLBuilder) Catalog(nodeID int64) string {
	return fmt.Sprintf("%s/lots/%d/", u.base, nodeID)
}

package market

// OrderStatus is the lifecycle state of an order as shown on the trade page.
type OrderStatus string

const (
	StatusPaid     OrderStatus = "paid"
	StatusClosed   OrderStatus = "closed"
	StatusRefunded OrderStatus = "refunded"
)

// ChatSummary is one entry of the chat bookmarks list: the cheap per-chat
// record used to decide whether a full history fetch is worth doing.
type ChatSummary struct {
	ID            ChatID
	Name          string
	Preview       string
	NodeMessageID int64
	UserMessageID int64
	Unread        bool
}

// Message is a single chat message from a chat node history.
type Message struct {
	ID            int64
	ChatID        ChatID
	ChatName      string
	Text          string
	AttachmentURL string
	AuthorID      int64
}

// Subcategory is a catalog subcategory reference; ID is zero when the page
// carried no parseable link.
type Subcategory struct {
	ID   int64
	Name string
}

// OrderSummary is one row of the seller's trade page.
type OrderSummary struct {
	ID            OrderID
	Description   string
	Price         float64
	Currency      string
	BuyerUsername string
	BuyerID       int64
	ChatID        ChatID
	Status        OrderStatus
	DateText      string
	Subcategory   Subcategory
	Amount        int
}

// Order is the full order page detail.
type Order struct {
	ID               OrderID
	Status           OrderStatus
	LotParams        []LotParam
	ShortDescription string
	FullDescription  string
	Subcategory      Subcategory
	Amount           int
	Sum              float64
	Currency         string
	BuyerID          int64
	BuyerUsername    string
	ChatID           ChatID
	Review           *Review
	Secrets          []string
}

// LotParam is a named lot parameter from the order page.
type LotParam struct {
	Name  string
	Value string
}

// Review is a buyer review attached to an order.
type Review struct {
	Stars   int
	Text    string
	OrderID OrderID
}

// Offer is one of the seller's own offers on a node trade page.
type Offer struct {
	ID          LotID
	NodeID      int64
	Description string
	Price       float64
	Currency    string
	Active      bool
}

// MarketOffer is a public catalog offer with seller information.
type MarketOffer struct {
	ID            LotID
	NodeID        int64
	Description   string
	Price         float64
	Currency      string
	SellerID      int64
	SellerName    string
	SellerOnline  bool
	SellerRating  float64
	SellerReviews int
	Promo         bool
}

// OfferEditParams carries the editable fields of an offer. Empty strings mean
// "leave as is" when merged over the currently saved values.
type OfferEditParams struct {
	Quantity            string
	Quantity2           string
	Method              string
	OfferType           string
	ServerID            string
	DescRU              string
	DescEN              string
	PaymentMsgRU        string
	PaymentMsgEN        string
	SummaryRU           string
	SummaryEN           string
	Game                string
	Images              string
	Price               string
	Location            string
	DeactivateAfterSale *bool
	Active              *bool
	Deleted             *bool
}

// Merge overlays non-empty fields of other on top of p and returns the result.
func (p OfferEditParams) Merge(other OfferEditParams) OfferEditParams {
	pick := func(base, over string) string {
		if over != "" {
			return over
		}
		return base
	}
	pickBool := func(base, over *bool) *bool {
		if over != nil {
			return over
		}
		return base
	}
	return OfferEditParams{
		Quantity:            pick(p.Quantity, other.Quantity),
		Quantity2:           pick(p.Quantity2, other.Quantity2),
		Method:              pick(p.Method, other.Method),
		OfferType:           pick(p.OfferType, other.OfferType),
		ServerID:            pick(p.ServerID, other.ServerID),
		DescRU:              pick(p.DescRU, other.DescRU),
		DescEN:              pick(p.DescEN, other.DescEN),
		PaymentMsgRU:        pick(p.PaymentMsgRU, other.PaymentMsgRU),
		PaymentMsgEN:        pick(p.PaymentMsgEN, other.PaymentMsgEN),
		SummaryRU:           pick(p.SummaryRU, other.SummaryRU),
		SummaryEN:           pick(p.SummaryEN, other.SummaryEN),
		Game:                pick(p.Game, other.Game),
		Images:              pick(p.Images, other.Images),
		Price:               pick(p.Price, other.Price),
		Location:            pick(p.Location, other.Location),
		DeactivateAfterSale: pickBool(p.DeactivateAfterSale, other.DeactivateAfterSale),
		Active:              pickBool(p.Active, other.Active),
		Deleted:             pickBool(p.Deleted, other.Deleted),
	}
}

// SubcategoryType distinguishes regular lot categories from currency markets.
type SubcategoryType string

const (
	SubcategoryCommon   SubcategoryType = "common"
	SubcategoryCurrency SubcategoryType = "currency"
)

// CategorySubcategory is one pill of a category page subcategory list.
type CategorySubcategory struct {
	ID         int64
	Name       string
	OfferCount int
	Type       SubcategoryType
	Active     bool
}

// CategoryFilterType enumerates the filter widget kinds on a catalog page.
type CategoryFilterType string

const (
	FilterSelect   CategoryFilterType = "select"
	FilterRadio    CategoryFilterType = "radio"
	FilterRange    CategoryFilterType = "range"
	FilterCheckbox CategoryFilterType = "checkbox"
)

// CategoryFilter is one search filter offered by a catalog page.
type CategoryFilter struct {
	ID      string
	Name    string
	Type    CategoryFilterType
	Options []CategoryFilterOption
}

// CategoryFilterOption is a selectable value of a CategoryFilter.
type CategoryFilterOption struct {
	Value string
	Label string
}

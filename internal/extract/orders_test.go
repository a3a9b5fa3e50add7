package extract

import (
	"errors"
	"testing"

	"github.com/tradewatch/tradewatch/internal/market"
	"github.com/tradewatch/tradewatch/internal/transport"
)

const tradePage = `<html><body>
<div class="user-link-name">seller</div>
<a class="tc-item info" href="#">
	<div class="tc-date-time">today, 14:02</div>
	<div class="tc-order">#A1B2C3D4</div>
	<div class="order-desc">
		<div>Gold, 500 шт.</div>
		<div class="text-muted"><a href="/chips/125/">World of Warcraft</a></div>
	</div>
	<div class="media-user-name"><span data-href="https://funpay.com/users/630231/">buyer1</span></div>
	<div class="tc-price">1` + " " + `200.50` + " " + `₽</div>
</a>
<a class="tc-item warning" href="#">
	<div class="tc-order">#ZZ99</div>
	<div class="order-desc"><div>Account</div></div>
	<div class="media-user-name"><span data-href="https://funpay.com/users/12/">buyer2</span></div>
	<div class="tc-price">50 $</div>
</a>
<a class="tc-item" href="#">
	<div class="tc-order">#QQ11</div>
	<div class="order-desc"><div>Boost</div></div>
	<div class="media-user-name"><span>deleted</span></div>
	<div class="tc-price">10 €</div>
</a>
</body></html>`

func TestParseOrdersList(t *testing.T) {
	orders, err := ParseOrdersList(tradePage, 1)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}

	first := orders[0]
	if first.ID != market.OrderID("A1B2C3D4") {
		t.Errorf("expected id A1B2C3D4, got %s", first.ID)
	}
	if first.Status != market.StatusPaid {
		t.Errorf("info row must map to paid, got %s", first.Status)
	}
	if first.Price != 1200.50 || first.Currency != "₽" {
		t.Errorf("expected 1200.50 ₽, got %v %s", first.Price, first.Currency)
	}
	if first.BuyerID != 630231 || first.BuyerUsername != "buyer1" {
		t.Errorf("expected buyer1/630231, got %s/%d", first.BuyerUsername, first.BuyerID)
	}
	if first.ChatID != market.ChatID("users-1-630231") {
		t.Errorf("expected chat users-1-630231, got %s", first.ChatID)
	}
	if first.Amount != 500 {
		t.Errorf("expected amount 500, got %d", first.Amount)
	}
	if first.Subcategory.ID != 125 {
		t.Errorf("expected subcategory 125, got %d", first.Subcategory.ID)
	}

	if orders[1].Status != market.StatusRefunded {
		t.Errorf("warning row must map to refunded, got %s", orders[1].Status)
	}
	if orders[2].Status != market.StatusClosed {
		t.Errorf("plain row must map to closed, got %s", orders[2].Status)
	}
	if orders[2].BuyerID != 0 {
		t.Errorf("buyer without profile link must have id 0, got %d", orders[2].BuyerID)
	}
	if orders[2].Amount != 1 {
		t.Errorf("amount defaults to 1, got %d", orders[2].Amount)
	}
}

func TestParseOrdersList_AnonymousPage(t *testing.T) {
	_, err := ParseOrdersList(`<html><body><form id="login"></form></body></html>`, 1)
	if !errors.Is(err, transport.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSplitPrice(t *testing.T) {
	tests := []struct {
		in       string
		price    float64
		currency string
	}{
		{"1200.50 ₽", 1200.50, "₽"},
		{"1 200.50 ₽", 1200.50, "₽"},
		{"50 $", 50, "$"},
		{"", 0, ""},
		{"garbage", 0, ""},
	}
	for _, tt := range tests {
		price, currency := splitPrice(tt.in)
		if price != tt.price || currency != tt.currency {
			t.Errorf("splitPrice(%q) = %v %q, expected %v %q", tt.in, price, currency, tt.price, tt.currency)
		}
	}
}

func TestParseOrderPage(t *testing.T) {
	page := `<html><body>
	<div class="user-link-name">seller</div>
	<span class="text-success">Closed</span>
	<div class="param-item"><h5>Short description</h5><div>Gold delivery</div></div>
	<div class="param-item"><h5>Category</h5><div><a href="/lots/210/">Gold</a></div></div>
	<div class="param-item"><h5>Amount</h5><div>3</div></div>
	<div class="param-item"><h5>Server</h5><div>EU-West</div></div>
	<div class="param-item"><h5>Paid product</h5><div><span class="secret-placeholder">key-1</span></div></div>
	<div class="order-buyer"><a href="/users/99/">buyer9</a></div>
	<div class="order-sum">360.00 ₽</div>
	<a href="https://funpay.com/chat/555/">chat</a>
	<div class="review-item">
		<div class="rating-mini"><i class="fas fa-star"></i><i class="fas fa-star"></i></div>
		<div class="review-text">great seller</div>
	</div>
	</body></html>`

	order, err := ParseOrderPage(page, market.OrderID("A1"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if order.Status != market.StatusClosed {
		t.Errorf("expected closed, got %s", order.Status)
	}
	if order.ShortDescription != "Gold delivery" {
		t.Errorf("expected short description, got %q", order.ShortDescription)
	}
	if order.Subcategory.ID != 210 || order.Subcategory.Name != "Gold" {
		t.Errorf("expected subcategory 210/Gold, got %d/%s", order.Subcategory.ID, order.Subcategory.Name)
	}
	if order.Amount != 3 {
		t.Errorf("expected amount 3, got %d", order.Amount)
	}
	if len(order.LotParams) != 1 || order.LotParams[0].Name != "Server" || order.LotParams[0].Value != "EU-West" {
		t.Errorf("expected lot param Server=EU-West, got %v", order.LotParams)
	}
	if len(order.Secrets) != 1 || order.Secrets[0] != "key-1" {
		t.Errorf("expected secret key-1, got %v", order.Secrets)
	}
	if order.BuyerID != 99 || order.BuyerUsername != "buyer9" {
		t.Errorf("expected buyer9/99, got %s/%d", order.BuyerUsername, order.BuyerID)
	}
	if order.Sum != 360 || order.Currency != "₽" {
		t.Errorf("expected 360 ₽, got %v %s", order.Sum, order.Currency)
	}
	if order.ChatID != market.ChatID("555") {
		t.Errorf("expected chat 555, got %s", order.ChatID)
	}
	if order.Review == nil || order.Review.Stars != 2 || order.Review.Text != "great seller" {
		t.Errorf("expected 2-star review, got %+v", order.Review)
	}
}

// Package account layers the one-shot marketplace operations over the
// gateway: sending chat messages, reading order details and browsing offers.
// It shares the bootstrap session with the engine but holds no reconciliation
// state, so it is safe to use concurrently with a running engine.
package account

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tradewatch/tradewatch/internal/extract"
	"github.com/tradewatch/tradewatch/internal/market"
	"github.com/tradewatch/tradewatch/internal/session"
	"github.com/tradewatch/tradewatch/internal/transport"
)

type Account struct {
	gw     transport.Gateway
	sess   *session.Session
	logger *slog.Logger
}

func New(gw transport.Gateway, sess *session.Session, logger *slog.Logger) *Account {
	return &Account{gw: gw, sess: sess, logger: logger}
}

// ChatIDForUser derives the private chat identifier between the session user
// and another user.
func (a *Account) ChatIDForUser(userID int64) market.ChatID {
	return market.UserPairChatID(a.sess.UserID, userID)
}

// SendChatMessage posts a message into a chat via the multiplex action
// channel.
func (a *Account) SendChatMessage(ctx context.Context, chatID market.ChatID, content string) error {
	objects := []transport.MultiplexObject{chatNodeObject(chatID)}
	action := &transport.MultiplexAction{
		Action: "chat_message",
		Data: map[string]any{
			"node":         string(chatID),
			"last_message": -1,
			"content":      content,
		},
	}
	if _, err := a.gw.PostMultiplex(ctx, a.sess.CSRFToken, objects, action); err != nil {
		return fmt.Errorf("send chat message: %w", err)
	}
	return nil
}

// ChatMessages fetches the full message history of one chat.
func (a *Account) ChatMessages(ctx context.Context, chatID market.ChatID) ([]market.Message, error) {
	resp, err := a.gw.PostMultiplex(ctx, a.sess.CSRFToken, []transport.MultiplexObject{chatNodeObject(chatID)}, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch chat history: %w", err)
	}
	for _, obj := range resp.Objects {
		if obj.Type != "chat_node" {
			continue
		}
		return extract.ParseChatHistory(obj.Data, chatID, ""), nil
	}
	return nil, nil
}

// Order fetches and parses the full order page.
func (a *Account) Order(ctx context.Context, orderID market.OrderID) (market.Order, error) {
	body, err := a.gw.GetOrderPage(ctx, string(orderID))
	if err != nil {
		return market.Order{}, fmt.Errorf("fetch order page: %w", err)
	}
	return extract.ParseOrderPage(body, orderID)
}

// OrderSecrets returns the paid-product secrets of an order.
func (a *Account) OrderSecrets(ctx context.Context, orderID market.OrderID) ([]string, error) {
	body, err := a.gw.GetOrderPage(ctx, string(orderID))
	if err != nil {
		return nil, fmt.Errorf("fetch order page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse order page: %w", err)
	}
	return extract.ParseOrderSecrets(doc), nil
}

// Orders fetches the current trade page summaries.
func (a *Account) Orders(ctx context.Context) ([]market.OrderSummary, error) {
	body, err := a.gw.GetOrdersPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch orders page: %w", err)
	}
	return extract.ParseOrdersList(body, a.sess.UserID)
}

// MyOffers lists the session user's own offers under a node.
func (a *Account) MyOffers(ctx context.Context, nodeID int64) ([]market.Offer, error) {
	body, err := a.gw.GetMyLotsPage(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("fetch my lots page: %w", err)
	}
	return extract.ParseMyOffers(body, nodeID), nil
}

// MarketOffers lists the public catalog offers under a node.
func (a *Account) MarketOffers(ctx context.Context, nodeID int64) ([]market.MarketOffer, error) {
	body, err := a.gw.GetCatalogPage(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog page: %w", err)
	}
	return extract.ParseMarketOffers(body, nodeID), nil
}

// CategorySubcategories lists the subcategory pills of a catalog page.
func (a *Account) CategorySubcategories(ctx context.Context, nodeID int64) ([]market.CategorySubcategory, error) {
	body, err := a.gw.GetCatalogPage(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog page: %w", err)
	}
	return extract.ParseCategorySubcategories(body), nil
}

// CategoryFilters lists the search filters of a catalog page.
func (a *Account) CategoryFilters(ctx context.Context, nodeID int64) ([]market.CategoryFilter, error) {
	body, err := a.gw.GetCatalogPage(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog page: %w", err)
	}
	return extract.ParseCategoryFilters(body), nil
}

// EditOffer fetches the offer's current fields, overlays params and saves the
// merged form. Fields left empty in params keep their saved values.
func (a *Account) EditOffer(ctx context.Context, offerID, nodeID int64, params market.OfferEditParams) (json.RawMessage, error) {
	body, err := a.gw.GetOfferEditPage(ctx, nodeID, offerID)
	if err != nil {
		return nil, fmt.Errorf("fetch offer edit page: %w", err)
	}
	current := extract.ParseOfferEditParams(body)
	merged := current.Merge(params)
	a.logger.Debug("saving offer", "offer_id", offerID, "node_id", nodeID, "price", merged.Price)

	return a.gw.SaveOffer(ctx, a.sess.CSRFToken, offerID, nodeID, offerForm(merged))
}

func chatNodeObject(chatID market.ChatID) transport.MultiplexObject {
	return transport.MultiplexObject{
		Type: "chat_node",
		ID:   string(chatID),
		Tag:  "00000000",
		Data: map[string]any{
			"node":         string(chatID),
			"last_message": -1,
			"content":      "",
		},
	}
}

// offerForm flattens merged edit params into the offerSave form fields.
func offerForm(p market.OfferEditParams) map[string]string {
	form := map[string]string{
		"location":                p.Location,
		"fields[quantity]":        p.Quantity,
		"fields[quantity2]":       p.Quantity2,
		"fields[method]":          p.Method,
		"fields[type]":            p.OfferType,
		"server_id":               p.ServerID,
		"fields[desc][ru]":        p.DescRU,
		"fields[desc][en]":        p.DescEN,
		"fields[payment_msg][ru]": p.PaymentMsgRU,
		"fields[payment_msg][en]": p.PaymentMsgEN,
		"fields[summary][ru]":     p.SummaryRU,
		"fields[summary][en]":     p.SummaryEN,
		"fields[game]":            p.Game,
		"fields[images]":          p.Images,
		"price":                   p.Price,
		"deleted":                 "",
		"deactivate_after_sale":   "",
		"active":                  "",
	}
	if p.Deleted != nil && *p.Deleted {
		form["deleted"] = "1"
	}
	if p.DeactivateAfterSale != nil && *p.DeactivateAfterSale {
		form["deactivate_after_sale"] = "on"
	}
	if p.Active == nil || *p.Active {
		form["active"] = "on"
	}
	return form
}

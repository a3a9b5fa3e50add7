// Package transport issues the actual network requests against the
// marketplace. Retry policy and error classification live here; callers only
// distinguish fatal authorization loss from everything else.
package transport

import (
	"context"
	"encoding/json"
)

// MultiplexObject is one logical subscription or query inside a combined
// request to the multiplex endpoint.
type MultiplexObject struct {
	Type string `json:"type"`
	ID   any    `json:"id"`
	Tag  string `json:"tag"`
	Data any    `json:"data"`
}

// MultiplexAction is an optional side-effecting request piggybacked onto a
// multiplex call (e.g. sending a chat message).
type MultiplexAction struct {
	Action string `json:"action"`
	Data   any    `json:"data"`
}

// ObjectID is a multiplex object identifier. The endpoint mixes numeric ids
// (counter and bookmark subscriptions) with string ids (chat nodes such as
// "users-1-2"); both decode to their text form. Anything else decodes to the
// empty id rather than failing the whole response.
type ObjectID string

func (id *ObjectID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ObjectID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ObjectID(n.String())
		return nil
	}
	*id = ""
	return nil
}

func (id ObjectID) String() string { return string(id) }

// MultiplexResult is one tagged response object from the multiplex endpoint.
// Data stays raw; the extractor decides how to read it per Type.
type MultiplexResult struct {
	Type string          `json:"type"`
	ID   ObjectID        `json:"id"`
	Tag  string          `json:"tag"`
	Data json.RawMessage `json:"data"`
}

// MultiplexResponse is the full multiplex endpoint response body.
type MultiplexResponse struct {
	Objects []MultiplexResult `json:"objects"`
}

// Gateway is the capability surface the rest of the system uses to talk to
// the marketplace. Page getters return raw HTML bodies; GetHome and
// GetChatPage additionally return the Set-Cookie header values so the session
// layer can pick up the server-issued session cookie.
type Gateway interface {
	GetHome(ctx context.Context) (body string, setCookies []string, err error)
	GetChatPage(ctx context.Context, chatID string) (body string, setCookies []string, err error)
	GetOrdersPage(ctx context.Context) (string, error)
	GetOrderPage(ctx context.Context, orderID string) (string, error)
	GetOfferEditPage(ctx context.Context, nodeID, offerID int64) (string, error)
	GetMyLotsPage(ctx context.Context, nodeID int64) (string, error)
	GetCatalogPage(ctx context.Context, nodeID int64) (string, error)
	PostMultiplex(ctx context.Context, csrf string, objects []MultiplexObject, action *MultiplexAction) (*MultiplexResponse, error)
	SaveOffer(ctx context.Context, csrf string, offerID, nodeID int64, form map[string]string) (json.RawMessage, error)
}

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultUserAgent mirrors a current desktop browser; the marketplace serves
// reduced pages to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Options configures the HTTP gateway.
type Options struct {
	BaseURL    string
	AuthKey    string // session auth cookie value, required
	UserAgent  string
	RetryBase  time.Duration // first retry backoff, doubled per attempt
	MaxRetries int
	Client     *http.Client // optional, defaults to a 30s-timeout client
}

// HTTPGateway is the production Gateway implementation. Transient failures
// (network errors, 5xx, 429) are retried with exponential backoff before an
// error ever reaches the caller; 403 is classified as ErrUnauthorized.
type HTTPGateway struct {
	client     *http.Client
	urls       *URLBuilder
	authKey    string
	userAgent  string
	sessionID  string
	retryBase  time.Duration
	maxRetries int
	logger     *slog.Logger
}

func NewHTTPGateway(opts Options, logger *slog.Logger) *HTTPGateway {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	retryBase := opts.RetryBase
	if retryBase <= 0 {
		retryBase = 20 * time.Millisecond
	}
	return &HTTPGateway{
		client:     client,
		urls:       NewURLBuilder(opts.BaseURL),
		authKey:    opts.AuthKey,
		userAgent:  ua,
		retryBase:  retryBase,
		maxRetries: opts.MaxRetries,
		logger:     logger,
	}
}

// URLs exposes the gateway's route builder.
func (g *HTTPGateway) URLs() *URLBuilder { return g.urls }

// SetSessionCookie installs the server-issued session cookie discovered at
// bootstrap. Safe to leave unset; requests then carry the auth key only.
func (g *HTTPGateway) SetSessionCookie(value string) { g.sessionID = value }

func (g *HTTPGateway) cookieHeader() string {
	c := fmt.Sprintf("golden_key=%s; cookie_prefs=1", g.authKey)
	if g.sessionID != "" {
		c += "; PHPSESSID=" + g.sessionID
	}
	return c
}

// do sends the request built by build, retrying transient failures. build is
// called per attempt because request bodies are single-use.
func (g *HTTPGateway) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)
		req.Header.Set("Cookie", g.cookieHeader())
		req.Header.Set("User-Agent", g.userAgent)

		resp, err := g.client.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrUnauthorized
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = &RequestError{Status: resp.StatusCode, URL: req.URL.String(), Body: string(body)}
		case resp.StatusCode >= 400:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, &RequestError{Status: resp.StatusCode, URL: req.URL.String(), Body: string(body)}
		default:
			return resp, nil
		}

		if attempt >= g.maxRetries {
			return nil, lastErr
		}
		delay := g.retryBase << attempt
		g.logger.Debug("retrying request", "attempt", attempt+1, "delay", delay, "error", lastErr)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (g *HTTPGateway) getBody(ctx context.Context, u string) (string, error) {
	resp, err := g.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "*/*")
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func (g *HTTPGateway) getBodyWithCookies(ctx context.Context, u string) (string, []string, error) {
	resp, err := g.do(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, u, nil)
	})
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	setCookies := resp.Header.Values("Set-Cookie")
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read body: %w", err)
	}
	return string(body), setCookies, nil
}

func (g *HTTPGateway) GetHome(ctx context.Context) (string, []string, error) {
	return g.getBodyWithCookies(ctx, g.urls.Home())
}

func (g *HTTPGateway) GetChatPage(ctx context.Context, chatID string) (string, []string, error) {
	return g.getBodyWithCookies(ctx, g.urls.ChatPage(chatID))
}

func (g *HTTPGateway) GetOrdersPage(ctx context.Context) (string, error) {
	return g.getBody(ctx, g.urls.OrdersTrade())
}

func (g *HTTPGateway) GetOrderPage(ctx context.Context, orderID string) (string, error) {
	return g.getBody(ctx, g.urls.OrderPage(orderID))
}

func (g *HTTPGateway) GetOfferEditPage(ctx context.Context, nodeID, offerID int64) (string, error) {
	return g.getBody(ctx, g.urls.OfferEdit(nodeID, offerID))
}

func (g *HTTPGateway) GetMyLotsPage(ctx context.Context, nodeID int64) (string, error) {
	return g.getBody(ctx, g.urls.MyLots(nodeID))
}

func (g *HTTPGateway) GetCatalogPage(ctx context.Context, nodeID int64) (string, error) {
	return g.getBody(ctx, g.urls.Catalog(nodeID))
}

// PostMultiplex sends the combined subscription request. The endpoint expects
// a form-encoded body with the objects array as a JSON string, plus the CSRF
// token; action, when present, rides along in the request field.
func (g *HTTPGateway) PostMultiplex(ctx context.Context, csrf string, objects []MultiplexObject, action *MultiplexAction) (*MultiplexResponse, error) {
	objectsJSON, err := json.Marshal(objects)
	if err != nil {
		return nil, fmt.Errorf("marshal objects: %w", err)
	}
	requestField := "false"
	if action != nil {
		actionJSON, err := json.Marshal(action)
		if err != nil {
			return nil, fmt.Errorf("marshal action: %w", err)
		}
		requestField = string(actionJSON)
	}

	form := url.Values{}
	form.Set("objects", string(objectsJSON))
	form.Set("request", requestField)
	form.Set("csrf_token", csrf)
	payload := form.Encode()

	resp, err := g.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, g.urls.Runner(), strings.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		req.Header.Set("Accept", "*/*")
		req.Header.Set("Origin", g.urls.Base())
		req.Header.Set("Referer", g.urls.Base()+"/chat/")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out MultiplexResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode multiplex response: %w", err)
	}
	return &out, nil
}

// SaveOffer posts the offer edit form. form holds the already-flattened field
// names; csrf_token, offer_id, node_id and form_created_at are filled in here.
func (g *HTTPGateway) SaveOffer(ctx context.Context, csrf string, offerID, nodeID int64, form map[string]string) (json.RawMessage, error) {
	values := url.Values{}
	for k, v := range form {
		values.Set(k, v)
	}
	values.Set("csrf_token", csrf)
	values.Set("offer_id", fmt.Sprintf("%d", offerID))
	values.Set("node_id", fmt.Sprintf("%d", nodeID))
	values.Set("form_created_at", fmt.Sprintf("%d", time.Now().Unix()))
	payload := values.Encode()

	resp, err := g.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, g.urls.OfferSave(), strings.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
		req.Header.Set("Origin", g.urls.Base())
		req.Header.Set("Referer", g.urls.OfferEdit(nodeID, offerID))
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return json.RawMessage(body), nil
}

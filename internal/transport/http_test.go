package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGateway(srv *httptest.Server) *HTTPGateway {
	return NewHTTPGateway(Options{
		BaseURL:    srv.URL,
		AuthKey:    "golden",
		RetryBase:  time.Millisecond,
		MaxRetries: 3,
		Client:     srv.Client(),
	}, testLogger())
}

func TestGetOrdersPage(t *testing.T) {
	var gotCookie, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotUA = r.Header.Get("User-Agent")
		io.WriteString(w, "<html>orders</html>")
	}))
	defer srv.Close()

	gw := newTestGateway(srv)
	gw.SetSessionCookie("sess42")

	body, err := gw.GetOrdersPage(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if body != "<html>orders</html>" {
		t.Errorf("unexpected body %q", body)
	}
	if gotCookie != "golden_key=golden; cookie_prefs=1; PHPSESSID=sess42" {
		t.Errorf("unexpected cookie header %q", gotCookie)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("unexpected user agent %q", gotUA)
	}
}

func TestForbiddenIsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestGateway(srv).GetOrdersPage(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestServerErrorIsRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	body, err := newTestGateway(srv).GetOrdersPage(context.Background())
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if body != "ok" || calls != 3 {
		t.Errorf("expected 3 calls ending in ok, got %d calls, body %q", calls, body)
	}
}

func TestRetriesExhausted(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestGateway(srv).GetOrdersPage(context.Background())
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", reqErr.Status)
	}
	if calls != 4 { // initial attempt + 3 retries
		t.Errorf("expected 4 attempts, got %d", calls)
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestGateway(srv).GetOrdersPage(context.Background())
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 RequestError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("4xx must not be retried, got %d calls", calls)
	}
}

func TestPostMultiplex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/runner/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("csrf_token") != "tok" {
			t.Errorf("expected csrf token, got %q", r.PostForm.Get("csrf_token"))
		}
		if !strings.Contains(r.PostForm.Get("objects"), `"chat_bookmarks"`) {
			t.Errorf("objects payload missing subscription: %q", r.PostForm.Get("objects"))
		}
		if r.PostForm.Get("request") != "false" {
			t.Errorf("expected request=false, got %q", r.PostForm.Get("request"))
		}
		if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			t.Error("expected XHR header")
		}
		io.WriteString(w, `{"objects":[{"type":"chat_bookmarks","id":1,"tag":"srv","data":{"html":""}}]}`)
	}))
	defer srv.Close()

	resp, err := newTestGateway(srv).PostMultiplex(context.Background(), "tok", []MultiplexObject{
		{Type: "chat_bookmarks", ID: 1, Tag: "abc", Data: false},
	}, nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if len(resp.Objects) != 1 || resp.Objects[0].Type != "chat_bookmarks" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Objects[0].Tag != "srv" {
		t.Errorf("expected server tag, got %q", resp.Objects[0].Tag)
	}
}

func TestPostMultiplexWithAction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if !strings.Contains(r.PostForm.Get("request"), `"chat_message"`) {
			t.Errorf("expected action in request field, got %q", r.PostForm.Get("request"))
		}
		io.WriteString(w, `{"objects":[]}`)
	}))
	defer srv.Close()

	_, err := newTestGateway(srv).PostMultiplex(context.Background(), "tok", nil, &MultiplexAction{
		Action: "chat_message",
		Data:   map[string]any{"node": "users-1-2", "content": "hi"},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
}

func TestContextCancelDuringRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(Options{
		BaseURL:    srv.URL,
		AuthKey:    "k",
		RetryBase:  time.Second,
		MaxRetries: 5,
		Client:     srv.Client(),
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := gw.GetOrdersPage(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

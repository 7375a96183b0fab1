package guardcore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/guardcore/guarddash/internal/prefs"
)

type recordedHooks struct {
	mu     sync.Mutex
	order  []string
	errors []*APIError
}

func (h *recordedHooks) HandleAPIError(err *APIError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.order = append(h.order, "error")
	h.errors = append(h.errors, err)
}

func (h *recordedHooks) HandleUnauthorized() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.order = append(h.order, "unauthorized")
}

func newTestClient(t *testing.T, handler http.HandlerFunc, hooks *recordedHooks, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := ClientConfig{BaseURL: server.URL}
	if hooks != nil {
		cfg.OnError = hooks
		cfg.OnUnauthorized = hooks
	}
	c, err := NewClient(cfg, opts...)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "http://localhost:8000"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000"},
		{"https://panel.example.com/", "https://panel.example.com"},
		{"https://panel.example.com/dashboard/?x=1#top", "https://panel.example.com/dashboard"},
	}
	for _, tt := range tests {
		got, err := normalizeBaseURL(tt.in)
		if err != nil {
			t.Fatalf("normalizeBaseURL(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("normalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClient_QueryParamsDropNil(t *testing.T) {
	var got url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	page := 2
	var missing *bool
	err := c.Get(context.Background(), "/api/subscriptions", Params{
		"page":     &page,
		"size":     10,
		"enabled":  true,
		"limited":  missing,
		"order_by": nil,
		"ratio":    0.5,
		"names":    []string{"a", "b"},
	}, nil)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Get("page") != "2" || got.Get("size") != "10" || got.Get("enabled") != "true" ||
		got.Get("ratio") != "0.5" || got.Get("names") != "a,b" {
		t.Fatalf("query = %v, want encoded values", got)
	}
	if got.Has("limited") || got.Has("order_by") {
		t.Fatalf("query = %v, want nil entries dropped", got)
	}
}

func TestClient_AuthHeaders(t *testing.T) {
	var header http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	ctx := context.Background()
	if err := c.Get(ctx, "/api/stats", nil, nil); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if header.Get("Authorization") != "" || header.Get("X-API-Key") != "" {
		t.Fatalf("auth headers sent without credentials: %v", header)
	}
	if header.Get("Content-Type") != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", header.Get("Content-Type"))
	}
	if header.Get("X-Request-ID") == "" {
		t.Fatalf("X-Request-ID missing")
	}

	_ = c.SetToken("tok")
	if err := c.Get(ctx, "/api/stats", nil, nil); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if header.Get("Authorization") != "Bearer tok" || header.Get("X-API-Key") != "" {
		t.Fatalf("headers = %v, want bearer only", header)
	}

	_ = c.SetAPIKey("key")
	if err := c.Get(ctx, "/api/stats", nil, nil); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if header.Get("Authorization") != "Bearer tok" || header.Get("X-API-Key") != "key" {
		t.Fatalf("headers = %v, want both credentials", header)
	}
}

func TestClient_NonJSONResponseDecodesNothing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok")
	}, nil)

	out := map[string]any{"kept": true}
	if err := c.Post(context.Background(), "/api/nodes/1/enable", nil, nil, &out); err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if len(out) != 1 || out["kept"] != true {
		t.Fatalf("out = %v, want untouched", out)
	}
}

func TestClient_JSONBodyRoundTrip(t *testing.T) {
	var body string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = io.WriteString(w, `{"id":7,"remark":"edge"}`)
	}, nil)

	var out ServiceResponse
	err := c.Put(context.Background(), "/api/services/7", ServiceUpdate{Remark: optional("edge")}, nil, &out)
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if body != `{"remark":"edge"}` {
		t.Fatalf("request body = %s", body)
	}
	if out.ID != 7 || out.Remark != "edge" {
		t.Fatalf("out = %#v", out)
	}
}

func TestClient_HTTPErrorRunsHooksInOrder(t *testing.T) {
	hooks := &recordedHooks{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
	}, hooks)

	err := c.Get(context.Background(), "/api/admins/current", nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != 401 || apiErr.Method != "GET" || apiErr.Endpoint != "/api/admins/current" {
		t.Fatalf("apiErr = %#v", apiErr)
	}
	if apiErr.Message != "Could not validate credentials" || apiErr.Detail.Kind != DetailMessage {
		t.Fatalf("message = %q kind = %v", apiErr.Message, apiErr.Detail.Kind)
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("errors.Is(err, ErrUnauthorized) = false")
	}
	if strings.Join(hooks.order, ",") != "unauthorized,error" {
		t.Fatalf("hook order = %v, want unauthorized then error", hooks.order)
	}
	if hooks.errors[0] != apiErr {
		t.Fatalf("error hook received a different error value")
	}
}

func TestClient_ErrorBodyFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		kind     DetailKind
		message  string
		sentinel error
	}{
		{"not json", 500, "<html>boom</html>", DetailNone, "Request failed", nil},
		{"empty", 404, "", DetailNone, "Request failed", ErrNotFound},
		{"validation", 422, `{"detail":[{"loc":["body","username"],"msg":"too short","type":"value_error"},{"loc":[],"msg":"bad","type":"x"}]}`, DetailValidation, "username: too short, field: bad", ErrValidation},
		{"opaque", 403, `{"detail":{"code":42}}`, DetailOpaque, "Request failed", ErrForbidden},
		{"no detail", 409, `{"error":"conflict"}`, DetailOpaque, "Request failed", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, &recordedHooks{})

			err := c.Delete(context.Background(), "/api/nodes/3", nil, nil, nil)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.StatusText == "" || apiErr.Method != "DELETE" {
				t.Fatalf("apiErr = %#v", apiErr)
			}
			if apiErr.Detail.Kind != tt.kind {
				t.Fatalf("kind = %v, want %v", apiErr.Detail.Kind, tt.kind)
			}
			if apiErr.Message != tt.message {
				t.Fatalf("message = %q, want %q", apiErr.Message, tt.message)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Fatalf("errors.Is(%v) = false", tt.sentinel)
			}
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	hooks := &recordedHooks{}
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c, err := NewClient(ClientConfig{BaseURL: base, OnError: hooks, OnUnauthorized: hooks}, WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	err = c.Get(context.Background(), "/api/stats", nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != 0 || apiErr.StatusText != "Network Error" || apiErr.Message == "" {
		t.Fatalf("apiErr = %#v", apiErr)
	}
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("errors.Is(err, ErrNetwork) = false")
	}
	if apiErr.TimestampISO() != "2026-01-02T03:04:05.000Z" {
		t.Fatalf("timestamp = %q", apiErr.TimestampISO())
	}
	if strings.Join(hooks.order, ",") != "error" {
		t.Fatalf("hook order = %v, want error only", hooks.order)
	}
}

func TestClient_DecodeFailureIsNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "{not-json")
	}, nil)

	var out StatsResponse
	err := c.Get(context.Background(), "/api/stats", nil, &out)
	if !errors.Is(err, ErrNetwork) || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("error = %v, want network decode error", err)
	}
}

func TestClient_DownloadAndPostForm(t *testing.T) {
	var form url.Values
	var contentType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admins/current/backup":
			w.Header().Set("Content-Type", "application/zip")
			_, _ = w.Write([]byte{0x50, 0x4b, 0x03, 0x04})
		case "/api/admins/token":
			contentType = r.Header.Get("Content-Type")
			_ = r.ParseForm()
			form = r.PostForm
			_, _ = io.WriteString(w, `{"access_token":"abc","token_type":"bearer"}`)
		}
	}, nil)

	data, err := c.Download(context.Background(), "/api/admins/current/backup", nil)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if len(data) != 4 || data[0] != 0x50 {
		t.Fatalf("Download data = %v", data)
	}

	var token AdminToken
	err = c.PostForm(context.Background(), "/api/admins/token", Params{"username": "a", "password": "b", "skip": nil}, nil, &token)
	if err != nil {
		t.Fatalf("PostForm returned error: %v", err)
	}
	if contentType != "application/x-www-form-urlencoded" {
		t.Fatalf("Content-Type = %q", contentType)
	}
	if form.Get("username") != "a" || form.Get("password") != "b" || form.Has("skip") {
		t.Fatalf("form = %v", form)
	}
	if token.AccessToken != "abc" {
		t.Fatalf("token = %#v", token)
	}
}

func TestCredentials_PersistAndRehydrate(t *testing.T) {
	store := prefs.NewMemoryStore()
	c, err := NewClient(ClientConfig{}, WithStorage(store))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := c.SetToken("persisted"); err != nil {
		t.Fatalf("SetToken returned error: %v", err)
	}
	if got := c.Token(); got != "persisted" {
		t.Fatalf("Token() = %q", got)
	}

	reloaded, err := NewClient(ClientConfig{}, WithStorage(store))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := reloaded.Token(); got != "persisted" {
		t.Fatalf("rehydrated Token() = %q, want persisted", got)
	}

	if err := reloaded.SetToken(""); err != nil {
		t.Fatalf("SetToken(\"\") returned error: %v", err)
	}
	if _, ok := store.Get(prefs.KeyToken); ok {
		t.Fatalf("token still in storage after clear")
	}
	if got := reloaded.Token(); got != "" {
		t.Fatalf("Token() after clear = %q", got)
	}
}

type readOnlyStore struct {
	*prefs.MemoryStore
}

var errReadOnly = errors.New("read-only state file")

func (s readOnlyStore) Set(string, string) error { return errReadOnly }
func (s readOnlyStore) Remove(string) error      { return errReadOnly }

func TestCredentials_ClearSticksWhenStorageFails(t *testing.T) {
	mem := prefs.NewMemoryStore()
	if err := mem.Set(prefs.KeyToken, "stale"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	c, err := NewClient(ClientConfig{}, WithStorage(readOnlyStore{mem}))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.Token(); got != "stale" {
		t.Fatalf("Token() = %q, want stale", got)
	}

	if err := c.SetToken(""); !errors.Is(err, errReadOnly) {
		t.Fatalf("SetToken(\"\") error = %v, want %v", err, errReadOnly)
	}
	if got := c.Token(); got != "" {
		t.Fatalf("Token() after failed clear = %q, want empty", got)
	}
	if c.HasCredentials() {
		t.Fatalf("HasCredentials() = true after clear")
	}
}

func TestCredentials_MemoryOnlyWithoutStorage(t *testing.T) {
	c, err := NewClient(ClientConfig{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := c.SetAPIKey("k"); err != nil {
		t.Fatalf("SetAPIKey returned error: %v", err)
	}
	if c.APIKey() != "k" || !c.HasCredentials() {
		t.Fatalf("APIKey() = %q", c.APIKey())
	}
}

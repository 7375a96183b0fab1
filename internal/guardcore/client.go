package guardcore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/guardcore/guarddash/internal/prefs"
)

// ErrorHandler receives every APIError before it is returned to the caller.
type ErrorHandler interface {
	HandleAPIError(err *APIError)
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(err *APIError)

// HandleAPIError calls f(err).
func (f ErrorHandlerFunc) HandleAPIError(err *APIError) { f(err) }

// UnauthorizedHandler is notified when a request fails with 401. It runs on
// the calling goroutine and must not block.
type UnauthorizedHandler interface {
	HandleUnauthorized()
}

// UnauthorizedHandlerFunc adapts a function to UnauthorizedHandler.
type UnauthorizedHandlerFunc func()

// HandleUnauthorized calls f().
func (f UnauthorizedHandlerFunc) HandleUnauthorized() { f() }

// ClientConfig is fixed for the lifetime of a Client.
type ClientConfig struct {
	BaseURL        string
	OnError        ErrorHandler
	OnUnauthorized UnauthorizedHandler
}

// Option configures optional Client collaborators.
type Option func(*Client)

// WithStorage persists credentials in s. Without storage the client keeps
// credentials in memory only.
func WithStorage(s prefs.Storage) Option {
	return func(c *Client) {
		c.creds.storage = s
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the transport timeout. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(logger glog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClock overrides the clock used for error timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = strings.TrimSpace(ua)
		}
	}
}

// Params are query or form values. Nil values, including nil pointers, are
// dropped before encoding.
type Params map[string]any

// Client performs authenticated calls against a GuardCore backend.
type Client struct {
	baseURL        string
	onError        ErrorHandler
	onUnauthorized UnauthorizedHandler

	http      *http.Client
	creds     credentials
	logger    glog.Logger
	now       func() time.Time
	userAgent string
}

const (
	defaultBaseURL   = "http://localhost:8000"
	defaultUserAgent = "guarddash/0.1"
	requestTimeout   = 30 * time.Second
	maxErrorBody     = 1 << 20

	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"

	headerRequestID = "X-Request-ID"
	headerAPIKey    = "X-API-Key"
)

// NewClient builds a Client for cfg.BaseURL.
func NewClient(cfg ClientConfig, opts ...Option) (*Client, error) {
	base, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:        base,
		onError:        cfg.OnError,
		onUnauthorized: cfg.OnUnauthorized,
		http:           &http.Client{Timeout: requestTimeout},
		now:            time.Now,
		userAgent:      defaultUserAgent,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = glog.Ensure(c.logger)
	c.creds.logger = c.logger
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET and decodes a JSON response into dest.
func (c *Client) Get(ctx context.Context, endpoint string, params Params, dest any) error {
	return c.doJSON(ctx, http.MethodGet, endpoint, nil, params, dest)
}

// Post issues a POST with an optional JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any, params Params, dest any) error {
	return c.doJSON(ctx, http.MethodPost, endpoint, body, params, dest)
}

// Put issues a PUT with an optional JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body any, params Params, dest any) error {
	return c.doJSON(ctx, http.MethodPut, endpoint, body, params, dest)
}

// Delete issues a DELETE with an optional JSON body.
func (c *Client) Delete(ctx context.Context, endpoint string, body any, params Params, dest any) error {
	return c.doJSON(ctx, http.MethodDelete, endpoint, body, params, dest)
}

// Download issues a GET and returns the raw response body.
func (c *Client) Download(ctx context.Context, endpoint string, params Params) ([]byte, error) {
	method := http.MethodGet
	requestID := uuid.NewString()
	req, err := c.newRequest(ctx, method, endpoint, params, nil, requestID)
	if err != nil {
		return nil, c.fail(newNetworkError(err, endpoint, method, requestID, c.now()))
	}
	c.setHeaders(req, contentTypeJSON)
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(newNetworkError(err, endpoint, method, requestID, c.now()))
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return nil, c.fail(c.httpError(resp, endpoint, method, requestID))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(newNetworkError(fmt.Errorf("read response: %w", err), endpoint, method, requestID, c.now()))
	}
	return data, nil
}

// PostForm posts form as application/x-www-form-urlencoded and always decodes
// the response as JSON. It is used for the token exchange only.
func (c *Client) PostForm(ctx context.Context, endpoint string, form Params, params Params, dest any) error {
	method := http.MethodPost
	requestID := uuid.NewString()
	encoded := encodeParams(form)
	req, err := c.newRequest(ctx, method, endpoint, params, strings.NewReader(encoded), requestID)
	if err != nil {
		return c.fail(newNetworkError(err, endpoint, method, requestID, c.now()))
	}
	c.setHeaders(req, contentTypeForm)
	req.Header.Set("Accept", contentTypeJSON)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(newNetworkError(err, endpoint, method, requestID, c.now()))
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return c.fail(c.httpError(resp, endpoint, method, requestID))
	}
	if dest == nil {
		dest = &map[string]any{}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return c.fail(newNetworkError(fmt.Errorf("decode response: %w", err), endpoint, method, requestID, c.now()))
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body any, params Params, dest any) error {
	requestID := uuid.NewString()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return c.fail(newNetworkError(fmt.Errorf("encode request: %w", err), endpoint, method, requestID, c.now()))
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, endpoint, params, reader, requestID)
	if err != nil {
		return c.fail(newNetworkError(err, endpoint, method, requestID, c.now()))
	}
	c.setHeaders(req, contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(newNetworkError(err, endpoint, method, requestID, c.now()))
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return c.fail(c.httpError(resp, endpoint, method, requestID))
	}

	// Empty and non-JSON responses decode to nothing.
	if dest == nil || !isJSONContentType(resp.Header.Get("Content-Type")) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return c.fail(newNetworkError(fmt.Errorf("decode response: %w", err), endpoint, method, requestID, c.now()))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, params Params, body io.Reader, requestID string) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target := c.baseURL + endpoint
	if query := encodeParams(params); query != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		target += sep + query
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(headerRequestID, requestID)
	return req, nil
}

func (c *Client) setHeaders(req *http.Request, contentType string) {
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", c.userAgent)
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if apiKey := c.APIKey(); apiKey != "" {
		req.Header.Set(headerAPIKey, apiKey)
	}
}

func (c *Client) httpError(resp *http.Response, endpoint, method, requestID string) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return newHTTPError(resp.StatusCode, endpoint, method, requestID, body, c.now())
}

// fail runs the unauthorized and error hooks and hands the error back so the
// caller always receives it.
func (c *Client) fail(apiErr *APIError) error {
	c.logger.Error("api request failed",
		"method", apiErr.Method,
		"endpoint", apiErr.Endpoint,
		"status", apiErr.Status,
		"request_id", apiErr.RequestID,
		"message", apiErr.Message,
	)
	if apiErr.Status == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized.HandleUnauthorized()
	}
	if c.onError != nil {
		c.onError.HandleAPIError(apiErr)
	}
	return apiErr
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func isJSONContentType(value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.Contains(value, contentTypeJSON)
	}
	return mediaType == contentTypeJSON || strings.HasSuffix(mediaType, "+json")
}

// encodeParams encodes params in key order, skipping nil entries.
func encodeParams(params Params) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, key := range keys {
		if value, ok := formatParam(params[key]); ok {
			values.Add(key, value)
		}
	}
	return values.Encode()
}

func formatParam(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if part, ok := formatParam(rv.Index(i).Interface()); ok {
				parts = append(parts, part)
			}
		}
		return strings.Join(parts, ","), true
	default:
		return fmt.Sprint(rv.Interface()), true
	}
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse base url %q: missing host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}

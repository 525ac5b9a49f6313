// Package httpclient is the single chokepoint for calls to the upstream API
// and to the BFF. It attaches credentials, classifies failures and keeps the
// token store in step with server-confirmed login and logout.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bistro-bff/internal/domain/auth"
	xerrors "bistro-bff/internal/pkg/errors"
	"bistro-bff/internal/metrics"
	"bistro-bff/internal/pkg/tokenstore"

	"go.uber.org/zap"
)

// Paths whose success changes the stored session. Matched after the leading
// slash has been stripped.
var (
	loginPaths  = map[string]bool{"api/auth/login": true, "api/guest/auth/login": true}
	logoutPaths = map[string]bool{"api/auth/logout": true, "api/guest/auth/logout": true}
)

// Multipart is a pre-encoded multipart body; it is sent as-is.
type Multipart struct {
	Body        io.Reader
	ContentType string
}

type Options struct {
	Headers http.Header
	Body    interface{}
	// BaseURL overrides the upstream base. A pointer to "" targets the BFF.
	BaseURL *string

	skipUnauthorized bool
}

// BFF is the BaseURL override for calls to this application's own server.
func BFF() *string {
	s := ""
	return &s
}

type Response struct {
	Status  int
	Header  http.Header
	Payload json.RawMessage
}

// Decode unmarshals the whole payload into v.
func (r *Response) Decode(v interface{}) error {
	if len(r.Payload) == 0 {
		return fmt.Errorf("empty response payload")
	}
	return json.Unmarshal(r.Payload, v)
}

// Data unmarshals the data member of the {message, data} envelope into v.
func (r *Response) Data(v interface{}) error {
	var env auth.Envelope
	if err := r.Decode(&env); err != nil {
		return err
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("response has no data")
	}
	return json.Unmarshal(env.Data, v)
}

// UnauthorizedHandler decides what a 401 means in the caller's execution
// context. The returned error is handed back to the caller.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context, c *Client, req *http.Request) error
}

type Config struct {
	// BaseURL is the upstream API root.
	BaseURL string
	// BFFURL is this application's own server root.
	BFFURL         string
	HTTPClient     *http.Client
	Store          *tokenstore.Store
	OnUnauthorized UnauthorizedHandler
	Logger         *zap.Logger
}

type Client struct {
	baseURL        string
	bffURL         string
	http           *http.Client
	store          *tokenstore.Store
	onUnauthorized UnauthorizedHandler
	logger         *zap.Logger
}

func New(cfg Config) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		bffURL:         strings.TrimRight(cfg.BFFURL, "/"),
		http:           cfg.HTTPClient,
		store:          cfg.Store,
		onUnauthorized: cfg.OnUnauthorized,
		logger:         cfg.Logger,
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.store == nil {
		c.store = tokenstore.Noop()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Store exposes the token store the client reads credentials from.
func (c *Client) Store() *tokenstore.Store { return c.store }

func (c *Client) Get(ctx context.Context, path string, opts Options) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, opts)
}

func (c *Client) Post(ctx context.Context, path string, opts Options) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, opts)
}

func (c *Client) Put(ctx context.Context, path string, opts Options) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, opts)
}

func (c *Client) Delete(ctx context.Context, path string, opts Options) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, opts)
}

// Do performs one call and classifies the outcome:
// 2xx returns the response, 422 an *EntityError, 401 whatever the
// UnauthorizedHandler decides, anything else an *HTTPError.
func (c *Client) Do(ctx context.Context, method, path string, opts Options) (*Response, error) {
	normalized := strings.TrimPrefix(path, "/")

	req, err := c.newRequest(ctx, method, normalized, opts)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(method, metrics.StatusClass(0)).Inc()
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequests.WithLabelValues(method, metrics.StatusClass(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.classify(ctx, req, resp.StatusCode, body, opts)
	}

	out := &Response{Status: resp.StatusCode, Header: resp.Header, Payload: body}

	switch {
	case loginPaths[normalized]:
		var data auth.LoginData
		if err := out.Data(&data); err != nil {
			return nil, fmt.Errorf("login response: %w", err)
		}
		if err := c.store.SetPair(data.Pair()); err != nil {
			return nil, fmt.Errorf("persist tokens: %w", err)
		}
	case logoutPaths[normalized]:
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("failed to clear stored tokens after logout", zap.Error(err))
		}
	}
	return out, nil
}

func (c *Client) classify(ctx context.Context, req *http.Request, status int, body []byte, opts Options) error {
	switch status {
	case http.StatusUnprocessableEntity:
		entity := &xerrors.EntityError{Status: status}
		if err := json.Unmarshal(body, entity); err != nil {
			c.logger.Warn("unparseable validation error body", zap.Error(err))
		}
		return entity
	case http.StatusUnauthorized:
		if opts.skipUnauthorized || c.onUnauthorized == nil {
			return &xerrors.HTTPError{Status: status, Message: messageOf(body), Payload: body}
		}
		return c.onUnauthorized.HandleUnauthorized(ctx, c, req)
	}
	return &xerrors.HTTPError{Status: status, Message: messageOf(body), Payload: body}
}

func (c *Client) newRequest(ctx context.Context, method, normalized string, opts Options) (*http.Request, error) {
	base := c.baseURL
	if opts.BaseURL != nil {
		base = strings.TrimRight(*opts.BaseURL, "/")
		if base == "" {
			base = c.bffURL
		}
	}
	url := base + "/" + normalized

	body, contentType, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if token := c.store.Access(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	// explicit headers win, which is how server callers pass their bearer
	for k, vs := range opts.Headers {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func encodeBody(v interface{}) (io.Reader, string, error) {
	switch b := v.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		return b.Body, b.ContentType, nil
	case Multipart:
		return b.Body, b.ContentType, nil
	case io.Reader:
		return b, "", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("encode body: %w", err)
	}
	return bytes.NewReader(raw), "application/json", nil
}

func messageOf(body []byte) string {
	var env auth.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Message
}

// IsUnauthorized reports whether err came from an authentication failure.
func IsUnauthorized(err error) bool {
	if errors.Is(err, xerrors.ErrSessionTerminated) || errors.Is(err, xerrors.ErrUnauthorized) {
		return true
	}
	var httpErr *xerrors.HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusUnauthorized
}

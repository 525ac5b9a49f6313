package httpclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"bistro-bff/internal/domain/auth"
	xerrors "bistro-bff/internal/pkg/errors"
	"bistro-bff/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const logoutFlightKey = "logout"

// Deduper collapses concurrent calls sharing a key into one execution.
// *singleflight.Group satisfies it.
type Deduper interface {
	Do(key string, fn func() (interface{}, error)) (v interface{}, err error, shared bool)
}

// Navigator performs the hard navigation that ends a client session.
type Navigator interface {
	Navigate(location string)
}

type NavigatorFunc func(location string)

func (f NavigatorFunc) Navigate(location string) { f(location) }

// SessionClearer is the in-memory session view cleared on teardown.
type SessionClearer interface {
	Clear()
}

// ClientTeardown ends the session after a 401 in client context. However many
// calls fail at once, one logout reaches the BFF and one navigation happens.
type ClientTeardown struct {
	dedup     Deduper
	navigator Navigator
	state     SessionClearer
	loginPath string
	logger    *zap.Logger
}

type TeardownOption func(*ClientTeardown)

func WithDeduper(d Deduper) TeardownOption {
	return func(t *ClientTeardown) { t.dedup = d }
}

func WithSessionState(s SessionClearer) TeardownOption {
	return func(t *ClientTeardown) { t.state = s }
}

func WithLoginPath(p string) TeardownOption {
	return func(t *ClientTeardown) { t.loginPath = p }
}

func WithTeardownLogger(l *zap.Logger) TeardownOption {
	return func(t *ClientTeardown) { t.logger = l }
}

func NewClientTeardown(nav Navigator, opts ...TeardownOption) *ClientTeardown {
	t := &ClientTeardown{
		dedup:     &singleflight.Group{},
		navigator: nav,
		loginPath: "/login",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *ClientTeardown) HandleUnauthorized(ctx context.Context, c *Client, _ *http.Request) error {
	_, _, _ = t.dedup.Do(logoutFlightKey, func() (interface{}, error) {
		metrics.Teardowns.Inc()

		// the caller's context may already be cancelled; logout still goes out
		logoutCtx := context.WithoutCancel(ctx)
		_, err := c.Do(logoutCtx, http.MethodPost, "/api/auth/logout", Options{
			BaseURL:          BFF(),
			Body:             auth.LogoutRequest{RefreshToken: c.store.Refresh()},
			skipUnauthorized: true,
		})
		if err != nil {
			t.logger.Warn("logout during teardown failed", zap.Error(err))
		}

		if err := c.store.Clear(); err != nil {
			t.logger.Error("failed to clear stored tokens", zap.Error(err))
		}
		if t.state != nil {
			t.state.Clear()
		}
		if t.navigator != nil {
			t.navigator.Navigate(t.loginPath)
		}
		return nil, nil
	})
	return xerrors.ErrSessionTerminated
}

// ServerRedirect handles a 401 seen while serving a request on the BFF: the
// request is sent to the refresh page with the expired access token so that
// page can recover or log out.
type ServerRedirect struct {
	RefreshPath string
	LoginPath   string
}

func (s ServerRedirect) HandleUnauthorized(ctx context.Context, _ *Client, req *http.Request) error {
	token, ok := bearerToken(req.Header.Get("Authorization"))
	if !ok {
		return &xerrors.RedirectError{Location: s.loginPath() + "?clearTokens=true"}
	}
	q := url.Values{auth.AccessTokenKey: {token}}
	if back := ReturnPath(ctx); back != "" {
		q.Set("redirect", back)
	}
	return &xerrors.RedirectError{Location: s.refreshPath() + "?" + q.Encode()}
}

type returnPathKey struct{}

// WithReturnPath records the page being served, so a ServerRedirect can send
// the refresh page back to it.
func WithReturnPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, returnPathKey{}, path)
}

// ReturnPath is the page recorded by WithReturnPath, or "".
func ReturnPath(ctx context.Context) string {
	p, _ := ctx.Value(returnPathKey{}).(string)
	return p
}

func (s ServerRedirect) refreshPath() string {
	if s.RefreshPath == "" {
		return "/refresh-token"
	}
	return s.RefreshPath
}

func (s ServerRedirect) loginPath() string {
	if s.LoginPath == "" {
		return "/login"
	}
	return s.LoginPath
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

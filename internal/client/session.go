// internal/client/session.go
package client

import (
	"context"
	"errors"
	"net/http"

	"bistro-bff/internal/config"
	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/httpclient"
	xerrors "bistro-bff/internal/pkg/errors"
	"bistro-bff/internal/pkg/tokenstore"
	"bistro-bff/internal/refresh"
	"bistro-bff/internal/session"
	ws "bistro-bff/internal/websocket"
	"bistro-bff/internal/websocket/handler"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const loginPath = "/login"

type Options struct {
	Config config.ClientConfig
	// Storage defaults to a file at Config.TokenFile.
	Storage    tokenstore.Storage
	HTTPClient *http.Client
	Dialer     *websocket.Dialer
	// Navigator is told where to go when the session ends.
	Navigator httpclient.Navigator
	// OnEvent receives restaurant events from the realtime socket.
	OnEvent handler.OrderCallback
	Logger  *zap.Logger
}

// Session is everything a signed-in console holds: stored tokens, the
// in-memory role, the API client, the refresh loop and the realtime feed.
type Session struct {
	Store     *tokenstore.Store
	State     *session.State
	HTTP      *httpclient.Client
	Auth      *AuthAPI
	Scheduler *refresh.Scheduler
	Listener  *ws.Listener

	nav    httpclient.Navigator
	logger *zap.Logger
}

func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	storage := opts.Storage
	if storage == nil {
		storage = tokenstore.NewFileStorage(opts.Config.TokenFile)
	}

	s := &Session{
		Store:  tokenstore.New(storage),
		State:  session.New(),
		nav:    opts.Navigator,
		logger: logger,
	}

	teardown := httpclient.NewClientTeardown(httpclient.NavigatorFunc(s.navigate),
		httpclient.WithSessionState(s.State),
		httpclient.WithLoginPath(loginPath),
		httpclient.WithTeardownLogger(logger),
	)
	s.HTTP = httpclient.New(httpclient.Config{
		BaseURL:        opts.Config.UpstreamURL,
		BFFURL:         opts.Config.BFFURL,
		HTTPClient:     opts.HTTPClient,
		Store:          s.Store,
		OnUnauthorized: teardown,
		Logger:         logger,
	})
	s.Auth = NewAuthAPI(s.HTTP, s.State)

	s.Scheduler = refresh.New(s.Store, s.Auth, opts.Config.Refresh,
		refresh.WithLogger(logger),
		refresh.OnSuccess(s.refreshed),
		refresh.OnError(s.refreshFailed),
	)

	reg := ws.NewHandlerRegistry()
	reg.Register(handler.NewSessionHandler(s.Scheduler, logger))
	if opts.OnEvent != nil {
		reg.Register(handler.NewOrderHandler(opts.OnEvent))
	}
	s.Listener = ws.NewListener(ws.Config{
		URL:    opts.Config.SocketURL,
		Dialer: opts.Dialer,
		Logger: logger,
	}, s.Store, reg)

	s.State.Hydrate(s.Store)
	return s
}

// Begin starts the refresh loop and, when realtime is true, the socket.
// A socket that cannot connect is logged; the session still runs.
func (s *Session) Begin(ctx context.Context, realtime bool) error {
	if err := s.Scheduler.Start(ctx); err != nil {
		return err
	}
	if realtime {
		if err := s.Listener.Connect(ctx); err != nil {
			s.logger.Warn("realtime unavailable", zap.Error(err))
		}
	}
	return nil
}

// End stops background work. Stored tokens are kept.
func (s *Session) End() {
	s.Scheduler.Stop()
	if err := s.Listener.Close(); err != nil {
		s.logger.Debug("closing realtime listener", zap.Error(err))
	}
}

func (s *Session) refreshed(pair auth.TokenPair) {
	s.State.SetFromToken(pair.AccessToken)
}

func (s *Session) refreshFailed(err error) {
	s.State.Clear()
	// a 401 already went through teardown, which navigated
	if errors.Is(err, xerrors.ErrSessionTerminated) {
		return
	}
	s.navigate(loginPath)
}

func (s *Session) navigate(location string) {
	if err := s.Listener.Close(); err != nil {
		s.logger.Debug("closing realtime listener", zap.Error(err))
	}
	if s.nav != nil {
		s.nav.Navigate(location)
	}
}

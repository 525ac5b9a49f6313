// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bistro-bff/internal/config"
	"bistro-bff/internal/db"
	"bistro-bff/internal/gate"
	accountHandler "bistro-bff/internal/handlers/account"
	authHandler "bistro-bff/internal/handlers/auth"
	pageHandler "bistro-bff/internal/handlers/pages"
	"bistro-bff/internal/httpclient"
	"bistro-bff/internal/metrics"
	"bistro-bff/internal/middleware"
	"bistro-bff/internal/pkg/cookies"
	"bistro-bff/internal/pkg/jwt"
	"bistro-bff/internal/pkg/session"
	"bistro-bff/internal/service/account"
	authUsecase "bistro-bff/internal/service/auth"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	logger *zap.Logger

	// upstream is the HTTP client for calls to the API; tests swap it.
	upstream *http.Client
	redis    *redis.Client
	// limiter replaces the Redis login limiter when set.
	limiter authUsecase.LoginLimiter

	mu   sync.Mutex
	http *http.Server
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		upstream: &http.Client{Timeout: 15 * time.Second},
	}
}

// Engine builds the router and everything behind it.
func (s *Server) Engine(ctx context.Context) (*gin.Engine, error) {
	// ----- JWT Verifier -----
	verifier, err := jwt.LoadVerifier(s.cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("failed to load JWT verifier: %w", err)
	}

	// ----- Redis (optional) -----
	var (
		limiter authUsecase.LoginLimiter
		revoked authUsecase.RevocationList
	)
	switch {
	case s.limiter != nil:
		limiter = s.limiter
	case s.cfg.RedisAddr != "":
		client, err := db.NewRedisClient(ctx, db.RedisConfig{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPass,
			DB:       s.cfg.RedisDB,
			PoolSize: 10,
		})
		if err != nil {
			return nil, err
		}
		s.redis = client
		limiter = session.NewRateLimiter(client, s.cfg.Limiter)
		revoked = session.NewManager(client)
		s.logger.Info("redis connected", zap.String("addr", s.cfg.RedisAddr))
	default:
		s.logger.Warn("REDIS_ADDR not set; login throttling and refresh revocation disabled")
	}

	// ----- Metrics -----
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// ----- Upstream clients -----
	// Auth proxying echoes upstream 401s; page data turns them into a
	// redirect to the refresh page.
	authUpstream := httpclient.New(httpclient.Config{
		BaseURL:    s.cfg.UpstreamURL,
		BFFURL:     s.cfg.PublicURL,
		HTTPClient: s.upstream,
		Logger:     s.logger,
	})
	rules := s.rules()
	pageUpstream := httpclient.New(httpclient.Config{
		BaseURL:    s.cfg.UpstreamURL,
		BFFURL:     s.cfg.PublicURL,
		HTTPClient: s.upstream,
		Logger:     s.logger,
		OnUnauthorized: httpclient.ServerRedirect{
			RefreshPath: rules.RefreshPath,
			LoginPath:   rules.LoginPath,
		},
	})

	// ----- Services -----
	authService := authUsecase.NewAuthService(authUpstream, verifier, limiter, revoked, s.logger)
	accountService := account.NewAccountService(pageUpstream, s.logger)

	// ----- Handlers -----
	gw := cookies.NewGateway(s.cfg.Cookies, verifier)
	handlers := &Handlers{
		AuthHandler:    authHandler.NewAuthHandler(authService, gw, s.logger),
		AccountHandler: accountHandler.NewAccountHandler(accountService, s.logger),
		PageHandler:    pageHandler.NewPageHandler(authService, accountService, gw, rules, s.logger),
		AuthMiddleware: middleware.NewAuthMiddleware(authService),
		Gate:           gate.New(rules, verifier),
		Cookies:        gw,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	// ----- Middlewares -----
	engine := gin.New()
	engine.Use(
		middleware.LoggingMiddleware(s.logger),
		middleware.RecoveryMiddleware(s.logger),
		middleware.CORSMiddleware(s.cfg.AllowedOrigins),
	)

	SetupRouter(engine, s.logger, handlers)
	return engine, nil
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	engine, err := s.Engine(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	s.logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	var errs []error
	if srv != nil {
		errs = append(errs, srv.Shutdown(ctx))
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	return errors.Join(errs...)
}

func (s *Server) rules() gate.Rules {
	rules := gate.DefaultRules()
	rules.Locales = s.cfg.Locales
	rules.DefaultLocale = s.cfg.DefaultLocale
	return rules
}

// Package refresh renews the stored token pair before the access token runs
// out. A Scheduler is started when a session begins and stopped when it ends.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/metrics"
	"bistro-bff/internal/pkg/jwt"

	"go.uber.org/zap"
)

var (
	ErrNoSession      = errors.New("no session to refresh")
	ErrRefreshExpired = errors.New("refresh token expired")
)

// Refresher exchanges a refresh token for a new pair.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error)
}

// Store is the token storage the scheduler reads and rewrites.
type Store interface {
	Pair() auth.TokenPair
	Refresh() string
	SetPair(auth.TokenPair) error
	Clear() error
}

type Result int

const (
	// Idle means there was no complete pair to look at.
	Idle Result = iota
	// Skipped means the access token still has enough life left.
	Skipped
	Refreshed
	// Discarded means a refresh came back after the session had ended.
	Discarded
	Fatal
)

func (r Result) String() string {
	switch r {
	case Idle:
		return "idle"
	case Skipped:
		return "skipped"
	case Refreshed:
		return "refreshed"
	case Discarded:
		return "discarded"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("result(%d)", int(r))
}

type Config struct {
	// Interval between checks. Must be well under the access-token lifetime.
	Interval time.Duration
	// Threshold is the fraction of the access-token lifetime that, once it is
	// all that remains, triggers a refresh.
	Threshold float64
}

func DefaultConfig() Config {
	return Config{Interval: time.Second, Threshold: 1.0 / 3.0}
}

type Scheduler struct {
	store     Store
	refresher Refresher
	cfg       Config
	now       func() time.Time
	logger    *zap.Logger
	onSuccess func(auth.TokenPair)
	onError   func(error)

	trigger chan struct{}

	// checkMu serialises checks so two refreshes never race on the store.
	checkMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// OnSuccess is called with the new pair after it has been stored.
func OnSuccess(fn func(auth.TokenPair)) Option {
	return func(s *Scheduler) { s.onSuccess = fn }
}

// OnError is called after a fatal failure, once the store has been cleared.
// When the failure came from the polling loop the scheduler is already going
// idle; the callback must not call Stop.
func OnError(fn func(error)) Option {
	return func(s *Scheduler) { s.onError = fn }
}

func New(store Store, refresher Refresher, cfg Config, opts ...Option) *Scheduler {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		cfg.Threshold = def.Threshold
	}
	s := &Scheduler{
		store:     store,
		refresher: refresher,
		cfg:       cfg,
		now:       time.Now,
		logger:    zap.NewNop(),
		onSuccess: func(auth.TokenPair) {},
		onError:   func(error) {},
		trigger:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start moves the scheduler from idle to active. It needs both tokens in the
// store; otherwise it stays idle and returns ErrNoSession. Starting an active
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil
	}
	if !s.store.Pair().Complete() {
		return ErrNoSession
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	return nil
}

// Stop ends polling and waits for an in-flight check to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Trigger asks for an immediate forced check. Requests made while one is
// already pending are coalesced.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	force := false
	for {
		res, _ := s.Check(ctx, force)
		if res == Fatal || res == Idle {
			s.goIdle(done)
			return
		}

		select {
		case <-ctx.Done():
			// parent context gone; Stop may not be coming
			s.goIdle(done)
			return
		case <-ticker.C:
			force = false
		case <-s.trigger:
			force = true
		}
	}
}

// goIdle forgets the running loop without waiting on it (the loop itself is
// the caller). It is a no-op once Stop has taken over.
func (s *Scheduler) goIdle(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == done {
		s.cancel()
		s.cancel, s.done = nil, nil
	}
}

// Check runs one refresh decision. force skips the remaining-lifetime test.
func (s *Scheduler) Check(ctx context.Context, force bool) (Result, error) {
	s.checkMu.Lock()
	defer s.checkMu.Unlock()

	pair := s.store.Pair()
	if !pair.Complete() {
		return Idle, nil
	}

	access, err := jwt.DecodeUnverified(pair.AccessToken)
	if err != nil {
		return s.fatal(fmt.Errorf("stored access token: %w", err))
	}
	refresh, err := jwt.DecodeUnverified(pair.RefreshToken)
	if err != nil {
		return s.fatal(fmt.Errorf("stored refresh token: %w", err))
	}

	now := s.now()
	if refresh.ExpiredAt(now) {
		metrics.RefreshAttempts.WithLabelValues("expired").Inc()
		return s.fatal(ErrRefreshExpired)
	}

	if !force && !s.due(access, now) {
		return Skipped, nil
	}

	next, err := s.refresher.RefreshToken(ctx, pair.RefreshToken)
	if err != nil {
		if ctx.Err() != nil {
			// stopped mid-call; the session did not fail
			return Discarded, ctx.Err()
		}
		metrics.RefreshAttempts.WithLabelValues("failure").Inc()
		return s.fatal(fmt.Errorf("refresh call: %w", err))
	}

	if s.store.Refresh() != pair.RefreshToken {
		s.logger.Info("discarding refresh response for an ended session")
		return Discarded, nil
	}
	if err := s.store.SetPair(next); err != nil {
		return s.fatal(fmt.Errorf("store refreshed tokens: %w", err))
	}

	metrics.RefreshAttempts.WithLabelValues("success").Inc()
	s.logger.Debug("tokens refreshed", zap.Bool("forced", force))
	s.onSuccess(next)
	return Refreshed, nil
}

// due reports whether less than Threshold of the lifetime remains.
func (s *Scheduler) due(access *jwt.Claims, now time.Time) bool {
	lifetime := access.Lifetime()
	if lifetime <= 0 {
		return true
	}
	return access.Remaining(now) < time.Duration(float64(lifetime)*s.cfg.Threshold)
}

func (s *Scheduler) fatal(err error) (Result, error) {
	if cerr := s.store.Clear(); cerr != nil {
		s.logger.Error("failed to clear tokens", zap.Error(cerr))
	}
	s.logger.Warn("session refresh failed", zap.Error(err))
	s.onError(err)
	return Fatal, err
}

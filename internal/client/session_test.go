package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bistro-bff/internal/config"
	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/httpclient"
	xerrors "bistro-bff/internal/pkg/errors"
	"bistro-bff/internal/pkg/jwt"
	"bistro-bff/internal/refresh"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBFF answers the auth routes and rejects every other call with 401.
type fakeBFF struct {
	gen           *jwt.Generator
	refreshStatus int
	refreshCalls  atomic.Int32
	logoutCalls   atomic.Int32

	firstOnce    sync.Once
	firstRefresh atomic.Value
}

func newFakeBFF(t *testing.T, accessTTL time.Duration) (*fakeBFF, *httptest.Server) {
	f := &fakeBFF{
		gen:           jwt.NewGenerator([]byte("console-secret"), accessTTL, time.Hour),
		refreshStatus: http.StatusOK,
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeBFF) serve(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/auth/login":
		f.issue(w, auth.RoleEmployee)
	case "/api/guest/auth/login":
		f.issue(w, auth.RoleGuest)
	case "/api/auth/refresh-token":
		f.refreshCalls.Add(1)
		var body auth.RefreshTokenRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.firstOnce.Do(func() { f.firstRefresh.Store(body.RefreshToken) })
		if f.refreshStatus != http.StatusOK {
			w.WriteHeader(f.refreshStatus)
			_, _ = w.Write([]byte(`{"message":"refresh rejected"}`))
			return
		}
		f.issue(w, auth.RoleEmployee)
	case "/api/auth/logout", "/api/guest/auth/logout":
		f.logoutCalls.Add(1)
		_, _ = w.Write([]byte(`{"message":"logged out"}`))
	default:
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"unauthorized"}`))
	}
}

func (f *fakeBFF) issue(w http.ResponseWriter, role auth.Role) {
	pair, err := f.gen.GeneratePair(7, role)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	data, _ := json.Marshal(auth.LoginData{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	_ = json.NewEncoder(w).Encode(auth.Envelope{Message: "ok", Data: data})
}

type recordingNavigator struct {
	mu        sync.Mutex
	locations []string
}

func (n *recordingNavigator) Navigate(location string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.locations = append(n.locations, location)
}

func (n *recordingNavigator) Locations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.locations...)
}

func newSession(t *testing.T, srv *httptest.Server, nav httpclient.Navigator, rc refresh.Config) *Session {
	t.Helper()
	return New(Options{
		Config: config.ClientConfig{
			BFFURL:      srv.URL,
			UpstreamURL: srv.URL,
			SocketURL:   "ws" + srv.URL[len("http"):] + "/socket",
			TokenFile:   filepath.Join(t.TempDir(), "tokens.json"),
			Refresh:     rc,
		},
		Navigator: nav,
	})
}

func TestLoginPersistsAcrossRestarts(t *testing.T) {
	_, srv := newFakeBFF(t, 10*time.Minute)
	file := filepath.Join(t.TempDir(), "tokens.json")
	cfg := config.ClientConfig{BFFURL: srv.URL, UpstreamURL: srv.URL, TokenFile: file}

	first := New(Options{Config: cfg})
	_, err := first.Auth.Login(context.Background(), auth.LoginRequest{Email: "chef@bistro.test", Password: "secret1"})
	require.NoError(t, err)

	role, ok := first.State.Role()
	require.True(t, ok)
	assert.Equal(t, auth.RoleEmployee, role)
	assert.True(t, first.Store.Pair().Complete())

	second := New(Options{Config: cfg})
	role, ok = second.State.Role()
	require.True(t, ok, "state is hydrated from the stored access token")
	assert.Equal(t, auth.RoleEmployee, role)
	assert.Equal(t, first.Store.Pair(), second.Store.Pair())
}

func TestGuestLogoutClearsSession(t *testing.T) {
	bff, srv := newFakeBFF(t, 10*time.Minute)
	s := newSession(t, srv, nil, refresh.Config{})

	_, err := s.Auth.GuestLogin(context.Background(), auth.GuestLoginRequest{Name: "Ana", TableNumber: 4, Token: "table-4"})
	require.NoError(t, err)
	role, _ := s.State.Role()
	assert.Equal(t, auth.RoleGuest, role)

	require.NoError(t, s.Auth.Logout(context.Background(), true))
	assert.Equal(t, int32(1), bff.logoutCalls.Load())
	assert.False(t, s.State.IsAuthenticated())
	assert.Empty(t, s.Store.Access())
	assert.Empty(t, s.Store.Refresh())
}

func TestRefreshLoopRenewsTokens(t *testing.T) {
	bff, srv := newFakeBFF(t, 3*time.Second)
	s := newSession(t, srv, nil, refresh.Config{Interval: 10 * time.Millisecond, Threshold: 0.99})

	_, err := s.Auth.Login(context.Background(), auth.LoginRequest{Email: "chef@bistro.test", Password: "secret1"})
	require.NoError(t, err)
	original := s.Store.Pair()

	require.NoError(t, s.Begin(context.Background(), false))
	defer s.End()

	require.Eventually(t, func() bool {
		return bff.refreshCalls.Load() >= 1 && s.Store.Access() != original.AccessToken
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, original.RefreshToken, bff.firstRefresh.Load())
	assert.True(t, s.State.IsAuthenticated())
}

func TestRefreshFailureEndsSession(t *testing.T) {
	bff, srv := newFakeBFF(t, 3*time.Second)
	bff.refreshStatus = http.StatusInternalServerError
	nav := &recordingNavigator{}
	s := newSession(t, srv, nav, refresh.Config{Interval: 10 * time.Millisecond, Threshold: 0.99})

	_, err := s.Auth.Login(context.Background(), auth.LoginRequest{Email: "chef@bistro.test", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, s.Begin(context.Background(), false))
	defer s.End()

	require.Eventually(t, func() bool { return len(nav.Locations()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"/login"}, nav.Locations())
	assert.False(t, s.State.IsAuthenticated())
	assert.False(t, s.Store.Pair().Complete())
	assert.Eventually(t, func() bool { return !s.Scheduler.Active() }, time.Second, 10*time.Millisecond)
}

func TestUnauthorizedCallEndsSession(t *testing.T) {
	bff, srv := newFakeBFF(t, 10*time.Minute)
	nav := &recordingNavigator{}
	s := newSession(t, srv, nav, refresh.Config{})

	_, err := s.Auth.Login(context.Background(), auth.LoginRequest{Email: "chef@bistro.test", Password: "secret1"})
	require.NoError(t, err)

	_, err = s.HTTP.Get(context.Background(), "/dishes", httpclient.Options{})
	assert.ErrorIs(t, err, xerrors.ErrSessionTerminated)

	assert.Equal(t, int32(1), bff.logoutCalls.Load())
	assert.Equal(t, []string{"/login"}, nav.Locations())
	assert.False(t, s.State.IsAuthenticated())
	assert.Empty(t, s.Store.Access())
	assert.Empty(t, s.Store.Refresh())
}

func TestBeginWithoutSession(t *testing.T) {
	_, srv := newFakeBFF(t, 10*time.Minute)
	s := newSession(t, srv, nil, refresh.Config{})

	err := s.Begin(context.Background(), true)
	assert.ErrorIs(t, err, refresh.ErrNoSession)
	s.End()
}

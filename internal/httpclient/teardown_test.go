package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bistro-bff/internal/domain/auth"
	xerrors "bistro-bff/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/singleflight"
)

// countingDeduper records how many callers reached the deduplication point.
type countingDeduper struct {
	group   singleflight.Group
	entered atomic.Int32
}

func (d *countingDeduper) Do(key string, fn func() (interface{}, error)) (interface{}, error, bool) {
	d.entered.Add(1)
	return d.group.Do(key, fn)
}

type fakeState struct{ cleared atomic.Int32 }

func (s *fakeState) Clear() { s.cleared.Add(1) }

// waitFor polls cond for up to five seconds. Safe to call off the test goroutine.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

func TestConcurrentUnauthorizedLogsOutOnce(t *testing.T) {
	for _, n := range []int{1, 2, 8, 32} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			dedup := &countingDeduper{}
			var logoutCalls atomic.Int32

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/api/auth/logout":
					logoutCalls.Add(1)
					waitFor(func() bool { return dedup.entered.Load() >= int32(n) })
					// let the last caller join the in-flight logout
					time.Sleep(20 * time.Millisecond)
					w.WriteHeader(http.StatusOK)
					_, _ = w.Write([]byte(`{"message":"Logged out"}`))
				default:
					w.WriteHeader(http.StatusUnauthorized)
					_, _ = w.Write([]byte(`{"message":"token expired"}`))
				}
			}))
			defer srv.Close()

			store := memoryStore()
			require.NoError(t, store.SetPair(auth.TokenPair{AccessToken: "a", RefreshToken: "r"}))

			state := &fakeState{}
			var navigations []string
			var navMu sync.Mutex
			td := NewClientTeardown(NavigatorFunc(func(loc string) {
				navMu.Lock()
				defer navMu.Unlock()
				navigations = append(navigations, loc)
			}), WithDeduper(dedup), WithSessionState(state))

			c := New(Config{BaseURL: srv.URL, BFFURL: srv.URL, Store: store, OnUnauthorized: td})

			var wg sync.WaitGroup
			errs := make([]error, n)
			sawCleared := make([]bool, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = c.Get(context.Background(), "/orders", Options{})
					sawCleared[i] = store.Access() == "" && store.Refresh() == ""
				}(i)
			}
			wg.Wait()

			assert.Equal(t, int32(1), logoutCalls.Load())
			assert.Equal(t, int32(1), state.cleared.Load())
			assert.Equal(t, []string{"/login"}, navigations)
			for i := 0; i < n; i++ {
				assert.True(t, errors.Is(errs[i], xerrors.ErrSessionTerminated))
				assert.True(t, sawCleared[i])
			}
		})
	}
}

func TestTeardownProceedsWhenLogoutFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/logout" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := memoryStore()
	require.NoError(t, store.SetPair(auth.TokenPair{AccessToken: "a", RefreshToken: "r"}))

	var navigated string
	td := NewClientTeardown(NavigatorFunc(func(loc string) { navigated = loc }), WithLoginPath("/en/login"))
	c := New(Config{BaseURL: srv.URL, BFFURL: srv.URL, Store: store, OnUnauthorized: td})

	_, err := c.Get(context.Background(), "/orders", Options{})
	assert.True(t, errors.Is(err, xerrors.ErrSessionTerminated))
	assert.Empty(t, store.Access())
	assert.Empty(t, store.Refresh())
	assert.Equal(t, "/en/login", navigated)

	// a later 401 starts a fresh teardown rather than being wedged
	require.NoError(t, store.SetPair(auth.TokenPair{AccessToken: "a2", RefreshToken: "r2"}))
	navigated = ""
	_, err = c.Get(context.Background(), "/orders", Options{})
	assert.True(t, errors.Is(err, xerrors.ErrSessionTerminated))
	assert.Equal(t, "/en/login", navigated)
	assert.Empty(t, store.Refresh())
}

func TestTeardownLogoutCallIsNotRecursive(t *testing.T) {
	var logoutCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/logout" {
			logoutCalls.Add(1)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	td := NewClientTeardown(nil)
	c := New(Config{BaseURL: srv.URL, BFFURL: srv.URL, Store: memoryStore(), OnUnauthorized: td})

	_, err := c.Get(context.Background(), "/orders", Options{})
	assert.True(t, errors.Is(err, xerrors.ErrSessionTerminated))
	assert.Equal(t, int32(1), logoutCalls.Load())
}

func TestServerRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, OnUnauthorized: ServerRedirect{}})

	t.Run("carries the expired access token", func(t *testing.T) {
		_, err := c.Get(context.Background(), "/accounts/me", Options{
			Headers: http.Header{"Authorization": {"Bearer expired.token.value"}},
		})
		var redirect *xerrors.RedirectError
		require.True(t, errors.As(err, &redirect))

		u, perr := url.Parse(redirect.Location)
		require.NoError(t, perr)
		assert.Equal(t, "/refresh-token", u.Path)
		assert.Equal(t, "expired.token.value", u.Query().Get("accessToken"))
		assert.True(t, IsUnauthorized(err))
		assert.Empty(t, u.Query().Get("redirect"))
	})

	t.Run("returns to the page being served", func(t *testing.T) {
		ctx := WithReturnPath(context.Background(), "/manage/orders?tab=open")
		_, err := c.Get(ctx, "/accounts/me", Options{
			Headers: http.Header{"Authorization": {"Bearer expired.token.value"}},
		})
		var redirect *xerrors.RedirectError
		require.True(t, errors.As(err, &redirect))

		u, perr := url.Parse(redirect.Location)
		require.NoError(t, perr)
		assert.Equal(t, "/manage/orders?tab=open", u.Query().Get("redirect"))
		assert.Equal(t, "expired.token.value", u.Query().Get("accessToken"))
	})

	t.Run("missing header goes to login", func(t *testing.T) {
		_, err := c.Get(context.Background(), "/accounts/me", Options{})
		var redirect *xerrors.RedirectError
		require.True(t, errors.As(err, &redirect))
		assert.Equal(t, "/login?clearTokens=true", redirect.Location)
	})

	t.Run("malformed header goes to login", func(t *testing.T) {
		_, err := c.Get(context.Background(), "/accounts/me", Options{
			Headers: http.Header{"Authorization": {"Token abc"}},
		})
		var redirect *xerrors.RedirectError
		require.True(t, errors.As(err, &redirect))
		assert.Equal(t, "/login?clearTokens=true", redirect.Location)
	})
}

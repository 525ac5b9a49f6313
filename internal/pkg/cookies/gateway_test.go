package cookies

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("cookie-secret")

func newPair(t *testing.T, now time.Time) auth.TokenPair {
	t.Helper()
	gen := jwt.NewGenerator(secret, 30*time.Second, 24*time.Hour)
	gen.Now = func() time.Time { return now }
	pair, err := gen.GeneratePair(9, auth.RoleEmployee)
	require.NoError(t, err)
	return pair
}

func byName(cs []*http.Cookie) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie, len(cs))
	for _, c := range cs {
		out[c.Name] = c
	}
	return out
}

func TestSetAuthCookies(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	pair := newPair(t, now)
	gw := NewGateway(DefaultConfig(), jwt.NewVerifier(secret))

	rec := httptest.NewRecorder()
	require.NoError(t, gw.SetAuthCookies(rec, pair.AccessToken, pair.RefreshToken))

	cs := byName(rec.Result().Cookies())
	require.Len(t, cs, 2)

	access := cs[auth.AccessTokenKey]
	assert.Equal(t, pair.AccessToken, access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, now.Add(30*time.Second).Unix(), access.Expires.Unix())

	refresh := cs[auth.RefreshTokenKey]
	assert.Equal(t, pair.RefreshToken, refresh.Value)
	assert.Equal(t, now.Add(24*time.Hour).Unix(), refresh.Expires.Unix())
}

func TestSetAuthCookiesRejectsUnverified(t *testing.T) {
	pair := newPair(t, time.Now())
	gw := NewGateway(DefaultConfig(), jwt.NewVerifier([]byte("someone-else")))

	rec := httptest.NewRecorder()
	err := gw.SetAuthCookies(rec, pair.AccessToken, pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrInvalidToken))
	assert.Empty(t, rec.Result().Cookies())

	gw = NewGateway(DefaultConfig(), jwt.NewVerifier(secret))
	rec = httptest.NewRecorder()
	err = gw.SetAuthCookies(rec, pair.AccessToken, "garbage")
	assert.True(t, errors.Is(err, jwt.ErrDecode))
	assert.Empty(t, rec.Result().Cookies())
}

func TestSetThenClearLeavesNoCookies(t *testing.T) {
	pair := newPair(t, time.Now())
	gw := NewGateway(DefaultConfig(), jwt.NewVerifier(secret))

	set := httptest.NewRecorder()
	require.NoError(t, gw.SetAuthCookies(set, pair.AccessToken, pair.RefreshToken))

	clear := httptest.NewRecorder()
	gw.ClearAuthCookies(clear)
	gw.ClearAuthCookies(clear)

	// replay both responses against a browser-like request: cleared cookies
	// carry MaxAge<0 and must not be readable afterwards
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	jar := map[string]string{}
	for _, c := range append(set.Result().Cookies(), clear.Result().Cookies()...) {
		if c.MaxAge < 0 {
			delete(jar, c.Name)
			continue
		}
		jar[c.Name] = c.Value
	}
	for name, value := range jar {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	assert.Equal(t, Pair{}, Read(req))
}

func TestRead(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshTokenKey, Value: "r"})
	assert.Equal(t, Pair{RefreshToken: "r"}, Read(req))
}

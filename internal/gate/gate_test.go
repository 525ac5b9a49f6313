package gate

import (
	"net/url"
	"testing"
	"time"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/pkg/cookies"
	"bistro-bff/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("gate-secret")

func pairFor(t *testing.T, role auth.Role) auth.TokenPair {
	t.Helper()
	pair, err := jwt.NewGenerator(secret, time.Minute, time.Hour).GeneratePair(1, role)
	require.NoError(t, err)
	return pair
}

func expiredRefresh(t *testing.T) string {
	t.Helper()
	gen := jwt.NewGenerator(secret, time.Minute, time.Hour)
	gen.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	pair, err := gen.GeneratePair(1, auth.RoleOwner)
	require.NoError(t, err)
	return pair.RefreshToken
}

func newGate() *Gate {
	return New(DefaultRules(), jwt.NewVerifier(secret))
}

func TestExpiredRefreshOnPrivatePath(t *testing.T) {
	d := newGate().Decide("/manage/dashboard", url.Values{}, cookies.Pair{RefreshToken: expiredRefresh(t)})
	assert.Equal(t, RedirectLogin, d.Outcome)
	assert.Equal(t, "/login?clearTokens=true", d.Location)
	assert.True(t, d.ClearCookies)
}

func TestNoCookiesOnPrivatePath(t *testing.T) {
	for _, p := range []string{"/manage", "/manage/orders", "/guest/menu"} {
		d := newGate().Decide(p, url.Values{}, cookies.Pair{})
		assert.Equal(t, RedirectLogin, d.Outcome, p)
		assert.Equal(t, "/login?clearTokens=true", d.Location, p)
		assert.False(t, d.ClearCookies, p)
	}
}

func TestValidRefreshWithoutAccessCookie(t *testing.T) {
	pair := pairFor(t, auth.RoleEmployee)
	d := newGate().Decide("/manage/orders", url.Values{}, cookies.Pair{RefreshToken: pair.RefreshToken})
	require.Equal(t, RedirectRefresh, d.Outcome)

	u, err := url.Parse(d.Location)
	require.NoError(t, err)
	assert.Equal(t, "/refresh-token", u.Path)
	assert.Equal(t, pair.RefreshToken, u.Query().Get("refreshToken"))
	assert.Equal(t, "/manage/orders", u.Query().Get("redirect"))
}

func TestGuestOnManagePath(t *testing.T) {
	pair := pairFor(t, auth.RoleGuest)
	d := newGate().Decide("/manage/accounts", url.Values{}, cookies.Pair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	assert.Equal(t, RedirectForbid, d.Outcome)
	assert.Equal(t, "/", d.Location)
}

func TestLoginWithClearTokensIsNotRedirected(t *testing.T) {
	pair := pairFor(t, auth.RoleOwner)
	c := cookies.Pair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}

	d := newGate().Decide("/login", url.Values{"clearTokens": {"true"}}, c)
	assert.Equal(t, Passthrough, d.Outcome)

	d = newGate().Decide("/login", url.Values{}, c)
	assert.Equal(t, RedirectHome, d.Outcome)
	assert.Equal(t, "/", d.Location)

	// follow the chain for a user whose cookies were cleared server side
	first := newGate().Decide("/manage", url.Values{}, cookies.Pair{})
	require.Equal(t, RedirectLogin, first.Outcome)
	u, err := url.Parse(first.Location)
	require.NoError(t, err)
	second := newGate().Decide(u.Path, u.Query(), cookies.Pair{})
	assert.Equal(t, Passthrough, second.Outcome)
}

func TestRoleGateCompleteness(t *testing.T) {
	ownerOnly := []string{"/manage/accounts", "/manage/accounts/12"}
	guestOnly := []string{"/guest", "/guest/menu", "/guest/orders"}
	manage := []string{"/manage", "/manage/dashboard", "/manage/orders", "/manage/dishes", "/manage/tables"}

	type check struct {
		path    string
		role    auth.Role
		allowed bool
	}
	var checks []check
	for _, p := range ownerOnly {
		checks = append(checks,
			check{p, auth.RoleOwner, true},
			check{p, auth.RoleEmployee, false},
			check{p, auth.RoleGuest, false},
		)
	}
	for _, p := range guestOnly {
		checks = append(checks,
			check{p, auth.RoleGuest, true},
			check{p, auth.RoleEmployee, false},
			check{p, auth.RoleOwner, false},
		)
	}
	for _, p := range manage {
		checks = append(checks,
			check{p, auth.RoleGuest, false},
			check{p, auth.RoleEmployee, true},
			check{p, auth.RoleOwner, true},
		)
	}

	g := newGate()
	for _, c := range checks {
		pair := pairFor(t, c.role)
		d := g.Decide(c.path, url.Values{}, cookies.Pair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
		if c.allowed {
			assert.Equal(t, Passthrough, d.Outcome, "%s as %s", c.path, c.role)
		} else {
			assert.Equal(t, RedirectForbid, d.Outcome, "%s as %s", c.path, c.role)
			assert.Equal(t, "/", d.Location)
		}
	}
}

func TestUnknownRoleIsDenied(t *testing.T) {
	gen := jwt.NewGenerator(secret, time.Minute, time.Hour)
	now := time.Now()
	refresh, err := gen.Sign(&jwt.Claims{
		Role:             auth.Role("Admin"),
		TokenType:        jwt.RefreshTokenType,
		RegisteredClaims: jwtRegistered(now, now.Add(time.Hour)),
	})
	require.NoError(t, err)

	for _, p := range []string{"/manage/orders", "/guest/menu"} {
		d := newGate().Decide(p, url.Values{}, cookies.Pair{AccessToken: "x", RefreshToken: refresh})
		assert.Equal(t, RedirectForbid, d.Outcome, p)
	}
}

func TestForgedRefreshIsNotASession(t *testing.T) {
	forged, err := jwt.NewGenerator([]byte("attacker"), time.Minute, time.Hour).GeneratePair(1, auth.RoleOwner)
	require.NoError(t, err)

	d := newGate().Decide("/manage/accounts", url.Values{}, cookies.Pair{AccessToken: forged.AccessToken, RefreshToken: forged.RefreshToken})
	assert.Equal(t, RedirectLogin, d.Outcome)
	assert.True(t, d.ClearCookies)
}

func TestPublicPathsPassThrough(t *testing.T) {
	for _, p := range []string{"/", "/menu", "/tables/3", "/managers", "/login"} {
		d := newGate().Decide(p, url.Values{}, cookies.Pair{})
		assert.Equal(t, Passthrough, d.Outcome, p)
	}
}

func TestLocalePrefix(t *testing.T) {
	rules := DefaultRules()
	rules.Locales = []string{"en", "vi"}
	rules.DefaultLocale = "en"
	g := New(rules, jwt.NewVerifier(secret))

	d := g.Decide("/vi/manage/orders", url.Values{}, cookies.Pair{})
	assert.Equal(t, RedirectLogin, d.Outcome)
	assert.Equal(t, "/vi/login?clearTokens=true", d.Location)

	pair := pairFor(t, auth.RoleEmployee)
	d = g.Decide("/en/manage/orders", url.Values{}, cookies.Pair{RefreshToken: pair.RefreshToken})
	require.Equal(t, RedirectRefresh, d.Outcome)
	u, err := url.Parse(d.Location)
	require.NoError(t, err)
	assert.Equal(t, "/en/refresh-token", u.Path)
	assert.Equal(t, "/en/manage/orders", u.Query().Get("redirect"))

	d = g.Decide("/en/login", url.Values{}, cookies.Pair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	assert.Equal(t, "/en", d.Location)

	d = g.Decide("/menu", url.Values{"table": {"3"}}, cookies.Pair{})
	assert.Equal(t, RedirectLocale, d.Outcome)
	assert.Equal(t, "/en/menu?table=3", d.Location)

	d = g.Decide("/en/menu", url.Values{}, cookies.Pair{})
	assert.Equal(t, Passthrough, d.Outcome)
}

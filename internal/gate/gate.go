// Package gate decides, before any page code runs, whether a navigation may
// proceed or must be redirected. Decide is a pure function of the path, the
// query and the request cookies.
package gate

import (
	"net/url"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/pkg/cookies"
	"bistro-bff/internal/pkg/jwt"
)

type Outcome string

const (
	Passthrough     Outcome = "passthrough"
	RedirectLogin   Outcome = "login"
	RedirectHome    Outcome = "home"
	RedirectRefresh Outcome = "refresh"
	RedirectForbid  Outcome = "forbidden"
	RedirectLocale  Outcome = "locale"
)

const clearTokensParam = "clearTokens"

type Decision struct {
	Outcome  Outcome
	Location string
	// ClearCookies is set when the request carried a refresh cookie that
	// failed verification.
	ClearCookies bool
}

func (d Decision) Redirect() bool {
	return d.Outcome != Passthrough
}

type Gate struct {
	rules    Rules
	verifier *jwt.Verifier
}

func New(rules Rules, verifier *jwt.Verifier) *Gate {
	return &Gate{rules: rules, verifier: verifier}
}

func (g *Gate) Rules() Rules { return g.rules }

// Decide applies the rules in order; the first one that fires wins.
func (g *Gate) Decide(path string, query url.Values, c cookies.Pair) Decision {
	locale, p := g.rules.splitLocale(path)

	var role auth.Role
	isAuth := false
	badCookie := false
	if c.RefreshToken != "" {
		claims, err := g.verifier.VerifyRefreshToken(c.RefreshToken)
		if err == nil {
			role = claims.Role
			isAuth = true
		} else {
			badCookie = true
		}
	}

	private := matchAny(g.rules.Private, p)
	clearing := query.Get(clearTokensParam) == "true"

	// 1. private path without a session
	if private && !isAuth {
		q := url.Values{clearTokensParam: {"true"}}
		return Decision{
			Outcome:      RedirectLogin,
			Location:     withLocale(locale, g.rules.LoginPath) + "?" + q.Encode(),
			ClearCookies: badCookie,
		}
	}

	if isAuth {
		// 2. session on a login-only page; clearTokens must get through or
		// rule 1 and this rule bounce forever
		if matchAny(g.rules.UnauthOnly, p) && !clearing {
			return Decision{Outcome: RedirectHome, Location: withLocale(locale, g.rules.HomePath)}
		}

		// 3. access cookie gone, refresh still valid
		if private && c.AccessToken == "" {
			q := url.Values{}
			q.Set(auth.RefreshTokenKey, c.RefreshToken)
			q.Set("redirect", path)
			return Decision{Outcome: RedirectRefresh, Location: withLocale(locale, g.rules.RefreshPath) + "?" + q.Encode()}
		}

		// 4. role gates
		if !roleAllowed(g.rules, role, p) {
			return Decision{Outcome: RedirectForbid, Location: withLocale(locale, g.rules.HomePath)}
		}
	}

	// 5. passthrough, after locale prefixing
	if locale == "" && g.rules.DefaultLocale != "" {
		loc := withLocale(g.rules.DefaultLocale, path)
		if enc := query.Encode(); enc != "" {
			loc += "?" + enc
		}
		return Decision{Outcome: RedirectLocale, Location: loc, ClearCookies: badCookie}
	}
	return Decision{Outcome: Passthrough, ClearCookies: badCookie}
}

func roleAllowed(r Rules, role auth.Role, path string) bool {
	if matchAny(r.Manage, path) && !role.IsStaff() {
		return false
	}
	if matchAny(r.GuestOnly, path) && role != auth.RoleGuest {
		return false
	}
	if matchAny(r.OwnerOnly, path) && role != auth.RoleOwner {
		return false
	}
	return true
}

package gate

import "strings"

// Rules classifies paths. Prefixes match a whole segment: "/manage" matches
// "/manage" and "/manage/orders" but not "/managers".
type Rules struct {
	// Private paths require a session.
	Private []string
	// Manage paths are closed to guests.
	Manage []string
	// GuestOnly paths are closed to staff.
	GuestOnly []string
	// OwnerOnly paths are closed to everyone but owners.
	OwnerOnly []string
	// UnauthOnly paths make no sense with a session (the login page).
	UnauthOnly []string

	LoginPath   string
	RefreshPath string
	HomePath    string

	// Locales lists the locale segments the i18n router prefixes paths with.
	// When DefaultLocale is set, unprefixed paths are redirected to it.
	Locales       []string
	DefaultLocale string
}

func DefaultRules() Rules {
	return Rules{
		Private:     []string{"/manage", "/guest"},
		Manage:      []string{"/manage"},
		GuestOnly:   []string{"/guest"},
		OwnerOnly:   []string{"/manage/accounts"},
		UnauthOnly:  []string{"/login"},
		LoginPath:   "/login",
		RefreshPath: "/refresh-token",
		HomePath:    "/",
	}
}

func matchAny(prefixes []string, path string) bool {
	for _, p := range prefixes {
		p = strings.TrimRight(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// splitLocale strips a known locale segment. "/en/manage" -> ("en", "/manage").
func (r Rules) splitLocale(path string) (string, string) {
	if len(r.Locales) == 0 {
		return "", path
	}
	trimmed := strings.TrimPrefix(path, "/")
	first, rest, _ := strings.Cut(trimmed, "/")
	for _, l := range r.Locales {
		if first == l {
			return l, "/" + rest
		}
	}
	return "", path
}

func withLocale(locale, path string) string {
	if locale == "" {
		return path
	}
	if path == "/" {
		return "/" + locale
	}
	return "/" + locale + path
}

// IsManagement reports whether path, locale prefix included, is in the
// management area.
func (r Rules) IsManagement(path string) bool {
	_, p := r.splitLocale(path)
	return matchAny(r.Manage, p)
}

// LocalizedHome is HomePath under the locale path carries, if any.
func (r Rules) LocalizedHome(path string) string {
	locale, _ := r.splitLocale(path)
	home := r.HomePath
	if home == "" {
		home = "/"
	}
	return withLocale(locale, home)
}

// StripLocale splits a leading locale segment off path.
func (r Rules) StripLocale(path string) (locale, rest string) {
	return r.splitLocale(path)
}

// WithLocale prefixes path with locale when one is given.
func (r Rules) WithLocale(locale, path string) string {
	return withLocale(locale, path)
}

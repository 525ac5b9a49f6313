package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "COOKIE_SECURE", "COOKIE_SAMESITE", "LOCALES", "REFRESH_THRESHOLD", "REFRESH_INTERVAL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.True(t, cfg.Cookies.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cfg.Cookies.SameSite)
	assert.Nil(t, cfg.Locales)

	client := LoadClient()
	assert.Equal(t, time.Second, client.Refresh.Interval)
	assert.InDelta(t, 1.0/3.0, client.Refresh.Threshold, 1e-9)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("COOKIE_SAMESITE", "Strict")
	t.Setenv("LOCALES", "en, vi ,")
	t.Setenv("LOGIN_WINDOW", "2m")
	t.Setenv("REFRESH_THRESHOLD", "0.5")
	t.Setenv("REFRESH_INTERVAL", "250ms")

	cfg := Load()
	assert.False(t, cfg.Cookies.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cfg.Cookies.SameSite)
	assert.Equal(t, []string{"en", "vi"}, cfg.Locales)
	assert.Equal(t, 2*time.Minute, cfg.Limiter.Window)

	client := LoadClient()
	assert.Equal(t, 0.5, client.Refresh.Threshold)
	assert.Equal(t, 250*time.Millisecond, client.Refresh.Interval)
}

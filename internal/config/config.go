package config

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"bistro-bff/internal/pkg/cookies"
	"bistro-bff/internal/pkg/jwt"
	"bistro-bff/internal/pkg/session"
	"bistro-bff/internal/refresh"
)

type AppConfig struct {
	// Server
	HTTPAddr string
	// UpstreamURL is the REST API the BFF proxies to.
	UpstreamURL string
	// PublicURL is the BFF's own base URL as clients reach it.
	PublicURL      string
	AllowedOrigins []string
	RedisAddr      string
	RedisPass      string
	RedisDB        int

	// JWT
	JWT jwt.Config

	Cookies cookies.Config
	Limiter session.LimiterConfig

	// i18n
	Locales       []string
	DefaultLocale string
}

// ClientConfig is what the console needs; flags may override it.
type ClientConfig struct {
	BFFURL      string
	UpstreamURL string
	SocketURL   string
	TokenFile   string
	Refresh     refresh.Config
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:       getEnv("HTTP_ADDR", ":3000"),
		UpstreamURL:    getEnv("UPSTREAM_URL", "http://localhost:4000"),
		PublicURL:      getEnv("PUBLIC_URL", "http://localhost:3000"),
		AllowedOrigins: getEnvSlice("CORS_ORIGINS", nil),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPass:      getEnv("REDIS_PASS", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),

		JWT: jwt.Config{
			Secret:  getEnv("JWT_SECRET", ""),
			PubPath: getEnv("JWT_PUBLIC_KEY_PATH", ""),
		},

		Cookies: cookies.Config{
			Secure:   getEnvBool("COOKIE_SECURE", true),
			SameSite: getEnvSameSite("COOKIE_SAMESITE", http.SameSiteLaxMode),
			Domain:   getEnv("COOKIE_DOMAIN", ""),
		},
		Limiter: session.LimiterConfig{
			MaxAttempts: int64(getEnvInt("LOGIN_MAX_ATTEMPTS", 5)),
			Window:      getEnvDuration("LOGIN_WINDOW", 15*time.Minute),
		},

		Locales:       getEnvSlice("LOCALES", nil),
		DefaultLocale: getEnv("DEFAULT_LOCALE", ""),
	}
}

// LoadClient loads the console configuration.
func LoadClient() ClientConfig {
	home, _ := os.UserHomeDir()
	return ClientConfig{
		BFFURL:      getEnv("BFF_URL", "http://localhost:3000"),
		UpstreamURL: getEnv("UPSTREAM_URL", "http://localhost:4000"),
		SocketURL:   getEnv("SOCKET_URL", "ws://localhost:4000/socket"),
		TokenFile:   getEnv("TOKEN_FILE", home+"/.bistro/tokens.json"),
		Refresh: refresh.Config{
			Interval:  getEnvDuration("REFRESH_INTERVAL", time.Second),
			Threshold: getEnvFloat("REFRESH_THRESHOLD", 1.0/3.0),
		},
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.ToLower(v) == "true"
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvSameSite(key string, fallback http.SameSite) http.SameSite {
	switch strings.ToLower(os.Getenv(key)) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	}
	return fallback
}

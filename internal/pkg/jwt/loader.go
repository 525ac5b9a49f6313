// internal/pkg/jwt/loader.go
package jwt

import (
	"fmt"
)

type Config struct {
	// Secret is the HMAC key shared with the upstream API.
	Secret string
	// PubPath switches verification to RS256 when set.
	PubPath string
}

// LoadVerifier builds the verifier described by cfg.
func LoadVerifier(cfg Config) (*Verifier, error) {
	if cfg.PubPath != "" {
		pub, err := LoadRSAPublicKey(cfg.PubPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load public key from %s: %w", cfg.PubPath, err)
		}
		return NewRSAVerifier(pub), nil
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt: either a secret or a public key path is required")
	}
	return NewVerifier([]byte(cfg.Secret)), nil
}

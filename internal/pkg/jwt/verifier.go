// internal/pkg/jwt/verifier.go
package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Verifier struct {
	secret []byte
	pub    *rsa.PublicKey
	now    func() time.Time
}

// NewVerifier builds an HMAC (HS256) verifier.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret, now: time.Now}
}

// NewRSAVerifier builds a verifier for RS256-signed tokens.
func NewRSAVerifier(pub *rsa.PublicKey) *Verifier {
	return &Verifier{pub: pub, now: time.Now}
}

// WithClock overrides the time source used for exp/nbf checks.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	cp := *v
	cp.now = now
	return &cp
}

// VerifyAndDecode checks signature and standard claims and returns the claims.
func (v *Verifier) VerifyAndDecode(tokenString string) (*Claims, error) {
	if v.secret == nil && v.pub == nil {
		return nil, &InvalidTokenError{Err: fmt.Errorf("jwt verifier has no key")}
	}

	methods := []string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}
	if v.pub != nil {
		methods = []string{jwt.SigningMethodRS256.Alg(), jwt.SigningMethodRS384.Alg(), jwt.SigningMethodRS512.Alg()}
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if v.pub != nil {
			return v.pub, nil
		}
		return v.secret, nil
	},
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, &DecodeError{Err: err}
		}
		return nil, &InvalidTokenError{Err: err}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, &InvalidTokenError{Err: fmt.Errorf("invalid token claims")}
	}
	return claims, nil
}

// VerifyAccessToken verifies the token and rejects refresh tokens.
func (v *Verifier) VerifyAccessToken(tokenString string) (*Claims, error) {
	return v.verifyType(tokenString, AccessTokenType)
}

// VerifyRefreshToken verifies the token and rejects access tokens.
func (v *Verifier) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return v.verifyType(tokenString, RefreshTokenType)
}

func (v *Verifier) verifyType(tokenString string, want TokenType) (*Claims, error) {
	claims, err := v.VerifyAndDecode(tokenString)
	if err != nil {
		return nil, err
	}
	// tokenType is optional upstream; only a mismatch is an error
	if claims.TokenType != "" && claims.TokenType != want {
		return nil, &InvalidTokenError{Err: fmt.Errorf("token is not a %s", want)}
	}
	return claims, nil
}

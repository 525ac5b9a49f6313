package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

var unverifiedParser = jwt.NewParser()

// DecodeUnverified reads the claims without checking the signature.
//
// The result is only good for UX decisions such as when to refresh
// proactively. Access-control decisions must go through Verifier.
func DecodeUnverified(token string) (*Claims, error) {
	if token == "" {
		return nil, &DecodeError{Err: jwt.ErrTokenMalformed}
	}
	claims := &Claims{}
	if _, _, err := unverifiedParser.ParseUnverified(token, claims); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return claims, nil
}

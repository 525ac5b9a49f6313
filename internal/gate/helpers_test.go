package gate

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

func jwtRegistered(iat, exp time.Time) gojwt.RegisteredClaims {
	return gojwt.RegisteredClaims{
		IssuedAt:  gojwt.NewNumericDate(iat),
		ExpiresAt: gojwt.NewNumericDate(exp),
	}
}

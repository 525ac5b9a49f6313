package jwt

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode marks tokens that are not well-formed JWTs.
	ErrDecode = errors.New("token decode failed")
	// ErrInvalidToken marks well-formed tokens that fail signature or claim validation.
	ErrInvalidToken = errors.New("invalid token")
)

// DecodeError is returned when a token cannot be parsed at all.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode token: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// InvalidTokenError is returned when signature or expiry checks fail.
type InvalidTokenError struct {
	Err error
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid token: %v", e.Err)
}

func (e *InvalidTokenError) Unwrap() error { return e.Err }

func (e *InvalidTokenError) Is(target error) bool { return target == ErrInvalidToken }

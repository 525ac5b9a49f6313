package xerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"entity", &EntityError{}, http.StatusUnprocessableEntity},
		{"wrapped http", fmt.Errorf("call: %w", &HTTPError{Status: http.StatusConflict}), http.StatusConflict},
		{"redirect counts as unauthorized", &RedirectError{Location: "/login"}, http.StatusUnauthorized},
		{"revoked", ErrTokenRevoked, http.StatusUnauthorized},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"other", errors.New("boom"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err, http.StatusBadGateway))
		})
	}
}

func TestEntityErrorField(t *testing.T) {
	e := &EntityError{Errors: []FieldError{{Field: "email", Message: "taken"}}}
	msg, ok := e.Field("email")
	assert.True(t, ok)
	assert.Equal(t, "taken", msg)
	_, ok = e.Field("password")
	assert.False(t, ok)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))
	err := Wrap(ErrForbidden, "gate")
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, "gate: forbidden", err.Error())
}

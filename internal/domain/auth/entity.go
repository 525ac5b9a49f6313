// internal/domain/auth/entity.go
package auth

import (
	"errors"
	"fmt"
)

// Role is the closed set of account roles issued by the upstream API.
type Role string

const (
	RoleGuest    Role = "Guest"
	RoleEmployee Role = "Employee"
	RoleOwner    Role = "Owner"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole validates a role claim.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleGuest, RoleEmployee, RoleOwner:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string { return string(r) }

// IsStaff reports whether the role may use the management area.
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleOwner
}

// Cookie and client storage share the same key names.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// TokenPair is the access/refresh pair handed out on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Complete reports whether both halves are present.
func (p TokenPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

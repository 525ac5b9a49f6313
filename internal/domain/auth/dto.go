// internal/domain/auth/dto.go
package auth

import "encoding/json"

// LoginRequest for staff login. The upstream API validates it.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GuestLoginRequest for a guest sitting at a table
type GuestLoginRequest struct {
	Name        string `json:"name"`
	TableNumber int    `json:"tableNumber"`
	Token       string `json:"token"`
}

// LogoutRequest is sent upstream with the bearer access token
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshTokenRequest carries the refresh token when no cookie is available
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SetTokensRequest is posted by flows that obtained a pair elsewhere (OAuth)
type SetTokensRequest struct {
	AccessToken  string `json:"accessToken" binding:"required"`
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Envelope is the upstream success/failure body shape.
type Envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// LoginData is the data section of a login or refresh response.
// Account is left raw; only the token pair matters to this layer.
type LoginData struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	Account      json.RawMessage `json:"account,omitempty"`
	Guest        json.RawMessage `json:"guest,omitempty"`
}

// Pair extracts the token pair.
func (d LoginData) Pair() TokenPair {
	return TokenPair{AccessToken: d.AccessToken, RefreshToken: d.RefreshToken}
}

// SessionInfo answers /api/auth/me
type SessionInfo struct {
	Role            Role `json:"role,omitempty"`
	IsAuthenticated bool `json:"isAuthenticated"`
}

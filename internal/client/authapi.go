// internal/client/authapi.go
package client

import (
	"context"
	"fmt"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/httpclient"
	"bistro-bff/internal/session"
)

// BFF auth endpoints as the console calls them.
const (
	pathLogin       = "/api/auth/login"
	pathLogout      = "/api/auth/logout"
	pathRefresh     = "/api/auth/refresh-token"
	pathGuestLogin  = "/api/guest/auth/login"
	pathGuestLogout = "/api/guest/auth/logout"
)

// AuthAPI is the console's view of the BFF auth endpoints. Token storage is
// handled by the HTTP client; AuthAPI keeps the session state in step.
type AuthAPI struct {
	http  *httpclient.Client
	state *session.State
}

func NewAuthAPI(c *httpclient.Client, state *session.State) *AuthAPI {
	return &AuthAPI{http: c, state: state}
}

func (a *AuthAPI) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginData, error) {
	return a.login(ctx, pathLogin, req)
}

func (a *AuthAPI) GuestLogin(ctx context.Context, req auth.GuestLoginRequest) (*auth.LoginData, error) {
	return a.login(ctx, pathGuestLogin, req)
}

func (a *AuthAPI) login(ctx context.Context, path string, body interface{}) (*auth.LoginData, error) {
	res, err := a.http.Post(ctx, path, httpclient.Options{BaseURL: httpclient.BFF(), Body: body})
	if err != nil {
		return nil, err
	}
	var data auth.LoginData
	if err := res.Data(&data); err != nil {
		return nil, fmt.Errorf("login response: %w", err)
	}
	a.state.SetFromToken(data.AccessToken)
	return &data, nil
}

// Logout ends the session on the BFF. Local tokens and state are dropped
// even when the call fails.
func (a *AuthAPI) Logout(ctx context.Context, guest bool) error {
	path := pathLogout
	if guest {
		path = pathGuestLogout
	}
	store := a.http.Store()
	_, err := a.http.Post(ctx, path, httpclient.Options{
		BaseURL: httpclient.BFF(),
		Body:    auth.LogoutRequest{RefreshToken: store.Refresh()},
	})
	if cerr := store.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	a.state.Clear()
	return err
}

// RefreshToken exchanges a refresh token through the BFF. It satisfies
// refresh.Refresher.
func (a *AuthAPI) RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	res, err := a.http.Post(ctx, pathRefresh, httpclient.Options{
		BaseURL: httpclient.BFF(),
		Body:    auth.RefreshTokenRequest{RefreshToken: refreshToken},
	})
	if err != nil {
		return auth.TokenPair{}, err
	}
	var data auth.LoginData
	if err := res.Data(&data); err != nil {
		return auth.TokenPair{}, fmt.Errorf("refresh response: %w", err)
	}
	pair := data.Pair()
	if !pair.Complete() {
		return auth.TokenPair{}, fmt.Errorf("refresh response carried no token pair")
	}
	return pair, nil
}

// internal/service/account/account.go
package account

import (
	"context"
	"encoding/json"
	"net/http"

	"bistro-bff/internal/httpclient"

	"go.uber.org/zap"
)

// AccountService loads the signed-in account for server-rendered pages. Its
// upstream client answers a 401 with a redirect to the refresh page.
type AccountService struct {
	upstream *httpclient.Client
	logger   *zap.Logger
}

func NewAccountService(upstream *httpclient.Client, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{upstream: upstream, logger: logger}
}

// Me fetches the profile behind accessToken. The data member is returned raw.
func (s *AccountService) Me(ctx context.Context, accessToken string) (json.RawMessage, error) {
	return s.get(ctx, "accounts/me", accessToken)
}

// List fetches the staff accounts. Upstream only answers owners.
func (s *AccountService) List(ctx context.Context, accessToken string) (json.RawMessage, error) {
	return s.get(ctx, "accounts", accessToken)
}

func (s *AccountService) get(ctx context.Context, path, accessToken string) (json.RawMessage, error) {
	h := http.Header{}
	if accessToken != "" {
		h.Set("Authorization", "Bearer "+accessToken)
	}
	res, err := s.upstream.Get(ctx, path, httpclient.Options{Headers: h})
	if err != nil {
		return nil, err
	}
	var data json.RawMessage
	if err := res.Data(&data); err != nil {
		s.logger.Warn("account response without data", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return data, nil
}

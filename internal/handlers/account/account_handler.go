// internal/handlers/account/account_handler.go
package account

import (
	"errors"
	"net/http"

	"bistro-bff/internal/middleware"
	xerrors "bistro-bff/internal/pkg/errors"
	"bistro-bff/internal/pkg/response"
	accountUsecase "bistro-bff/internal/service/account"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccountHandler serves staff account data. Routes run behind Auth.
type AccountHandler struct {
	accounts *accountUsecase.AccountService
	logger   *zap.Logger
}

func NewAccountHandler(accounts *accountUsecase.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

func (h *AccountHandler) Me(c *gin.Context) {
	data, err := h.accounts.Me(c.Request.Context(), middleware.GetAccessToken(c))
	h.reply(c, "account", data, err)
}

// List is owner only.
func (h *AccountHandler) List(c *gin.Context) {
	data, err := h.accounts.List(c.Request.Context(), middleware.GetAccessToken(c))
	h.reply(c, "accounts", data, err)
}

func (h *AccountHandler) reply(c *gin.Context, message string, data interface{}, err error) {
	if err != nil {
		// API callers get the 401 itself; their client runs the teardown
		var redirect *xerrors.RedirectError
		if errors.As(err, &redirect) {
			response.Unauthorized(c, "access token rejected")
			return
		}
		h.logger.Warn("account request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.FromError(c, err, "failed to load accounts")
		return
	}
	response.Success(c, http.StatusOK, message, data)
}

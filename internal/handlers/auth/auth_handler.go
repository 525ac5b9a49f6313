// internal/handlers/auth/auth_handler.go
package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/middleware"
	"bistro-bff/internal/pkg/cookies"
	xerrors "bistro-bff/internal/pkg/errors"
	"bistro-bff/internal/pkg/response"
	authUsecase "bistro-bff/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// headerAttemptsLeft tells the login form how many tries remain.
const headerAttemptsLeft = "X-RateLimit-Remaining"

type AuthHandler struct {
	authService *authUsecase.AuthService
	cookies     *cookies.Gateway
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, gw *cookies.Gateway, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     gw,
		logger:      logger,
	}
}

// ========== Login ==========

// Login proxies staff login and stores the pair in cookies. Credentials are
// validated upstream so field errors come back as a 422.
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}

	res, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		if errors.Is(err, xerrors.ErrRateLimited) {
			response.TooManyRequests(c, "too many login attempts, please try again later")
			return
		}
		h.logger.Warn("login failed",
			zap.String("email", req.Email),
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		if left, ok := h.authService.RemainingAttempts(c.Request.Context(), c.ClientIP(), req.Email); ok {
			c.Header(headerAttemptsLeft, strconv.FormatInt(left, 10))
		}
		response.FromError(c, err, "login failed")
		return
	}

	h.issue(c, res)
}

// GuestLogin proxies guest login.
func (h *AuthHandler) GuestLogin(c *gin.Context) {
	var req auth.GuestLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}

	res, err := h.authService.GuestLogin(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("guest login failed",
			zap.Int("table", req.TableNumber),
			zap.Error(err),
		)
		response.FromError(c, err, "login failed")
		return
	}

	h.issue(c, res)
}

// ========== Logout ==========

// Logout always clears the cookies; the upstream call is best-effort.
func (h *AuthHandler) Logout(c *gin.Context) { h.logout(c, false) }

func (h *AuthHandler) GuestLogout(c *gin.Context) { h.logout(c, true) }

func (h *AuthHandler) logout(c *gin.Context, guest bool) {
	jar := h.cookies.Read(c.Request)
	pair := auth.TokenPair{AccessToken: jar.AccessToken, RefreshToken: jar.RefreshToken}

	// console clients without cookies send the pair themselves
	if pair.AccessToken == "" {
		pair.AccessToken = bearerToken(c)
	}
	if pair.RefreshToken == "" {
		var body auth.LogoutRequest
		if err := c.ShouldBindJSON(&body); err == nil {
			pair.RefreshToken = body.RefreshToken
		}
	}

	if err := h.authService.Logout(c.Request.Context(), pair, guest); err != nil {
		h.logger.Warn("upstream logout failed", zap.Bool("guest", guest), zap.Error(err))
	}

	h.cookies.ClearAuthCookies(c.Writer)
	response.Success(c, http.StatusOK, "logout successful", nil)
}

// ========== Refresh ==========

// RefreshToken renews the pair from the refresh cookie, or from the body for
// clients that cannot send it.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token := h.cookies.Read(c.Request).RefreshToken
	if token == "" {
		var body auth.RefreshTokenRequest
		if err := c.ShouldBindJSON(&body); err == nil {
			token = body.RefreshToken
		}
	}

	res, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		h.logger.Info("refresh rejected", zap.Error(err))
		h.cookies.ClearAuthCookies(c.Writer)
		response.Unauthorized(c, refreshFailureMessage(err))
		return
	}

	if err := h.cookies.SetAuthCookies(c.Writer, res.Pair.AccessToken, res.Pair.RefreshToken); err != nil {
		h.logger.Error("upstream issued unverifiable tokens", zap.Error(err))
		h.cookies.ClearAuthCookies(c.Writer)
		response.Unauthorized(c, "refresh failed")
		return
	}
	response.Raw(c, res.Status, res.Body)
}

// SetTokens stores a pair obtained outside the login form (OAuth callback).
func (h *AuthHandler) SetTokens(c *gin.Context) {
	var req auth.SetTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.cookies.SetAuthCookies(c.Writer, req.AccessToken, req.RefreshToken); err != nil {
		h.logger.Warn("rejected token pair", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "invalid token pair")
		return
	}
	response.Success(c, http.StatusOK, "tokens stored", auth.TokenPair{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	})
}

// ========== Session ==========

// GetMe reports the session behind the request. Runs after OptionalAuth.
func (h *AuthHandler) GetMe(c *gin.Context) {
	response.Success(c, http.StatusOK, "session", middleware.GetSession(c))
}

func (h *AuthHandler) issue(c *gin.Context, res *authUsecase.Result) {
	if err := h.cookies.SetAuthCookies(c.Writer, res.Pair.AccessToken, res.Pair.RefreshToken); err != nil {
		h.logger.Error("upstream issued unverifiable tokens", zap.Error(err))
		response.Error(c, http.StatusBadGateway, "login failed")
		return
	}
	response.Raw(c, res.Status, res.Body)
}

func refreshFailureMessage(err error) string {
	switch {
	case errors.Is(err, xerrors.ErrTokenRevoked):
		return "refresh token has been revoked"
	case errors.Is(err, xerrors.ErrUnauthorized):
		return "missing refresh token"
	}
	var httpErr *xerrors.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return "refresh failed"
}

func bearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

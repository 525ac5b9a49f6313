// internal/handlers/pages/pages.go
package pages

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/gate"
	"bistro-bff/internal/httpclient"
	"bistro-bff/internal/pkg/cookies"
	xerrors "bistro-bff/internal/pkg/errors"
	"bistro-bff/internal/pkg/response"
	"bistro-bff/internal/service/account"
	authUsecase "bistro-bff/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const logoutPath = "/logout"

// PageHandler serves every navigation that reaches the page router: the
// refresh and logout recovery pages, and the gated application pages.
// Rendering belongs to the front-end; pages answer with small JSON bodies.
type PageHandler struct {
	authService *authUsecase.AuthService
	accounts    *account.AccountService
	cookies     *cookies.Gateway
	rules       gate.Rules
	logger      *zap.Logger
}

func NewPageHandler(
	authService *authUsecase.AuthService,
	accounts *account.AccountService,
	gw *cookies.Gateway,
	rules gate.Rules,
	logger *zap.Logger,
) *PageHandler {
	return &PageHandler{
		authService: authService,
		accounts:    accounts,
		cookies:     gw,
		rules:       rules,
		logger:      logger,
	}
}

// Serve routes a page navigation by its locale-less path.
func (h *PageHandler) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		response.Error(c, http.StatusNotFound, "not found")
		return
	}

	locale, path := h.rules.StripLocale(c.Request.URL.Path)
	switch path {
	case h.rules.RefreshPath:
		h.refresh(c, locale)
	case logoutPath:
		h.logout(c, locale)
	default:
		h.page(c)
	}
}

// refresh recovers a session whose access token is gone or rejected.
func (h *PageHandler) refresh(c *gin.Context, locale string) {
	jar := h.cookies.Read(c.Request)

	if jar.RefreshToken == "" {
		h.toLogin(c, locale)
		return
	}
	// a link carrying someone else's token must not act on this session
	if q := c.Query(auth.RefreshTokenKey); q != "" && q != jar.RefreshToken {
		c.Redirect(http.StatusTemporaryRedirect, h.rules.LocalizedHome(c.Request.URL.Path))
		return
	}

	res, err := h.authService.Refresh(c.Request.Context(), jar.RefreshToken)
	if err != nil {
		h.logger.Info("refresh page could not recover session", zap.Error(err))
		h.toLogin(c, locale)
		return
	}
	if err := h.cookies.SetAuthCookies(c.Writer, res.Pair.AccessToken, res.Pair.RefreshToken); err != nil {
		h.logger.Error("upstream issued unverifiable tokens", zap.Error(err))
		h.toLogin(c, locale)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, safeRedirect(c.Query("redirect"), h.rules.WithLocale(locale, h.rules.HomePath)))
}

// logout ends the session when the link carries one of the session's own
// tokens; otherwise it just goes home.
func (h *PageHandler) logout(c *gin.Context, locale string) {
	jar := h.cookies.Read(c.Request)
	accessParam := c.Query(auth.AccessTokenKey)
	refreshParam := c.Query(auth.RefreshTokenKey)

	matches := (accessParam != "" && accessParam == jar.AccessToken) ||
		(refreshParam != "" && refreshParam == jar.RefreshToken)
	if !matches {
		c.Redirect(http.StatusTemporaryRedirect, h.rules.LocalizedHome(c.Request.URL.Path))
		return
	}

	pair := auth.TokenPair{AccessToken: jar.AccessToken, RefreshToken: jar.RefreshToken}
	if err := h.authService.Logout(c.Request.Context(), pair, false); err != nil {
		h.logger.Warn("upstream logout failed", zap.Error(err))
	}
	h.toLogin(c, locale)
}

// page answers a gated page. Management pages load the account, which is
// where an expired access token shows up as a redirect to the refresh page.
func (h *PageHandler) page(c *gin.Context) {
	data := gin.H{"page": c.Request.URL.Path}

	if h.rules.IsManagement(c.Request.URL.Path) {
		ctx := httpclient.WithReturnPath(c.Request.Context(), c.Request.URL.RequestURI())
		profile, err := h.accounts.Me(ctx, h.cookies.Read(c.Request).AccessToken)
		var redirect *xerrors.RedirectError
		switch {
		case errors.As(err, &redirect):
			c.Redirect(http.StatusTemporaryRedirect, redirect.Location)
			c.Abort()
			return
		case err != nil:
			h.logger.Warn("failed to load account", zap.Error(err))
			response.FromError(c, err, "failed to load account")
			return
		}
		data["account"] = profile
	}

	response.Success(c, http.StatusOK, "ok", data)
}

func (h *PageHandler) toLogin(c *gin.Context, locale string) {
	h.cookies.ClearAuthCookies(c.Writer)
	q := url.Values{"clearTokens": {"true"}}
	c.Redirect(http.StatusTemporaryRedirect, h.rules.WithLocale(locale, h.rules.LoginPath)+"?"+q.Encode())
}

// safeRedirect only follows local absolute paths.
func safeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return fallback
	}
	return target
}

// internal/app/router.go
package app

import (
	"net/http"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/gate"
	accountHandler "bistro-bff/internal/handlers/account"
	authHandler "bistro-bff/internal/handlers/auth"
	pageHandler "bistro-bff/internal/handlers/pages"
	"bistro-bff/internal/middleware"
	"bistro-bff/internal/pkg/cookies"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler    *authHandler.AuthHandler
	AccountHandler *accountHandler.AccountHandler
	PageHandler    *pageHandler.PageHandler
	AuthMiddleware *middleware.AuthMiddleware
	Gate           *gate.Gate
	Cookies        *cookies.Gateway
	Metrics        http.Handler
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	// ==================== Health Check ====================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	// ==================== Staff Auth Routes ====================
	authRoutes := r.Group("/api/auth")
	{
		authRoutes.POST("/login", h.AuthHandler.Login)
		authRoutes.POST("/logout", h.AuthHandler.Logout)
		authRoutes.POST("/refresh-token", h.AuthHandler.RefreshToken)
		authRoutes.POST("/token", h.AuthHandler.SetTokens)
		authRoutes.GET("/me", h.AuthMiddleware.OptionalAuth(), h.AuthHandler.GetMe)
	}

	// ==================== Guest Auth Routes ====================
	guestRoutes := r.Group("/api/guest/auth")
	{
		guestRoutes.POST("/login", h.AuthHandler.GuestLogin)
		guestRoutes.POST("/logout", h.AuthHandler.GuestLogout)
	}

	// ==================== Account Routes (staff) ====================
	accountRoutes := r.Group("/api/accounts", h.AuthMiddleware.StaffOnly()...)
	{
		accountRoutes.GET("/me", h.AccountHandler.Me)
		accountRoutes.GET("", h.AuthMiddleware.RequireRole(auth.RoleOwner), h.AccountHandler.List)
	}

	// ==================== Pages ====================
	// Anything else is a page navigation and passes the gate first.
	r.NoRoute(middleware.AuthorizationGate(h.Gate, h.Cookies), h.PageHandler.Serve)

	logger.Debug("routes registered")
}

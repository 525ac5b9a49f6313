// internal/middleware/authorization_gate.go
package middleware

import (
	"net/http"

	"bistro-bff/internal/gate"
	"bistro-bff/internal/metrics"
	"bistro-bff/internal/pkg/cookies"

	"github.com/gin-gonic/gin"
)

// AuthorizationGate runs the gate before page handlers. Redirects are
// temporary so the browser re-asks after the session changes.
func AuthorizationGate(g *gate.Gate, gw *cookies.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Decide(c.Request.URL.Path, c.Request.URL.Query(), gw.Read(c.Request))
		metrics.GateDecisions.WithLabelValues(string(d.Outcome)).Inc()

		if d.ClearCookies {
			gw.ClearAuthCookies(c.Writer)
		}
		if d.Redirect() {
			c.Redirect(http.StatusTemporaryRedirect, d.Location)
			c.Abort()
			return
		}
		c.Next()
	}
}

// internal/pkg/response/response.go
package response

import (
	"errors"
	"net/http"

	xerrors "bistro-bff/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response is the {message, data} envelope shared with the upstream API.
type Response struct {
	Message string               `json:"message"`
	Data    interface{}          `json:"data,omitempty"`
	Errors  []xerrors.FieldError `json:"errors,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Message: message,
		Data:    data,
	})
}

// Raw echoes an upstream JSON body unchanged.
func Raw(c *gin.Context, status int, body []byte) {
	if len(body) == 0 {
		c.Status(status)
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}

// Error sends a standardized error response. Raw error text is never exposed.
func Error(c *gin.Context, code int, message string) {
	// CRITICAL: Abort FIRST before writing response
	c.Abort()
	c.JSON(code, Response{Message: message})
}

// FromError maps a typed upstream error onto the client response. Upstream
// bodies are echoed so field errors reach the form layer untouched.
func FromError(c *gin.Context, err error, fallbackMessage string) {
	c.Abort()
	var entity *xerrors.EntityError
	if errors.As(err, &entity) {
		c.JSON(http.StatusUnprocessableEntity, Response{Message: entity.Message, Errors: entity.Errors})
		return
	}
	var httpErr *xerrors.HTTPError
	if errors.As(err, &httpErr) {
		if len(httpErr.Payload) > 0 {
			Raw(c, httpErr.Status, httpErr.Payload)
			return
		}
		c.JSON(httpErr.Status, Response{Message: fallbackMessage})
		return
	}
	c.JSON(xerrors.StatusOf(err, http.StatusInternalServerError), Response{Message: fallbackMessage})
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// TooManyRequests sends a 429 response.
func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, message)
}

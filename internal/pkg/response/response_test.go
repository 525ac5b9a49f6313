package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	xerrors "bistro-bff/internal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "entity errors keep field list",
			err:        fmt.Errorf("login: %w", &xerrors.EntityError{Message: "bad", Errors: []xerrors.FieldError{{Field: "email", Message: "required"}}}),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"message":"bad","errors":[{"field":"email","message":"required"}]}`,
		},
		{
			name:       "http error echoes payload",
			err:        &xerrors.HTTPError{Status: http.StatusConflict, Payload: []byte(`{"message":"exists"}`)},
			wantStatus: http.StatusConflict,
			wantBody:   `{"message":"exists"}`,
		},
		{
			name:       "unknown error hides text",
			err:        errors.New("dial tcp: secret host"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"something went wrong"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			FromError(c, tt.err, "something went wrong")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.True(t, c.IsAborted())
		})
	}
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	Success(c, 0, "ok", gin.H{"a": 1})
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["message"])
}

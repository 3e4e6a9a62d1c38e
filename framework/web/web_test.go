package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doitintl/hello/offset-checkout/apperrors"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: apperrors.Validation("amount must be positive"), wantStatus: http.StatusBadRequest},
		{name: "not found", err: apperrors.NotFound("certificate"), wantStatus: http.StatusNotFound},
		{name: "configuration", err: apperrors.Configuration(errors.New("missing key")), wantStatus: http.StatusServiceUnavailable},
		{name: "upstream", err: fmt.Errorf("stripe: %w", apperrors.Upstream(errors.New("timeout"))), wantStatus: http.StatusBadGateway},
		{name: "sentinel", err: ErrBadRequest, wantStatus: http.StatusBadRequest},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
		{name: "already translated", err: NewRequestError(errors.New("x"), http.StatusConflict), wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var webErr *Error
			require.True(t, errors.As(TranslateError(tt.err), &webErr))
			assert.Equal(t, tt.wantStatus, webErr.Status)
		})
	}

	assert.Nil(t, TranslateError(nil))
}

func TestAppRespondsWithEnvelope(t *testing.T) {
	app := NewTestApp()

	app.Get("/ok", func(ctx *gin.Context) error {
		return Respond(ctx, map[string]string{"certificateNumber": "MFC-2024-000001"}, http.StatusOK)
	})
	app.Get("/bad", func(ctx *gin.Context) error {
		return RespondError(ctx, TranslateError(apperrors.Validation("amount must be positive")))
	})
	app.Get("/boom", func(ctx *gin.Context) error {
		return RespondError(ctx, TranslateError(errors.New("db password leaked in message")))
	})

	t.Run("success", func(t *testing.T) {
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

		var body struct {
			Success bool              `json:"success"`
			Data    map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, body.Success)
		assert.Equal(t, "MFC-2024-000001", body.Data["certificateNumber"])
	})

	t.Run("client error exposes user message", func(t *testing.T) {
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, body.Success)
		assert.Equal(t, "amount must be positive", body.UserMessage)
	})

	t.Run("server error hides details", func(t *testing.T) {
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), body.Error)
		assert.NotContains(t, w.Body.String(), "password")
	})
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"myfunds/internal/logger"
)

func TestRequestContext_PropagatesIDs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(RequestContext(zap.New(core)))
	e.GET("/ping", func(c echo.Context) error {
		logger.FromContext(c.Request().Context()).Info("handler")
		return c.String(http.StatusOK, "pong")
	})

	userID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	req.Header.Set(UserIDHeader, userID)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("handler").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "req-1", ctx["request_id"])
	assert.Equal(t, userID, ctx["user_id"])

	access := logs.FilterMessage("request").All()
	require.Len(t, access, 1)
	assert.EqualValues(t, http.StatusOK, access[0].ContextMap()["status"])
}

func TestRequestContext_GeneratesIDAndSkips(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(RequestContext(zap.New(core), "/health"))
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestRequireUser(t *testing.T) {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, err := GetUserID(c)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, id.String())
	}, RequireUser)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(UserIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	id := uuid.New()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(UserIDHeader, id.String())
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id.String(), rec.Body.String())
}

package middleware

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"myfunds/internal/logger"
)

// RequestIDHeader is accepted from callers and echoed back on every response
const RequestIDHeader = "X-Request-ID"

// RequestContext attaches a request-scoped logger carrying request_id (and user_id
// when the caller sent one) to the request context, then writes one access log line.
// Paths in skip are served without the access line.
func RequestContext(base *zap.Logger, skip ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			requestID := strings.TrimSpace(req.Header.Get(RequestIDHeader))
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, requestID)

			fields := []zap.Field{zap.String("request_id", requestID)}
			if userID := strings.TrimSpace(req.Header.Get(UserIDHeader)); userID != "" {
				fields = append(fields, zap.String("user_id", userID))
			}
			log := base.With(fields...)
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), log)))

			err := next(c)
			if err != nil {
				// let echo's error handler write the status before we log it
				c.Error(err)
			}

			path := req.URL.Path
			for _, s := range skip {
				if path == s {
					return nil
				}
			}

			log.Info("request",
				zap.String("method", req.Method),
				zap.String("path", path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
			)
			return nil
		}
	}
}

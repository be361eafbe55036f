package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserIDHeader carries the caller's user id. Session handling lives in front
// of this service; requests arrive with the user already resolved.
const UserIDHeader = "X-User-Id"

const userIDKey = "user_id"

// RequireUser rejects requests without a valid X-User-Id and stores the id in the echo context
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := strings.TrimSpace(c.Request().Header.Get(UserIDHeader))
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing user identity")
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user identity")
		}

		c.Set(userIDKey, userID)
		return next(c)
	}
}

// GetUserID extracts user ID from echo context
func GetUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("user_id not found in context")
	}
	return userID, nil
}

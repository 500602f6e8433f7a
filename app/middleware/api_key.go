package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// APIKeyMiddleware guards operator endpoints such as /metrics with a static
// key sent in X-API-Key. An empty key disables the check.
type APIKeyMiddleware struct {
	apiKey []byte
}

func NewAPIKeyMiddleware(apiKey string) *APIKeyMiddleware {
	return &APIKeyMiddleware{apiKey: []byte(strings.TrimSpace(apiKey))}
}

func (m *APIKeyMiddleware) RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if len(m.apiKey) == 0 {
			return next(c)
		}
		// Let CORS preflight pass.
		if c.Request().Method == http.MethodOptions {
			return next(c)
		}

		apiKey := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
		if apiKey == "" {
			logrus.Debug("Missing x-api-key header")
			return c.JSON(http.StatusUnauthorized, types.DetailResponse{Detail: "Unauthorized"})
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), m.apiKey) != 1 {
			logrus.Debug("Invalid x-api-key header")
			return c.JSON(http.StatusUnauthorized, types.DetailResponse{Detail: "Unauthorized"})
		}

		return next(c)
	}
}

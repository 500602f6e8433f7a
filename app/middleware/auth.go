package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/service"
	"github.com/vibast-solutions/ms-go-contacts/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	ContextKeyUser   = "user"
	ContextKeyClaims = "claims"
)

const invalidCredentialsDetail = "Could not validate credentials"

type sessionAuthenticator interface {
	Authenticate(ctx context.Context, bearer string) (*entity.User, *service.Claims, error)
}

type AuthMiddleware struct {
	authService sessionAuthenticator
}

func NewAuthMiddleware(authService sessionAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireAuth resolves the bearer session token to the current user.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			logrus.Debug("Missing authorization header")
			return unauthorized(c)
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logrus.Debug("Invalid authorization header format")
			return unauthorized(c)
		}

		user, claims, err := m.authService.Authenticate(c.Request().Context(), parts[1])
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				logrus.Debug("Invalid, expired or revoked session token")
				return unauthorized(c)
			}
			logrus.WithError(err).Error("Session authentication failed")
			return c.JSON(http.StatusInternalServerError, types.DetailResponse{Detail: "Internal server error"})
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyClaims, claims)

		return next(c)
	}
}

// CurrentUser returns the user stored by RequireAuth.
func CurrentUser(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(ContextKeyUser).(*entity.User)
	return user, ok && user != nil
}

func CurrentClaims(c echo.Context) (*service.Claims, bool) {
	claims, ok := c.Get(ContextKeyClaims).(*service.Claims)
	return claims, ok && claims != nil
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, types.DetailResponse{Detail: invalidCredentialsDetail})
}

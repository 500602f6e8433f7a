package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/controller"
	"github.com/vibast-solutions/ms-go-contacts/app/metrics"
	"github.com/vibast-solutions/ms-go-contacts/app/middleware"
	"github.com/vibast-solutions/ms-go-contacts/app/types"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const tooManyRequestsDetail = "Too many requests. Try again later."

type Controllers struct {
	Auth    *controller.UserAuthController
	User    *controller.UserController
	Contact *controller.ContactController
	Health  *controller.HealthController
}

type Options struct {
	AuthMiddleware   *middleware.AuthMiddleware
	APIKeyMiddleware *middleware.APIKeyMiddleware
	Metrics          *metrics.Metrics
	MePerMinute      int
	AvatarMaxBytes   int64
}

// Register mounts every route on e.
func Register(e *echo.Echo, c Controllers, opts Options) {
	e.Validator = types.Validator{}

	if opts.Metrics != nil {
		e.Use(middleware.Metrics(opts.Metrics))
	}

	e.GET("/healthz", c.Health.Health)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()), opts.APIKeyMiddleware.RequireAPIKey)
	}

	api := e.Group("/api")
	requireAuth := opts.AuthMiddleware.RequireAuth

	auth := api.Group("/auth")
	auth.POST("/register", c.Auth.Register)
	auth.POST("/login", c.Auth.Login)
	auth.GET("/confirmed_email/:token", c.Auth.ConfirmEmail)
	auth.POST("/request_email", c.Auth.RequestEmail)
	auth.POST("/forgot-password", c.Auth.ForgotPassword)
	auth.POST("/confirm_reset_password/:token", c.Auth.ConfirmResetPassword)
	auth.POST("/logout", c.Auth.Logout, requireAuth)

	users := api.Group("/users", requireAuth)
	users.GET("/me", c.User.Me, MeRateLimiter(opts.MePerMinute))
	users.PATCH("/avatar", c.User.UpdateAvatar, avatarBodyLimit(opts.AvatarMaxBytes))

	contacts := api.Group("/contacts", requireAuth)
	contacts.POST("/", c.Contact.Create)
	contacts.GET("/", c.Contact.List)
	contacts.GET("/birthdays/", c.Contact.UpcomingBirthdays)
	contacts.GET("/:id", c.Contact.Get)
	contacts.PUT("/:id", c.Contact.Update)
	contacts.DELETE("/:id", c.Contact.Delete)
}

// MeRateLimiter allows perMinute requests per client IP with a burst of the
// same size.
func MeRateLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		perMinute = 5
	}

	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(time.Minute / time.Duration(perMinute)),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, _ error) error {
			return ctx.JSON(http.StatusForbidden, types.DetailResponse{Detail: "Could not identify client"})
		},
		DenyHandler: func(ctx echo.Context, _ string, _ error) error {
			return ctx.JSON(http.StatusTooManyRequests, types.DetailResponse{Detail: tooManyRequestsDetail})
		},
	})
}

// avatarBodyLimit leaves room for the multipart envelope around the file.
func avatarBodyLimit(maxBytes int64) echo.MiddlewareFunc {
	if maxBytes <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	limit := maxBytes + 64<<10
	return echomiddleware.BodyLimit(strconv.FormatInt(limit/1024, 10) + "K")
}

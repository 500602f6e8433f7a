package controller

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-contacts/app/middleware"
	"github.com/vibast-solutions/ms-go-contacts/app/service"
	"github.com/vibast-solutions/ms-go-contacts/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	msgEmailVerified          = "Email successfully verified."
	msgEmailAlreadyVerified   = "Your email is already verified."
	msgCheckVerificationEmail = "Check your email for verification instructions."
	msgCheckResetEmail        = "Check your email for password reset instructions."
	msgPasswordReset          = "Password has been reset successfully."
	msgLoggedOut              = "Successfully logged out."
)

type UserAuthController struct {
	userAuthService service.UserAuthService
}

func NewUserAuthController(userAuthService service.UserAuthService) *UserAuthController {
	return &UserAuthController{userAuthService: userAuthService}
}

func (c *UserAuthController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return invalidInput(ctx, err)
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return invalidInput(ctx, err)
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	user, err := c.userAuthService.Register(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			logrus.WithField("email", req.Email).Warn("Register failed: email already exists")
			return detail(ctx, http.StatusConflict, "A user with this email already exists.")
		}
		if errors.Is(err, service.ErrUsernameTaken) {
			logrus.WithField("username", req.Username).Warn("Register failed: username already exists")
			return detail(ctx, http.StatusConflict, "A user with this username already exists.")
		}
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", req.Email).Warn("Register failed: user already exists")
			return detail(ctx, http.StatusConflict, "A user with this email or username already exists.")
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Register failed: weak password")
			return detail(ctx, http.StatusUnprocessableEntity, err.Error())
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return internalError(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return ctx.JSON(http.StatusCreated, types.NewUserResponse(user))
}

func (c *UserAuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return invalidInput(ctx, err)
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return invalidInput(ctx, err)
	}

	token, err := c.userAuthService.Login(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			ctx.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return detail(ctx, http.StatusUnauthorized, "Invalid email or password.")
		}
		if errors.Is(err, service.ErrEmailNotVerified) {
			logrus.WithField("email", req.Email).Warn("Login failed: email not verified")
			ctx.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return detail(ctx, http.StatusUnauthorized, "Email is not verified.")
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return internalError(ctx)
	}

	logrus.WithField("email", req.Email).Info("Login successful")
	return ctx.JSON(http.StatusOK, types.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (c *UserAuthController) Logout(ctx echo.Context) error {
	claims, ok := middleware.CurrentClaims(ctx)
	if !ok {
		logrus.Warn("Logout failed: missing claims in context")
		return detail(ctx, http.StatusUnauthorized, "Could not validate credentials")
	}

	if err := c.userAuthService.Logout(ctx.Request().Context(), claims); err != nil {
		logrus.WithError(err).WithField("username", claims.Subject).Error("Logout failed")
		return internalError(ctx)
	}

	logrus.WithField("username", claims.Subject).Info("Logout successful")
	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: msgLoggedOut})
}

func (c *UserAuthController) ConfirmEmail(ctx echo.Context) error {
	req, err := types.NewConfirmEmailRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind confirm email request")
		return invalidInput(ctx, err)
	}

	if err = req.Validate(); err != nil {
		return detail(ctx, http.StatusUnprocessableEntity, "Invalid email verification token")
	}

	alreadyVerified, err := c.userAuthService.ConfirmEmail(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			logrus.Warn("Confirm email failed: invalid token")
			return detail(ctx, http.StatusUnprocessableEntity, "Invalid email verification token")
		}
		if errors.Is(err, service.ErrVerificationFailed) {
			logrus.Warn("Confirm email failed: user not found")
			return detail(ctx, http.StatusBadRequest, "Verification error")
		}
		logrus.WithError(err).Error("Confirm email failed")
		return internalError(ctx)
	}

	if alreadyVerified {
		return ctx.JSON(http.StatusOK, types.MessageResponse{Message: msgEmailAlreadyVerified})
	}

	logrus.Info("Email verified")
	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: msgEmailVerified})
}

func (c *UserAuthController) RequestEmail(ctx echo.Context) error {
	req, err := types.NewEmailRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind request email request")
		return invalidInput(ctx, err)
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Request email validation failed")
		return invalidInput(ctx, err)
	}

	logrus.WithField("email", req.Email).Info("Verification email requested")
	alreadyVerified, err := c.userAuthService.RequestEmail(ctx.Request().Context(), req)
	if err != nil {
		logrus.WithError(err).WithField("email", req.Email).Error("Request email failed")
		return internalError(ctx)
	}

	if alreadyVerified {
		return ctx.JSON(http.StatusOK, types.MessageResponse{Message: msgEmailAlreadyVerified})
	}
	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: msgCheckVerificationEmail})
}

func (c *UserAuthController) ForgotPassword(ctx echo.Context) error {
	req, err := types.NewEmailRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot password request")
		return invalidInput(ctx, err)
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Forgot password validation failed")
		return invalidInput(ctx, err)
	}

	logrus.WithField("email", req.Email).Info("Password reset requested")
	if err = c.userAuthService.ForgotPassword(ctx.Request().Context(), req); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("email", req.Email).Warn("Forgot password failed: user not found")
			return detail(ctx, http.StatusNotFound, "User not found")
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Forgot password failed")
		return internalError(ctx)
	}

	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: msgCheckResetEmail})
}

func (c *UserAuthController) ConfirmResetPassword(ctx echo.Context) error {
	req, err := types.NewConfirmResetPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind confirm reset password request")
		return invalidInput(ctx, err)
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Confirm reset password validation failed")
		return invalidInput(ctx, err)
	}

	if err = c.userAuthService.ConfirmResetPassword(ctx.Request().Context(), req); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			logrus.Warn("Confirm reset password failed: invalid token")
			return detail(ctx, http.StatusUnprocessableEntity, "Invalid password reset token")
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.Warn("Confirm reset password failed: weak password")
			return detail(ctx, http.StatusUnprocessableEntity, err.Error())
		}
		logrus.WithError(err).Error("Confirm reset password failed")
		return internalError(ctx)
	}

	logrus.Info("Password reset")
	return ctx.JSON(http.StatusOK, types.DetailResponse{Detail: msgPasswordReset})
}

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

const avatarFormField = "file"

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

func (c *UserController) Me(ctx echo.Context) error {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return detail(ctx, http.StatusUnauthorized, "Could not validate credentials")
	}
	return ctx.JSON(http.StatusOK, types.NewUserResponse(user))
}

func (c *UserController) UpdateAvatar(ctx echo.Context) error {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return detail(ctx, http.StatusUnauthorized, "Could not validate credentials")
	}

	header, err := ctx.FormFile(avatarFormField)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Debug("Avatar upload without file")
		return detail(ctx, http.StatusUnprocessableEntity, "file is required")
	}

	file, err := header.Open()
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to open uploaded avatar")
		return internalError(ctx)
	}
	defer file.Close()

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"size":    header.Size,
	}).Info("Avatar upload received")

	updated, err := c.userService.UpdateAvatar(ctx.Request().Context(), user, file, header.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAvatar), errors.Is(err, service.ErrAvatarTooLarge):
			logrus.WithField("user_id", user.ID).Warn("Avatar rejected: " + err.Error())
			return detail(ctx, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrAvatarStorageDisabled):
			logrus.WithField("user_id", user.ID).Warn("Avatar upload attempted without storage configured")
			return detail(ctx, http.StatusServiceUnavailable, "Avatar uploads are not available")
		}
		logrus.WithError(err).WithField("user_id", user.ID).Error("Avatar upload failed")
		return internalError(ctx)
	}
	if updated == nil {
		logrus.WithField("user_id", user.ID).Error("User vanished during avatar update")
		return internalError(ctx)
	}

	logrus.WithField("user_id", user.ID).Info("Avatar updated")
	return ctx.JSON(http.StatusOK, types.NewUserResponse(updated))
}

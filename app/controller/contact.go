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

const contactNotFoundDetail = "Contact not found"

type ContactController struct {
	contactService service.ContactService
}

func NewContactController(contactService service.ContactService) *ContactController {
	return &ContactController{contactService: contactService}
}

func (c *ContactController) Create(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return detail(ctx, http.StatusUnauthorized, "Could not validate credentials")
	}

	req, err := types.NewContactRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind create contact request")
		return invalidInput(ctx, err)
	}
	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Create contact validation failed")
		return invalidInput(ctx, err)
	}

	contact, err := c.contactService.Create(ctx.Request().Context(), userID, req)
	if err != nil {
		if errors.Is(err, service.ErrContactExists) {
			logrus.WithField("user_id", userID).Warn("Create contact failed: duplicate email or phone")
			return detail(ctx, http.StatusConflict, "A contact with this email or phone already exists.")
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Create contact failed")
		return internalError(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"contact_id": contact.ID,
	}).Info("Contact created")
	return ctx.JSON(http.StatusCreated, types.NewContactResponse(contact))
}

func (c *ContactController) List(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return detail(ctx, http.StatusUnauthorized, "Could not validate credentials")
	}

	req, err := types.NewListContactsRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind list contacts request")
		return invalidInput(ctx, err)
	}
	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("List contacts validation failed")
		return invalidInput(ctx, err)
	}

	contacts, err := c.contactService.List(ctx.Request().Context(), userID, req)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("List contacts failed")
		return internalError(ctx)
	}

	return ctx.JSON(http.StatusOK, types.NewContactListResponse(contacts))
}

func (c *ContactController) Get(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return detail(ctx, http.StatusUnauthorized, "Could not validate credentials")
	}

	req, err := types.NewContactIDRequestFromContext(ctx)
	if err != nil {
		return invalidInput(ctx, err)
	}
	if err = req.Validate(); err != nil {
		return invalidInput(ctx, err)
	}

	contact, err := c.contactService.Get(ctx.Request().Context(), userID, req.ID)
	if err != nil {
		return c.lookupError(ctx, err, userID, req.ID, "Get contact failed")
	}

	return ctx.JSON(http.StatusOK, types.NewContactResponse(contact))
}

func (c *ContactController) Update(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return detail(ctx, http.StatusUnauthorized, "Could not validate credentials")
	}

	req, err := types.NewUpdateContactRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update contact request")
		return invalidInput(ctx, err)
	}
	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Update contact validation failed")
		return invalidInput(ctx, err)
	}

	contact, err := c.contactService.Update(ctx.Request().Context(), userID, req)
	if err != nil {
		return c.lookupError(ctx, err, userID, req.ID, "Update contact failed")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"contact_id": contact.ID,
	}).Info("Contact updated")
	return ctx.JSON(http.StatusOK, types.NewContactResponse(contact))
}

func (c *ContactController) Delete(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return detail(ctx, http.StatusUnauthorized, "Could not validate credentials")
	}

	req, err := types.NewContactIDRequestFromContext(ctx)
	if err != nil {
		return invalidInput(ctx, err)
	}
	if err = req.Validate(); err != nil {
		return invalidInput(ctx, err)
	}

	contact, err := c.contactService.Delete(ctx.Request().Context(), userID, req.ID)
	if err != nil {
		return c.lookupError(ctx, err, userID, req.ID, "Delete contact failed")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"contact_id": contact.ID,
	}).Info("Contact deleted")
	return ctx.JSON(http.StatusOK, types.NewContactResponse(contact))
}

func (c *ContactController) UpcomingBirthdays(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return detail(ctx, http.StatusUnauthorized, "Could not validate credentials")
	}

	req, err := types.NewBirthdaysRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind birthdays request")
		return invalidInput(ctx, err)
	}
	if err = req.Validate(); err != nil {
		return invalidInput(ctx, err)
	}

	contacts, err := c.contactService.UpcomingBirthdays(ctx.Request().Context(), userID, req.Days)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDays) {
			return detail(ctx, http.StatusUnprocessableEntity, err.Error())
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Upcoming birthdays failed")
		return internalError(ctx)
	}

	return ctx.JSON(http.StatusOK, types.NewContactListResponse(contacts))
}

func (c *ContactController) lookupError(ctx echo.Context, err error, userID, contactID uint64, message string) error {
	fields := logrus.Fields{
		"user_id":    userID,
		"contact_id": contactID,
	}
	if errors.Is(err, service.ErrContactNotFound) {
		logrus.WithFields(fields).Debug(message + ": not found")
		return detail(ctx, http.StatusNotFound, contactNotFoundDetail)
	}
	logrus.WithError(err).WithFields(fields).Error(message)
	return internalError(ctx)
}

func currentUserID(ctx echo.Context) (uint64, bool) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		logrus.Warn("Missing user in context")
		return 0, false
	}
	return user.ID, true
}

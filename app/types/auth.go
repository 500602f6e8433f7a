package types

import (
	"strings"

	"github.com/labstack/echo/v4"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=150"`
	Password string `json:"password" validate:"required"`
}

func NewRegisterRequestFromContext(ctx echo.Context) (*RegisterRequest, error) {
	var body RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *RegisterRequest) Validate() error {
	return validateStruct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *LoginRequest) Validate() error {
	return validateStruct(r)
}

// EmailRequest carries the address for resend-verification and forgot-password.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func NewEmailRequestFromContext(ctx echo.Context) (*EmailRequest, error) {
	var body EmailRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *EmailRequest) Validate() error {
	return validateStruct(r)
}

type ConfirmEmailRequest struct {
	Token string `param:"token" validate:"required"`
}

func NewConfirmEmailRequestFromContext(ctx echo.Context) (*ConfirmEmailRequest, error) {
	var body ConfirmEmailRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ConfirmEmailRequest) Validate() error {
	return validateStruct(r)
}

type ConfirmResetPasswordRequest struct {
	Token       string `param:"token" json:"-" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

func NewConfirmResetPasswordRequestFromContext(ctx echo.Context) (*ConfirmResetPasswordRequest, error) {
	var body ConfirmResetPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ConfirmResetPasswordRequest) Validate() error {
	return validateStruct(r)
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// DetailResponse is the error body and the confirm-reset success body.
type DetailResponse struct {
	Detail string `json:"detail"`
}

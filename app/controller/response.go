package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vibast-solutions/ms-go-contacts/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const internalErrorDetail = "Internal server error"

func detail(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, types.DetailResponse{Detail: message})
}

func internalError(ctx echo.Context) error {
	return detail(ctx, http.StatusInternalServerError, internalErrorDetail)
}

// invalidInput answers bind and validation failures alike with 422.
func invalidInput(ctx echo.Context, err error) error {
	return detail(ctx, http.StatusUnprocessableEntity, bindErrorMessage(err))
}

func bindErrorMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}

func writeProtoJSON(ctx echo.Context, statusCode int, message proto.Message) error {
	payload, err := protojson.MarshalOptions{
		UseProtoNames:   true,
		EmitUnpopulated: true,
	}.Marshal(message)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal protobuf response")
		return internalError(ctx)
	}

	return ctx.Blob(statusCode, echo.MIMEApplicationJSONCharsetUTF8, payload)
}

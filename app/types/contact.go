package types

import (
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"

	"github.com/labstack/echo/v4"
)

const DateLayout = "2006-01-02"

const (
	DefaultContactsLimit = 10
	DefaultBirthdayDays  = 7
)

type ContactRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Surname  string `json:"surname" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Phone    string `json:"phone" validate:"required,max=20"`
	Birthday string `json:"birthday" validate:"required,datetime=2006-01-02"`
}

func (r *ContactRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Surname = strings.TrimSpace(r.Surname)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Birthday = strings.TrimSpace(r.Birthday)
}

// BirthdayDate parses Birthday. Call it only after Validate succeeded.
func (r *ContactRequest) BirthdayDate() time.Time {
	date, _ := time.Parse(DateLayout, r.Birthday)
	return date
}

func NewContactRequestFromContext(ctx echo.Context) (*ContactRequest, error) {
	var body ContactRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.normalize()

	return &body, nil
}

func (r *ContactRequest) Validate() error {
	return validateStruct(r)
}

type ContactIDRequest struct {
	ID uint64 `param:"id" validate:"required"`
}

func NewContactIDRequestFromContext(ctx echo.Context) (*ContactIDRequest, error) {
	var body ContactIDRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ContactIDRequest) Validate() error {
	return validateStruct(r)
}

type UpdateContactRequest struct {
	ID uint64 `param:"id" json:"-" validate:"required"`
	ContactRequest
}

func NewUpdateContactRequestFromContext(ctx echo.Context) (*UpdateContactRequest, error) {
	var body UpdateContactRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.normalize()

	return &body, nil
}

func (r *UpdateContactRequest) Validate() error {
	return validateStruct(r)
}

type ListContactsRequest struct {
	Name    string `query:"name"`
	Surname string `query:"surname"`
	Email   string `query:"email"`
	Skip    int    `query:"skip" validate:"gte=0"`
	Limit   int    `query:"limit" validate:"gte=1,lte=100"`
}

func NewListContactsRequestFromContext(ctx echo.Context) (*ListContactsRequest, error) {
	body := ListContactsRequest{Limit: DefaultContactsLimit}
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Surname = strings.TrimSpace(body.Surname)
	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *ListContactsRequest) Validate() error {
	return validateStruct(r)
}

type BirthdaysRequest struct {
	Days int `query:"days" validate:"gte=0"`
}

func NewBirthdaysRequestFromContext(ctx echo.Context) (*BirthdaysRequest, error) {
	body := BirthdaysRequest{Days: DefaultBirthdayDays}
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *BirthdaysRequest) Validate() error {
	return validateStruct(r)
}

type ContactResponse struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Birthday string `json:"birthday"`
}

func NewContactResponse(contact *entity.Contact) *ContactResponse {
	return &ContactResponse{
		ID:       contact.ID,
		Name:     contact.Name,
		Surname:  contact.Surname,
		Email:    contact.Email,
		Phone:    contact.Phone,
		Birthday: contact.Birthday.Format(DateLayout),
	}
}

func NewContactListResponse(contacts []*entity.Contact) []*ContactResponse {
	res := make([]*ContactResponse, 0, len(contacts))
	for _, contact := range contacts {
		res = append(res, NewContactResponse(contact))
	}
	return res
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/repository"
	"github.com/vibast-solutions/ms-go-contacts/app/types"
)

var (
	ErrContactExists   = errors.New("contact already exists")
	ErrContactNotFound = errors.New("contact not found")
	ErrInvalidDays     = errors.New("days must not be negative")
)

type contactRepository interface {
	Create(ctx context.Context, contact *entity.Contact) error
	ExistsForOwner(ctx context.Context, userID uint64, email, phone string) (bool, error)
	List(ctx context.Context, userID uint64, filter repository.ContactFilter) ([]*entity.Contact, error)
	FindOwned(ctx context.Context, id, userID uint64) (*entity.Contact, error)
	Update(ctx context.Context, contact *entity.Contact) error
	Delete(ctx context.Context, id, userID uint64) error
	UpcomingBirthdays(ctx context.Context, userID uint64, window repository.BirthdayWindow) ([]*entity.Contact, error)
}

type ContactService interface {
	Create(ctx context.Context, userID uint64, req *types.ContactRequest) (*entity.Contact, error)
	List(ctx context.Context, userID uint64, req *types.ListContactsRequest) ([]*entity.Contact, error)
	Get(ctx context.Context, userID, id uint64) (*entity.Contact, error)
	Update(ctx context.Context, userID uint64, req *types.UpdateContactRequest) (*entity.Contact, error)
	Delete(ctx context.Context, userID, id uint64) (*entity.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID uint64, days int) ([]*entity.Contact, error)
}

type ContactServiceOption func(*contactService)

type contactService struct {
	contactRepo contactRepository
	now         func() time.Time
}

func NewContactService(contactRepo contactRepository, opts ...ContactServiceOption) ContactService {
	svc := &contactService{
		contactRepo: contactRepo,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithClock fixes "today" for the birthday window.
func WithClock(now func() time.Time) ContactServiceOption {
	return func(s *contactService) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *contactService) Create(ctx context.Context, userID uint64, req *types.ContactRequest) (*entity.Contact, error) {
	exists, err := s.contactRepo.ExistsForOwner(ctx, userID, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrContactExists
	}

	now := time.Now()
	contact := &entity.Contact{
		Name:      req.Name,
		Surname:   req.Surname,
		Email:     req.Email,
		Phone:     req.Phone,
		Birthday:  req.BirthdayDate(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.contactRepo.Create(ctx, contact); err != nil {
		return nil, err
	}

	return contact, nil
}

func (s *contactService) List(ctx context.Context, userID uint64, req *types.ListContactsRequest) ([]*entity.Contact, error) {
	return s.contactRepo.List(ctx, userID, repository.ContactFilter{
		Name:    req.Name,
		Surname: req.Surname,
		Email:   req.Email,
		Skip:    req.Skip,
		Limit:   req.Limit,
	})
}

func (s *contactService) Get(ctx context.Context, userID, id uint64) (*entity.Contact, error) {
	return s.owned(ctx, userID, id)
}

func (s *contactService) Update(ctx context.Context, userID uint64, req *types.UpdateContactRequest) (*entity.Contact, error) {
	contact, err := s.owned(ctx, userID, req.ID)
	if err != nil {
		return nil, err
	}

	contact.Name = req.Name
	contact.Surname = req.Surname
	contact.Email = req.Email
	contact.Phone = req.Phone
	contact.Birthday = req.BirthdayDate()
	contact.UpdatedAt = time.Now()

	if err = s.contactRepo.Update(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *contactService) Delete(ctx context.Context, userID, id uint64) (*entity.Contact, error) {
	contact, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err = s.contactRepo.Delete(ctx, contact.ID, userID); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *contactService) UpcomingBirthdays(ctx context.Context, userID uint64, days int) ([]*entity.Contact, error) {
	if days < 0 {
		return nil, ErrInvalidDays
	}
	return s.contactRepo.UpcomingBirthdays(ctx, userID, NewBirthdayWindow(s.now(), days))
}

// owned is the single id lookup behind get, update and delete.
func (s *contactService) owned(ctx context.Context, userID, id uint64) (*entity.Contact, error) {
	contact, err := s.contactRepo.FindOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, ErrContactNotFound
	}
	return contact, nil
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"

	"github.com/google/uuid"
)

var (
	ErrInvalidAvatar         = errors.New("avatar must be a png, jpeg, gif or webp image")
	ErrAvatarTooLarge        = errors.New("avatar is too large")
	ErrAvatarStorageDisabled = errors.New("avatar storage is not configured")
)

const sniffLen = 512

var avatarContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// AvatarStorage stores an object under key and returns its public URL.
type AvatarStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

type avatarRepository interface {
	SetAvatarURL(ctx context.Context, email, url string) (*entity.User, error)
}

type UserService interface {
	UpdateAvatar(ctx context.Context, user *entity.User, content io.Reader, size int64) (*entity.User, error)
}

type userService struct {
	userRepo avatarRepository
	storage  AvatarStorage
	maxBytes int64
}

// NewUserService accepts a nil storage; avatar updates then fail with
// ErrAvatarStorageDisabled.
func NewUserService(userRepo avatarRepository, storage AvatarStorage, maxBytes int64) UserService {
	return &userService{
		userRepo: userRepo,
		storage:  storage,
		maxBytes: maxBytes,
	}
}

// UpdateAvatar uploads synchronously so the response can carry the new URL.
// The object key is stable per user and the URL carries a fresh version.
func (s *userService) UpdateAvatar(ctx context.Context, user *entity.User, content io.Reader, size int64) (*entity.User, error) {
	if s.storage == nil {
		return nil, ErrAvatarStorageDisabled
	}
	if size <= 0 {
		return nil, ErrInvalidAvatar
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, ErrAvatarTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !avatarContentTypes[contentType] {
		return nil, ErrInvalidAvatar
	}

	// Keyed by id so the object path never carries user input.
	key := "avatars/" + strconv.FormatUint(user.ID, 10)
	url, err := s.storage.Upload(ctx, key, contentType, io.MultiReader(bytes.NewReader(head), content), size)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	return s.userRepo.SetAvatarURL(ctx, user.Email, url+"?v="+uuid.NewString())
}

package types

import "github.com/vibast-solutions/ms-go-contacts/app/entity"

// UserResponse is the public profile. The password hash never leaves the
// service.
type UserResponse struct {
	ID       uint64  `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Avatar   *string `json:"avatar"`
}

func NewUserResponse(user *entity.User) *UserResponse {
	res := &UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
	if user.Avatar.Valid {
		avatar := user.Avatar.String
		res.Avatar = &avatar
	}
	return res
}

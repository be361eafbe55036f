package dto

import (
	"time"

	"myfunds/internal/domain"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string `json:"username" validate:"nonzero,max=50"`
	Password string `json:"password" validate:"min=6"`
	Email    string `json:"email" validate:"max=100"`
	Phone    string `json:"phone" validate:"max=20"`
	Nickname string `json:"nickname" validate:"max=50"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" validate:"nonzero"`
	Password string `json:"password" validate:"nonzero"`
}

// UpdateUserRequest carries optional profile changes
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Nickname *string `json:"nickname,omitempty"`
}

// UserOutput represents user details in API responses
type UserOutput struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserOutput converts a domain user for output
func NewUserOutput(u *domain.User) *UserOutput {
	return &UserOutput{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		Nickname:  u.Nickname,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

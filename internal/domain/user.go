package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the system
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Nickname     string    `json:"nickname,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserStatus constants
const (
	UserActive   = "ACTIVE"
	UserInactive = "INACTIVE"
)

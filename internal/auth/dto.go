package auth

import (
	"time"

	"github.com/angelmondragon/grocer-backend/internal/users"
	"github.com/angelmondragon/grocer-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest onboards a customer or a supermarket owner.
type RegisterRequest struct {
	Name     string     `json:"name" validate:"required,max=120"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8,max=128"`
	Phone    *string    `json:"phone,omitempty"`
	Role     enums.Role `json:"role" validate:"omitempty,oneof=customer owner"`
}

// LoginResponse contains the access token and user produced by a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        *users.UserDTO `json:"user"`
}

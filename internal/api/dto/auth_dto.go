package dto

import (
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// RegisterRequest payload for client self-registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// CreateUserRequest is used by admins to create staff accounts.
type CreateUserRequest struct {
	Name         string      `json:"name" validate:"required,max=100"`
	Email        string      `json:"email" validate:"required,email"`
	Password     string      `json:"password" validate:"required,min=8"`
	Role         domain.Role `json:"role" validate:"required,oneof=Client Agent Admin"`
	DepartmentID *string     `json:"department_id" validate:"omitempty,uuid"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account. AvatarURL is a presigned
// link to ProfileImageURL, filled by handlers that can sign it.
type UserResponse struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Role            domain.Role `json:"role"`
	DepartmentID    *string     `json:"department_id,omitempty"`
	TicketCount     int         `json:"ticket_count"`
	ProfileImageURL string      `json:"profile_image_url,omitempty"`
	AvatarURL       string      `json:"avatar_url,omitempty"`
	Verified        bool        `json:"verified"`
	CreatedAt       time.Time   `json:"created_at"`
}

// NewUserResponse converts u.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		DepartmentID:    u.DepartmentID,
		TicketCount:     u.TicketCount,
		ProfileImageURL: u.ProfileImageURL,
		Verified:        u.Verified,
		CreatedAt:       u.CreatedAt,
	}
}

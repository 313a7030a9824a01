package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username        string      `json:"username"`
	Email           string      `json:"email"`
	Password        string      `json:"password"`
	PasswordConfirm string      `json:"password_confirm"`
	Role            domain.Role `json:"role"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Phone           *string     `json:"phone"`
	Department      *string     `json:"department"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest payload for token refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh"`
}

// ProfileUpdateRequest payload for PATCH /profile. Pointers distinguish
// omitted fields from explicit blanks.
type ProfileUpdateRequest struct {
	Email      *string `json:"email"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
}

// UserResponse is the public shape of an account.
type UserResponse struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	RoleDisplay string      `json:"role_display"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Phone       *string     `json:"phone"`
	Department  *string     `json:"department"`
	JoinedAt    time.Time   `json:"date_joined"`
}

// TokensResponse carries the access/refresh pair.
type TokensResponse struct {
	Access           string    `json:"access"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	Refresh          string    `json:"refresh"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		RoleDisplay: user.Role.Display(),
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Phone:       user.Phone,
		Department:  user.Department,
		JoinedAt:    user.JoinedAt,
	}
}

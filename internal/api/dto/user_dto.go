package dto

import (
	"time"

	"github.com/spec-kit/finance-tracker/internal/domain"
)

// RegisterRequest payload for new users.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ValidateTokenRequest asks whether a token is still usable.
type ValidateTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// ValidateTokenResponse answers ValidateTokenRequest.
type ValidateTokenResponse struct {
	Valid bool   `json:"valid"`
	Email string `json:"email,omitempty"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
	}
}

// NewAuthResponse pairs a user with the token issued to them.
func NewAuthResponse(user *domain.User, token domain.Token) AuthResponse {
	return AuthResponse{
		Token:     token.Raw,
		TokenType: "Bearer",
		ExpiresAt: token.ExpiresAt,
		User:      NewUserResponse(user),
	}
}

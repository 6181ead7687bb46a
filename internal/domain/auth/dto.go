package auth

import "taskhub/internal/domain"

type RegisterRequest struct {
	Email    string          `json:"email" validate:"required,email,max=255"`
	Password string          `json:"password" validate:"required,min=8,max=72"`
	Name     string          `json:"name" validate:"required,min=2,max=255"`
	Phone    string          `json:"phone" validate:"omitempty,max=32"`
	Role     domain.UserRole `json:"role" validate:"omitempty,oneof=customer tasker"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=255"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
}

type AuthResult struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

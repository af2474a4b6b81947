package dto

import "github.com/google/uuid"

type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AccountResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	HasProfile bool      `json:"has_profile"`
}

type AuthResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int64           `json:"expires_in"`
	Account     AccountResponse `json:"account"`
}

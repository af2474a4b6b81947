package dto

import (
	"time"

	"github.com/google/uuid"
)

type AddReviewerInput struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
}

type ReviewerResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	NetID    string    `json:"netid"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	AddedAt  time.Time `json:"added_at"`
}

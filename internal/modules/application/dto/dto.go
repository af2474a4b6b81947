package dto

import (
	"time"

	"anoa.com/teamcommonapp/internal/entity"
	"github.com/google/uuid"
)

type AnswersInput struct {
	Answers map[string]string `json:"answers"`
}

type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=submitted interviewing accepted rejected"`
}

type ApplicationFilter struct {
	Status string `form:"status"`
}

// ApplicationResponse is an application as seen by its applicant or by the team.
type ApplicationResponse struct {
	*entity.Application
	Role               string     `json:"role"`
	ApplicableDeadline *time.Time `json:"applicable_deadline"`
	DeadlinePassed     bool       `json:"deadline_passed"`
}

// MyApplicationResponse is one row of the applicant's own dashboard.
type MyApplicationResponse struct {
	ID        uuid.UUID `json:"id"`
	TeamID    uuid.UUID `json:"team_id"`
	TeamName  string    `json:"team_name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TeamApplicationRow is one row of a team's application table.
type TeamApplicationRow struct {
	ID            uuid.UUID `json:"id"`
	StudentID     uuid.UUID `json:"student_id"`
	ApplicantName string    `json:"applicant_name"`
	NetID         string    `json:"netid"`
	ClassStanding string    `json:"class_standing"`
	Status        string    `json:"status"`
	MessageCount  int64     `json:"message_count"`
	NoteCount     int64     `json:"note_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type TeamApplicationsResponse struct {
	Data         []TeamApplicationRow `json:"data"`
	StatusCounts map[string]int64     `json:"status_counts"`
}

package dto

import (
	"time"

	"anoa.com/teamcommonapp/internal/entity"
	"github.com/google/uuid"
)

type TeamFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
}

type TeamListResponse struct {
	Data       []*entity.Team `json:"data"`
	Categories []string       `json:"categories"`
}

// TeamDetailResponse is a team as seen by one caller.
type TeamDetailResponse struct {
	*entity.Team
	ApplicableDeadline *time.Time `json:"applicable_deadline"`
	DeadlinePassed     bool       `json:"deadline_passed"`
	DeadlineSoon       bool       `json:"deadline_soon"`
	ApplicationID      *uuid.UUID `json:"application_id,omitempty"`
	ApplicationStatus  *string    `json:"application_status,omitempty"`
	Role               string     `json:"role,omitempty"`
}

type ManagedTeamResponse struct {
	*entity.Team
	Role string `json:"role"`
}

// DeadlinesInput replaces both deadlines. A null or empty value clears that
// deadline. Values are RFC 3339 or datetime-local ("2006-01-02T15:04"), the
// latter read as UTC.
type DeadlinesInput struct {
	UpperclassmanDeadline *string `json:"upperclassman_deadline"`
	LowerclassmanDeadline *string `json:"lowerclassman_deadline"`
}

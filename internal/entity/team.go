package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionText     = "text"
	QuestionTextarea = "textarea"
	QuestionSelect   = "select"
)

// TeamQuestion is one entry of a team's ordered custom question list.
type TeamQuestion struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type Team struct {
	ID                    uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	Name                  string                            `gorm:"size:150;uniqueIndex;not null" json:"name"`
	Description           *string                           `gorm:"type:text" json:"description"`
	Category              *string                           `gorm:"size:100;index" json:"category"`
	Website               *string                           `gorm:"type:text" json:"website"`
	CustomQuestions       datatypes.JSONSlice[TeamQuestion] `json:"custom_questions"`
	OwnerID               uuid.UUID                         `gorm:"type:uuid;not null;index" json:"owner_id"`
	UpperclassmanDeadline *time.Time                        `json:"upperclassman_deadline"`
	LowerclassmanDeadline *time.Time                        `json:"lowerclassman_deadline"`
	CreatedAt             time.Time                         `gorm:"autoCreateTime" json:"created_at"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	return
}

// DeadlineFor returns the deadline that applies to a student of the given
// class standing. Anything other than lowerclassman uses the upperclassman deadline.
func (t *Team) DeadlineFor(classStanding string) *time.Time {
	if classStanding == StandingLowerclassman {
		return t.LowerclassmanDeadline
	}
	return t.UpperclassmanDeadline
}

// Question looks up a question by id.
func (t *Team) Question(id string) (TeamQuestion, bool) {
	for _, q := range t.CustomQuestions {
		if q.ID == id {
			return q, true
		}
	}
	return TeamQuestion{}, false
}

const RoleReviewer = "reviewer"

// TeamMember grants a reviewer access to a team's applications.
type TeamMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_team_members_team_user,priority:1" json:"team_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_team_members_team_user,priority:2;index" json:"user_id"`
	Role      string    `gorm:"size:20;not null;default:reviewer" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	Profile   *Profile  `gorm:"foreignKey:UserID;references:UserID" json:"profile,omitempty"`
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	if m.Role == "" {
		m.Role = RoleReviewer
	}
	return
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusDraft        = "draft"
	StatusSubmitted    = "submitted"
	StatusInterviewing = "interviewing"
	StatusAccepted     = "accepted"
	StatusRejected     = "rejected"
)

// Answers maps a team question id to the applicant's answer.
type Answers = datatypes.JSONType[map[string]string]

type Application struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_student_team,priority:1" json:"student_id"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_student_team,priority:2;index" json:"team_id"`
	Status    string    `gorm:"size:20;not null;default:draft;index" json:"status"`
	Answers   Answers   `json:"answers"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Team    *Team    `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Student *Profile `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	if a.Status == "" {
		a.Status = StatusDraft
	}
	return
}

// AnswerMap returns the stored answers, never nil.
func (a *Application) AnswerMap() map[string]string {
	m := a.Answers.Data()
	if m == nil {
		return map[string]string{}
	}
	return m
}

const (
	SenderApplicant = "applicant"
	SenderTeam      = "team"
)

// Message is an append-only entry in an application's conversation.
type Message struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_application_created,priority:1" json:"application_id"`
	SenderID      uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	SenderType    string    `gorm:"size:20;not null" json:"sender_type"`
	Body          string    `gorm:"type:text;not null" json:"body"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index:idx_messages_application_created,priority:2" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}

// Note is a private team-side review note.
type Note struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"application_id"`
	AuthorID      uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	Body          string    `gorm:"type:text;not null" json:"body"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}

func NewAnswers(m map[string]string) Answers {
	return datatypes.NewJSONType(m)
}

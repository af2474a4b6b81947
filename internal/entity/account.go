package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is an authenticated identity. Student accounts own a Profile; team
// accounts never do.
type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

const (
	StandingUpperclassman = "upperclassman"
	StandingLowerclassman = "lowerclassman"
)

type Profile struct {
	UserID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	NetID         string    `gorm:"column:netid;size:16;uniqueIndex;not null" json:"netid"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName      string    `gorm:"size:100;not null" json:"full_name"`
	Major         *string   `gorm:"size:100" json:"major"`
	GradYear      *int      `json:"grad_year"`
	GPA           *float64  `gorm:"column:gpa" json:"gpa"`
	ResumeURL     *string   `gorm:"type:text" json:"resume_url"`
	ClassStanding string    `gorm:"size:20;not null" json:"class_standing"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

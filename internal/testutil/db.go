// Package testutil provides fixtures shared by repository and service tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"anoa.com/teamcommonapp/internal/entity"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens an isolated in-memory SQLite database with every entity migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(entity.All()...))
	return db
}

// Fixtures creates rows with sensible defaults.
type Fixtures struct {
	t  *testing.T
	db *gorm.DB
	n  int
}

func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

func (f *Fixtures) next() int {
	f.n++
	return f.n
}

// Account creates a bare account, as used for team owners.
func (f *Fixtures) Account(email string) *entity.Account {
	f.t.Helper()
	if email == "" {
		email = fmt.Sprintf("team%d@example.org", f.next())
	}
	acc := &entity.Account{Email: email, PasswordHash: "x"}
	require.NoError(f.t, f.db.WithContext(context.Background()).Create(acc).Error)
	return acc
}

// Student creates an account with a profile of the given class standing.
func (f *Fixtures) Student(standing string) *entity.Profile {
	f.t.Helper()
	n := f.next()
	netid := fmt.Sprintf("st%d", n)
	acc := f.Account(netid + "@cornell.edu")
	p := &entity.Profile{
		UserID:        acc.ID,
		NetID:         netid,
		Email:         acc.Email,
		FullName:      fmt.Sprintf("Student %d", n),
		ClassStanding: standing,
	}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}

// Team creates a team owned by a fresh account.
func (f *Fixtures) Team(questions ...entity.TeamQuestion) *entity.Team {
	f.t.Helper()
	owner := f.Account("")
	team := &entity.Team{
		Name:            fmt.Sprintf("Team %d", f.next()),
		OwnerID:         owner.ID,
		CustomQuestions: questions,
	}
	require.NoError(f.t, f.db.Create(team).Error)
	return team
}

// Reviewer adds the profile as a reviewer of team.
func (f *Fixtures) Reviewer(team *entity.Team, p *entity.Profile) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&entity.TeamMember{TeamID: team.ID, UserID: p.UserID}).Error)
}

// Application inserts an application in the given status.
func (f *Fixtures) Application(team *entity.Team, student *entity.Profile, status string, answers map[string]string) *entity.Application {
	f.t.Helper()
	if answers == nil {
		answers = map[string]string{}
	}
	app := &entity.Application{
		StudentID: student.UserID,
		TeamID:    team.ID,
		Status:    status,
		Answers:   entity.NewAnswers(answers),
	}
	require.NoError(f.t, f.db.Create(app).Error)
	return app
}

// SetDeadlines overwrites both team deadlines.
func (f *Fixtures) SetDeadlines(team *entity.Team, upper, lower *time.Time) {
	f.t.Helper()
	team.UpperclassmanDeadline = upper
	team.LowerclassmanDeadline = lower
	require.NoError(f.t, f.db.Model(team).Select("upperclassman_deadline", "lowerclassman_deadline").Updates(team).Error)
}

func (f *Fixtures) DB() *gorm.DB {
	return f.db
}

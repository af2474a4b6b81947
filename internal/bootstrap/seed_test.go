package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"anoa.com/teamcommonapp/internal/entity"
	"anoa.com/teamcommonapp/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const seedJSON = `{
  "teams": [
    {
      "name": "Cornell Hyperloop",
      "description": "Pod design and controls",
      "category": "Engineering",
      "owner_email": "Hyperloop@Cornell.edu",
      "owner_password": "hyperloop-pass",
      "upperclassman_deadline": "2026-09-20T23:59:00Z",
      "custom_questions": [
        {"id": "q1", "label": "Why Hyperloop?", "type": "textarea", "required": true},
        {"id": "q2", "label": "Subteam", "type": "select", "required": true, "options": ["Mechanical", "Electrical"]}
      ]
    }
  ]
}`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teams.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSeedTeams_Idempotent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	file, err := LoadSeedFile(writeSeed(t, seedJSON))
	require.NoError(t, err)

	require.NoError(t, SeedTeams(ctx, db, file, zap.NewNop()))

	var account entity.Account
	require.NoError(t, db.Where("email = ?", "hyperloop@cornell.edu").First(&account).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("hyperloop-pass")))

	var team entity.Team
	require.NoError(t, db.Where("name = ?", "Cornell Hyperloop").First(&team).Error)
	assert.Equal(t, account.ID, team.OwnerID)
	assert.Len(t, team.CustomQuestions, 2)
	require.NotNil(t, team.UpperclassmanDeadline)
	assert.Nil(t, team.LowerclassmanDeadline)

	// A second run with new questions refreshes them without duplicating rows.
	file.Teams[0].CustomQuestions = file.Teams[0].CustomQuestions[:1]
	require.NoError(t, SeedTeams(ctx, db, file, zap.NewNop()))

	var teams []entity.Team
	require.NoError(t, db.Find(&teams).Error)
	require.Len(t, teams, 1)
	assert.Len(t, teams[0].CustomQuestions, 1)

	var accounts int64
	require.NoError(t, db.Model(&entity.Account{}).Count(&accounts).Error)
	assert.EqualValues(t, 1, accounts)
}

func TestSeedTeams_ShortPassword(t *testing.T) {
	db := testutil.NewDB(t)

	file := &SeedFile{Teams: []TeamSeed{{Name: "Robotics", OwnerEmail: "robotics@example.org", OwnerPassword: "short"}}}
	err := SeedTeams(context.Background(), db, file, zap.NewNop())
	assert.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&entity.Team{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLoadSeedFile_Invalid(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadSeedFile(writeSeed(t, "{not json"))
	assert.Error(t, err)

	_, err = LoadSeedFile(writeSeed(t, `{"teams":[{"name":"","owner_email":"a@b.c"}]}`))
	assert.ErrorContains(t, err, "name is required")
}

func TestValidateQuestions(t *testing.T) {
	tests := []struct {
		name      string
		questions []entity.TeamQuestion
		wantErr   string
	}{
		{
			name: "valid",
			questions: []entity.TeamQuestion{
				{ID: "q1", Label: "Why?", Type: entity.QuestionText},
				{ID: "q2", Label: "Pick", Type: entity.QuestionSelect, Options: []string{"a"}},
			},
		},
		{
			name: "duplicate id",
			questions: []entity.TeamQuestion{
				{ID: "q1", Label: "A", Type: entity.QuestionText},
				{ID: "q1", Label: "B", Type: entity.QuestionText},
			},
			wantErr: "duplicate question id",
		},
		{
			name:      "unknown type",
			questions: []entity.TeamQuestion{{ID: "q1", Label: "A", Type: "checkbox"}},
			wantErr:   "unknown type",
		},
		{
			name:      "select without options",
			questions: []entity.TeamQuestion{{ID: "q1", Label: "A", Type: entity.QuestionSelect}},
			wantErr:   "need options",
		},
		{
			name:      "options on text",
			questions: []entity.TeamQuestion{{ID: "q1", Label: "A", Type: entity.QuestionText, Options: []string{"x"}}},
			wantErr:   "only allowed on select",
		},
		{
			name:      "missing label",
			questions: []entity.TeamQuestion{{ID: "q1", Type: entity.QuestionText}},
			wantErr:   "label is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuestions(tt.questions)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

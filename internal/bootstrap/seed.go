package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"anoa.com/teamcommonapp/internal/entity"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(entity.All()...)
}

// TeamSeed describes one team and the account that owns it.
type TeamSeed struct {
	Name                  string                `json:"name"`
	Description           *string               `json:"description"`
	Category              *string               `json:"category"`
	Website               *string               `json:"website"`
	OwnerEmail            string                `json:"owner_email"`
	OwnerPassword         string                `json:"owner_password"`
	CustomQuestions       []entity.TeamQuestion `json:"custom_questions"`
	UpperclassmanDeadline *time.Time            `json:"upperclassman_deadline"`
	LowerclassmanDeadline *time.Time            `json:"lowerclassman_deadline"`
}

type SeedFile struct {
	Teams []TeamSeed `json:"teams"`
}

// LoadSeedFile reads and validates a team seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var file SeedFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i, t := range file.Teams {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("team %d: name is required", i)
		}
		if strings.TrimSpace(t.OwnerEmail) == "" {
			return nil, fmt.Errorf("team %q: owner_email is required", t.Name)
		}
		if err := ValidateQuestions(t.CustomQuestions); err != nil {
			return nil, fmt.Errorf("team %q: %w", t.Name, err)
		}
	}
	return &file, nil
}

// ValidateQuestions checks a team's question list: ids are unique, types are
// known, and select questions (and only they) carry options.
func ValidateQuestions(questions []entity.TeamQuestion) error {
	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			return errors.New("question id is required")
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}

		if strings.TrimSpace(q.Label) == "" {
			return fmt.Errorf("question %q: label is required", q.ID)
		}

		switch q.Type {
		case entity.QuestionText, entity.QuestionTextarea:
			if len(q.Options) > 0 {
				return fmt.Errorf("question %q: options are only allowed on select questions", q.ID)
			}
		case entity.QuestionSelect:
			if len(q.Options) == 0 {
				return fmt.Errorf("question %q: select questions need options", q.ID)
			}
		default:
			return fmt.Errorf("question %q: unknown type %q", q.ID, q.Type)
		}
	}
	return nil
}

// SeedTeams creates the team accounts and teams in file. Teams are matched by
// name: existing ones get their description and questions refreshed, while
// deadlines and owner passwords are left to the owner.
func SeedTeams(ctx context.Context, db *gorm.DB, file *SeedFile, log *zap.Logger) error {
	for _, seed := range file.Teams {
		created, err := seedTeam(ctx, db, seed)
		if err != nil {
			return fmt.Errorf("seed team %q: %w", seed.Name, err)
		}
		if created {
			log.Info("team seeded", zap.String("team", seed.Name))
		}
	}
	return nil
}

func seedTeam(ctx context.Context, db *gorm.DB, seed TeamSeed) (bool, error) {
	created := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := ensureAccount(tx, seed.OwnerEmail, seed.OwnerPassword)
		if err != nil {
			return err
		}

		var team entity.Team
		err = tx.Where("name = ?", seed.Name).First(&team).Error
		switch {
		case err == nil:
			return tx.Model(&team).Select("description", "category", "website", "custom_questions", "owner_id").
				Updates(&entity.Team{
					Description:     seed.Description,
					Category:        seed.Category,
					Website:         seed.Website,
					CustomQuestions: seed.CustomQuestions,
					OwnerID:         owner.ID,
				}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			return tx.Create(&entity.Team{
				Name:                  seed.Name,
				Description:           seed.Description,
				Category:              seed.Category,
				Website:               seed.Website,
				CustomQuestions:       seed.CustomQuestions,
				OwnerID:               owner.ID,
				UpperclassmanDeadline: seed.UpperclassmanDeadline,
				LowerclassmanDeadline: seed.LowerclassmanDeadline,
			}).Error
		default:
			return err
		}
	})
	return created, err
}

func ensureAccount(tx *gorm.DB, email, password string) (*entity.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var account entity.Account
	err := tx.Where("email = ?", email).First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if len(password) < 8 {
		return nil, fmt.Errorf("owner_password for %s must be at least 8 characters", email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account = entity.Account{Email: email, PasswordHash: string(hash)}
	if err := tx.Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

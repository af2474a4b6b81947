package repository

import (
	"context"
	"strings"
	"time"

	"anoa.com/teamcommonapp/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamFilter narrows a team listing. A non-nil IDs restricts the result to
// those teams, an empty non-nil IDs yields no teams.
type TeamFilter struct {
	Search   string
	Category string
	IDs      []uuid.UUID
}

type TeamRepository interface {
	Create(ctx context.Context, team *entity.Team) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Team, error)
	FindByName(ctx context.Context, name string) (*entity.Team, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Team, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Team, error)
	FindAll(ctx context.Context, filter TeamFilter) ([]*entity.Team, error)
	Categories(ctx context.Context) ([]string, error)
	UpdateDeadlines(ctx context.Context, id uuid.UUID, upper, lower *time.Time) error
	Update(ctx context.Context, team *entity.Team) error
}

type teamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Create(ctx context.Context, team *entity.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *teamRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Team, error) {
	var team entity.Team
	if err := r.db.WithContext(ctx).First(&team, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) FindByName(ctx context.Context, name string) (*entity.Team, error) {
	var team entity.Team
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Team, error) {
	teams := []*entity.Team{}
	if len(ids) == 0 {
		return teams, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *teamRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Team, error) {
	var teams []*entity.Team
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *teamRepository) FindAll(ctx context.Context, filter TeamFilter) ([]*entity.Team, error) {
	teams := []*entity.Team{}
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return teams, nil
	}

	query := r.db.WithContext(ctx)
	if filter.IDs != nil {
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", pattern, pattern)
	}

	if err := query.Order("name ASC").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *teamRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.db.WithContext(ctx).
		Model(&entity.Team{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *teamRepository) UpdateDeadlines(ctx context.Context, id uuid.UUID, upper, lower *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.Team{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"upperclassman_deadline": upper,
			"lowerclassman_deadline": lower,
		}).Error
}

func (r *teamRepository) Update(ctx context.Context, team *entity.Team) error {
	return r.db.WithContext(ctx).
		Model(team).
		Select("description", "category", "website", "custom_questions", "owner_id").
		Updates(team).Error
}

package repository

import (
	"context"
	"strings"

	"anoa.com/teamcommonapp/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *entity.Profile) error
	Update(ctx context.Context, profile *entity.Profile) error
	UpdateResumeURL(ctx context.Context, userID uuid.UUID, url *string) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	FindByNetID(ctx context.Context, netid string) (*entity.Profile, error)
	FindByEmail(ctx context.Context, email string) (*entity.Profile, error)
	FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]*entity.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// Update writes every editable column, including ones cleared to NULL.
func (r *profileRepository) Update(ctx context.Context, profile *entity.Profile) error {
	return r.db.WithContext(ctx).
		Model(profile).
		Select("netid", "email", "full_name", "major", "grad_year", "gpa", "resume_url", "class_standing", "updated_at").
		Updates(profile).Error
}

func (r *profileRepository) UpdateResumeURL(ctx context.Context, userID uuid.UUID, url *string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Profile{}).
		Where("user_id = ?", userID).
		Update("resume_url", url).Error
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindByNetID(ctx context.Context, netid string) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.db.WithContext(ctx).
		Where("netid = ?", strings.ToLower(strings.TrimSpace(netid))).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]*entity.Profile, error) {
	var profiles []*entity.Profile
	if len(userIDs) == 0 {
		return profiles, nil
	}
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

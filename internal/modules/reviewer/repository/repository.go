package repository

import (
	"context"

	"anoa.com/teamcommonapp/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberRepository persists reviewer memberships (team_members).
type MemberRepository interface {
	Create(ctx context.Context, member *entity.TeamMember) error
	Delete(ctx context.Context, teamID, userID uuid.UUID) error
	Exists(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	FindByTeam(ctx context.Context, teamID uuid.UUID) ([]*entity.TeamMember, error)
	TeamIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *entity.TeamMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// Delete removes the membership if present. Deleting a missing row is not an error.
func (r *memberRepository) Delete(ctx context.Context, teamID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&entity.TeamMember{}).Error
}

func (r *memberRepository) Exists(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *memberRepository) FindByTeam(ctx context.Context, teamID uuid.UUID) ([]*entity.TeamMember, error) {
	var members []*entity.TeamMember
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *memberRepository) TeamIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&entity.TeamMember{}).
		Where("user_id = ?", userID).
		Pluck("team_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

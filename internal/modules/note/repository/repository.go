package repository

import (
	"context"

	"anoa.com/teamcommonapp/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Note, error)
	FindByApplication(ctx context.Context, applicationID uuid.UUID) ([]*entity.Note, error)
	UpdateBody(ctx context.Context, note *entity.Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByApplications(ctx context.Context, applicationIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *entity.Note) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *noteRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	var note entity.Note
	if err := r.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) FindByApplication(ctx context.Context, applicationID uuid.UUID) ([]*entity.Note, error) {
	notes := []*entity.Note{}
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepository) UpdateBody(ctx context.Context, note *entity.Note) error {
	return r.db.WithContext(ctx).Model(note).Select("body", "updated_at").Updates(note).Error
}

func (r *noteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Note{}, "id = ?", id).Error
}

func (r *noteRepository) CountByApplications(ctx context.Context, applicationIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(applicationIDs))
	if len(applicationIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ApplicationID uuid.UUID
		Count         int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entity.Note{}).
		Select("application_id, COUNT(*) AS count").
		Where("application_id IN ?", applicationIDs).
		Group("application_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ApplicationID] = row.Count
	}
	return counts, nil
}

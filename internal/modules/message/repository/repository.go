package repository

import (
	"context"

	"anoa.com/teamcommonapp/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *entity.Message) error
	FindByApplication(ctx context.Context, applicationID uuid.UUID) ([]*entity.Message, error)
	CountByApplications(ctx context.Context, applicationIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *entity.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// FindByApplication returns the thread oldest first. IDs are time-ordered
// and break created_at ties in insertion order.
func (r *messageRepository) FindByApplication(ctx context.Context, applicationID uuid.UUID) ([]*entity.Message, error) {
	messages := []*entity.Message{}
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) CountByApplications(ctx context.Context, applicationIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(applicationIDs))
	if len(applicationIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ApplicationID uuid.UUID
		Count         int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
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

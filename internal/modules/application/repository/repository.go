package repository

import (
	"context"

	"anoa.com/teamcommonapp/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationRepository interface {
	Create(ctx context.Context, app *entity.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error)
	FindByStudentAndTeam(ctx context.Context, studentID, teamID uuid.UUID) (*entity.Application, error)
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Application, error)
	FindByTeam(ctx context.Context, teamID uuid.UUID, status string) ([]*entity.Application, error)
	CountByStatus(ctx context.Context, teamID uuid.UUID) (map[string]int64, error)
	// UpdateDraftAnswers replaces the answers of a draft. It reports false
	// when the application is no longer a draft.
	UpdateDraftAnswers(ctx context.Context, id uuid.UUID, answers entity.Answers) (bool, error)
	// TransitionStatus moves the application to status if its current status
	// is one of from. It reports false when no row matched.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error)
	// SubmitDraft moves a draft to submitted only while its stored answers
	// still equal answers. It reports false when no row matched.
	SubmitDraft(ctx context.Context, id uuid.UUID, answers entity.Answers) (bool, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *entity.Application) error {
	return r.db.WithContext(ctx).Omit("Team", "Student").Create(app).Error
}

func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	var app entity.Application
	if err := r.db.WithContext(ctx).
		Preload("Team").
		Preload("Student").
		First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByStudentAndTeam(ctx context.Context, studentID, teamID uuid.UUID) (*entity.Application, error) {
	var app entity.Application
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND team_id = ?", studentID, teamID).
		First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Application, error) {
	apps := []*entity.Application{}
	if err := r.db.WithContext(ctx).
		Preload("Team").
		Where("student_id = ?", studentID).
		Order("updated_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// FindByTeam lists non-draft applications, newest activity first.
func (r *applicationRepository) FindByTeam(ctx context.Context, teamID uuid.UUID, status string) ([]*entity.Application, error) {
	apps := []*entity.Application{}
	query := r.db.WithContext(ctx).
		Preload("Student").
		Where("team_id = ? AND status <> ?", teamID, entity.StatusDraft)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("updated_at DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepository) CountByStatus(ctx context.Context, teamID uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Select("status, COUNT(*) AS count").
		Where("team_id = ? AND status <> ?", teamID, entity.StatusDraft).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *applicationRepository) UpdateDraftAnswers(ctx context.Context, id uuid.UUID, answers entity.Answers) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Where("id = ? AND status = ?", id, entity.StatusDraft).
		Update("answers", answers)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *applicationRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *applicationRepository) SubmitDraft(ctx context.Context, id uuid.UUID, answers entity.Answers) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Where("id = ? AND status = ? AND answers = ?", id, entity.StatusDraft, answers).
		Update("status", entity.StatusSubmitted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

package application

import (
	"context"
	"fmt"
	"time"

	"anoa.com/teamcommonapp/internal/entity"
	"anoa.com/teamcommonapp/internal/modules/application/dto"
	"anoa.com/teamcommonapp/internal/modules/application/repository"
	messageRepo "anoa.com/teamcommonapp/internal/modules/message/repository"
	noteRepo "anoa.com/teamcommonapp/internal/modules/note/repository"
	notification "anoa.com/teamcommonapp/internal/modules/notification/service"
	profileRepo "anoa.com/teamcommonapp/internal/modules/profile/repository"
	team "anoa.com/teamcommonapp/internal/modules/team/service"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/database"
	"anoa.com/teamcommonapp/pkg/metrics"
	"anoa.com/teamcommonapp/pkg/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// decisionSources are the statuses an owner may move an application out of.
// Any of them may also be a target; only draft is excluded.
var decisionSources = []string{
	entity.StatusSubmitted,
	entity.StatusInterviewing,
	entity.StatusAccepted,
	entity.StatusRejected,
}

var (
	errAlreadyApplied    = fmt.Errorf("you have already applied to this team: %w", apperror.ErrConflict)
	errNotEditable       = fmt.Errorf("application has been submitted and can no longer be edited: %w", apperror.ErrConflict)
	errNotSubmittable    = fmt.Errorf("Application not found or already submitted: %w", apperror.ErrNotFound)
	errAnswersChanged    = fmt.Errorf("answers changed while submitting, review them and submit again: %w", apperror.ErrConflict)
	errDeadlinePassed    = fmt.Errorf("The application deadline has passed: %w", apperror.ErrDeadlinePassed)
	errStatusOwnerOnly   = fmt.Errorf("Only the team account can update application status: %w", apperror.ErrForbidden)
	errDraftHasNoOutcome = fmt.Errorf("draft applications cannot be given a decision: %w", apperror.ErrConflict)
)

type ApplicationService interface {
	CreateApplication(ctx context.Context, userID, teamID uuid.UUID, input dto.AnswersInput) (*entity.Application, error)
	UpdateAnswers(ctx context.Context, userID, applicationID uuid.UUID, input dto.AnswersInput) (*entity.Application, error)
	SubmitApplication(ctx context.Context, userID, applicationID uuid.UUID) (*entity.Application, error)
	SetStatus(ctx context.Context, userID, applicationID uuid.UUID, input dto.StatusInput) (*entity.Application, error)
	GetApplication(ctx context.Context, userID, applicationID uuid.UUID) (*dto.ApplicationResponse, error)
	ListMyApplications(ctx context.Context, userID uuid.UUID) ([]dto.MyApplicationResponse, error)
	ListTeamApplications(ctx context.Context, userID, teamID uuid.UUID, filter dto.ApplicationFilter) (*dto.TeamApplicationsResponse, error)
	Authorize(ctx context.Context, userID, applicationID uuid.UUID) (*Access, error)
}

type applicationService struct {
	repo        repository.ApplicationRepository
	profileRepo profileRepo.ProfileRepository
	messageRepo messageRepo.MessageRepository
	noteRepo    noteRepo.NoteRepository
	teamService team.TeamService
	notifier    notification.Notifier
	log         *zap.Logger
	now         func() time.Time
}

func NewApplicationService(
	repo repository.ApplicationRepository,
	profileRepo profileRepo.ProfileRepository,
	messageRepo messageRepo.MessageRepository,
	noteRepo noteRepo.NoteRepository,
	teamService team.TeamService,
	notifier notification.Notifier,
	log *zap.Logger,
) ApplicationService {
	if notifier == nil {
		notifier = notification.NoopNotifier{}
	}
	return &applicationService{
		repo:        repo,
		profileRepo: profileRepo,
		messageRepo: messageRepo,
		noteRepo:    noteRepo,
		teamService: teamService,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

func (s *applicationService) CreateApplication(ctx context.Context, userID, teamID uuid.UUID, input dto.AnswersInput) (*entity.Application, error) {
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("complete your profile before applying: %w", apperror.ErrInvalidInput)
		}
		return nil, err
	}

	t, _, err := s.teamService.ResolveRole(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}

	if team.DeadlinePassed(t.DeadlineFor(profile.ClassStanding), s.now()) {
		return nil, errDeadlinePassed
	}

	answers := input.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	if err := validateAnswers(t, answers); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByStudentAndTeam(ctx, userID, teamID); err == nil {
		return nil, errAlreadyApplied
	} else if !database.IsNotFound(err) {
		return nil, err
	}

	app := &entity.Application{
		StudentID: userID,
		TeamID:    teamID,
		Status:    entity.StatusDraft,
		Answers:   entity.NewAnswers(answers),
	}
	if err := s.repo.Create(ctx, app); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errAlreadyApplied
		}
		return nil, err
	}

	s.log.Info("application created",
		zap.String("application_id", app.ID.String()),
		zap.String("team_id", teamID.String()),
	)
	return app, nil
}

func (s *applicationService) UpdateAnswers(ctx context.Context, userID, applicationID uuid.UUID, input dto.AnswersInput) (*entity.Application, error) {
	access, err := s.Authorize(ctx, userID, applicationID)
	if err != nil {
		return nil, err
	}
	if !access.Applicant {
		return nil, errApplicationNotFound
	}
	app := access.Application
	if app.Status != entity.StatusDraft {
		return nil, errNotEditable
	}

	answers := input.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	if err := validateAnswers(app.Team, answers); err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateDraftAnswers(ctx, app.ID, entity.NewAnswers(answers))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNotEditable
	}

	return s.reload(ctx, app.ID)
}

func (s *applicationService) SubmitApplication(ctx context.Context, userID, applicationID uuid.UUID) (*entity.Application, error) {
	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errNotSubmittable
		}
		return nil, err
	}
	if app.StudentID != userID || app.Status != entity.StatusDraft {
		return nil, errNotSubmittable
	}

	var standing string
	if app.Student != nil {
		standing = app.Student.ClassStanding
	}
	if team.DeadlinePassed(app.Team.DeadlineFor(standing), s.now()) {
		return nil, errDeadlinePassed
	}

	if err := validateSubmission(app.Team, app.AnswerMap()); err != nil {
		return nil, err
	}

	// The answers just validated are part of the match, so an edit racing
	// this call leaves the draft untouched.
	ok, err := s.repo.SubmitDraft(ctx, app.ID, app.Answers)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.repo.FindByID(ctx, app.ID)
		if err == nil && current.Status == entity.StatusDraft {
			return nil, errAnswersChanged
		}
		return nil, errNotSubmittable
	}

	metrics.RecordTransition(entity.StatusSubmitted)
	s.log.Info("application submitted", zap.String("application_id", app.ID.String()))
	return s.reload(ctx, app.ID)
}

func (s *applicationService) SetStatus(ctx context.Context, userID, applicationID uuid.UUID, input dto.StatusInput) (*entity.Application, error) {
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), apperror.ErrInvalidInput)
	}

	access, err := s.Authorize(ctx, userID, applicationID)
	if err != nil {
		return nil, err
	}
	switch access.Role {
	case team.RoleOwner:
	case team.RoleReviewer:
		return nil, errStatusOwnerOnly
	default:
		return nil, errApplicationNotFound
	}

	ok, err := s.repo.TransitionStatus(ctx, applicationID, decisionSources, input.Status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errDraftHasNoOutcome
	}

	metrics.RecordTransition(input.Status)
	s.log.Info("application status updated",
		zap.String("application_id", applicationID.String()),
		zap.String("status", input.Status),
	)

	s.notifier.Notify(notification.Event{
		Kind:          notification.KindStatusChange,
		ApplicationID: applicationID,
		Status:        input.Status,
	})

	return s.reload(ctx, applicationID)
}

func (s *applicationService) GetApplication(ctx context.Context, userID, applicationID uuid.UUID) (*dto.ApplicationResponse, error) {
	access, err := s.Authorize(ctx, userID, applicationID)
	if err != nil {
		return nil, err
	}

	app := access.Application
	resp := &dto.ApplicationResponse{Application: app, Role: string(access.Role)}
	if access.Applicant {
		resp.Role = "applicant"
	}

	var standing string
	if app.Student != nil {
		standing = app.Student.ClassStanding
	}
	if app.Team != nil {
		resp.ApplicableDeadline = app.Team.DeadlineFor(standing)
		resp.DeadlinePassed = team.DeadlinePassed(resp.ApplicableDeadline, s.now())
	}
	return resp, nil
}

func (s *applicationService) ListMyApplications(ctx context.Context, userID uuid.UUID) ([]dto.MyApplicationResponse, error) {
	apps, err := s.repo.FindByStudent(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.MyApplicationResponse, 0, len(apps))
	for _, app := range apps {
		row := dto.MyApplicationResponse{
			ID:        app.ID,
			TeamID:    app.TeamID,
			Status:    app.Status,
			CreatedAt: app.CreatedAt,
			UpdatedAt: app.UpdatedAt,
		}
		if app.Team != nil {
			row.TeamName = app.Team.Name
		}
		result = append(result, row)
	}
	return result, nil
}

func (s *applicationService) ListTeamApplications(ctx context.Context, userID, teamID uuid.UUID, filter dto.ApplicationFilter) (*dto.TeamApplicationsResponse, error) {
	_, role, err := s.teamService.ResolveRole(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !role.TeamSide() {
		return nil, fmt.Errorf("team not found: %w", apperror.ErrNotFound)
	}

	if filter.Status != "" && !isDecisionStatus(filter.Status) {
		return nil, fmt.Errorf("invalid status filter %q: %w", filter.Status, apperror.ErrInvalidInput)
	}

	apps, err := s.repo.FindByTeam(ctx, teamID, filter.Status)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(apps))
	for _, app := range apps {
		ids = append(ids, app.ID)
	}
	messageCounts, err := s.messageRepo.CountByApplications(ctx, ids)
	if err != nil {
		return nil, err
	}
	noteCounts, err := s.noteRepo.CountByApplications(ctx, ids)
	if err != nil {
		return nil, err
	}
	statusCounts, err := s.repo.CountByStatus(ctx, teamID)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.TeamApplicationRow, 0, len(apps))
	for _, app := range apps {
		row := dto.TeamApplicationRow{
			ID:           app.ID,
			StudentID:    app.StudentID,
			Status:       app.Status,
			MessageCount: messageCounts[app.ID],
			NoteCount:    noteCounts[app.ID],
			CreatedAt:    app.CreatedAt,
			UpdatedAt:    app.UpdatedAt,
		}
		if app.Student != nil {
			row.ApplicantName = app.Student.FullName
			row.NetID = app.Student.NetID
			row.ClassStanding = app.Student.ClassStanding
		}
		rows = append(rows, row)
	}

	return &dto.TeamApplicationsResponse{Data: rows, StatusCounts: statusCounts}, nil
}

func (s *applicationService) reload(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

func isDecisionStatus(status string) bool {
	for _, s := range decisionSources {
		if s == status {
			return true
		}
	}
	return false
}

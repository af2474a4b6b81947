package team

import (
	"context"
	"fmt"
	"strings"
	"time"

	"anoa.com/teamcommonapp/internal/entity"
	appRepo "anoa.com/teamcommonapp/internal/modules/application/repository"
	profileRepo "anoa.com/teamcommonapp/internal/modules/profile/repository"
	memberRepo "anoa.com/teamcommonapp/internal/modules/reviewer/repository"
	search "anoa.com/teamcommonapp/internal/modules/search/service"
	"anoa.com/teamcommonapp/internal/modules/team/dto"
	"anoa.com/teamcommonapp/internal/modules/team/repository"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/database"
	"anoa.com/teamcommonapp/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TeamService interface {
	ListTeams(ctx context.Context, filter dto.TeamFilter) (*dto.TeamListResponse, error)
	GetTeam(ctx context.Context, userID, teamID uuid.UUID) (*dto.TeamDetailResponse, error)
	ManagedTeams(ctx context.Context, userID uuid.UUID) ([]dto.ManagedTeamResponse, error)
	SetDeadlines(ctx context.Context, userID, teamID uuid.UUID, input dto.DeadlinesInput) (*entity.Team, error)
	// ResolveRole loads the team and the caller's relation to it.
	ResolveRole(ctx context.Context, teamID, userID uuid.UUID) (*entity.Team, Role, error)
	ReindexTeams(ctx context.Context) error
}

type teamService struct {
	repo        repository.TeamRepository
	memberRepo  memberRepo.MemberRepository
	profileRepo profileRepo.ProfileRepository
	appRepo     appRepo.ApplicationRepository
	index       search.TeamIndex
	log         *zap.Logger
	now         func() time.Time
}

// NewTeamService builds the team service. index may be nil, in which case
// search falls back to the database.
func NewTeamService(repo repository.TeamRepository, memberRepo memberRepo.MemberRepository, profileRepo profileRepo.ProfileRepository, appRepo appRepo.ApplicationRepository, index search.TeamIndex, log *zap.Logger) TeamService {
	return &teamService{
		repo:        repo,
		memberRepo:  memberRepo,
		profileRepo: profileRepo,
		appRepo:     appRepo,
		index:       index,
		log:         log,
		now:         time.Now,
	}
}

func (s *teamService) ListTeams(ctx context.Context, filter dto.TeamFilter) (*dto.TeamListResponse, error) {
	repoFilter := repository.TeamFilter{Category: filter.Category, Search: filter.Search}

	if s.index != nil && filter.Search != "" {
		ids, err := s.index.SearchTeamIDs(ctx, filter.Search, filter.Category)
		if err != nil {
			s.log.Warn("team search index unavailable, falling back to database", zap.Error(err))
		} else {
			repoFilter = repository.TeamFilter{Category: filter.Category, IDs: ids}
		}
	}

	teams, err := s.repo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.TeamListResponse{Data: teams, Categories: categories}, nil
}

func (s *teamService) GetTeam(ctx context.Context, userID, teamID uuid.UUID) (*dto.TeamDetailResponse, error) {
	team, role, err := s.ResolveRole(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.TeamDetailResponse{Team: team, Role: string(role)}

	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return resp, nil
		}
		return nil, err
	}

	now := s.now()
	deadline := team.DeadlineFor(profile.ClassStanding)
	resp.ApplicableDeadline = deadline
	resp.DeadlinePassed = DeadlinePassed(deadline, now)
	resp.DeadlineSoon = DeadlineSoon(deadline, now)

	app, err := s.appRepo.FindByStudentAndTeam(ctx, userID, teamID)
	if err != nil && !database.IsNotFound(err) {
		return nil, err
	}
	if app != nil {
		resp.ApplicationID = &app.ID
		resp.ApplicationStatus = &app.Status
	}

	return resp, nil
}

func (s *teamService) ManagedTeams(ctx context.Context, userID uuid.UUID) ([]dto.ManagedTeamResponse, error) {
	owned, err := s.repo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	reviewingIDs, err := s.memberRepo.TeamIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	reviewing, err := s.repo.FindByIDs(ctx, reviewingIDs)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ManagedTeamResponse, 0, len(owned)+len(reviewing))
	seen := make(map[uuid.UUID]struct{}, len(owned))
	for _, t := range owned {
		seen[t.ID] = struct{}{}
		result = append(result, dto.ManagedTeamResponse{Team: t, Role: string(RoleOwner)})
	}
	for _, t := range reviewing {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		result = append(result, dto.ManagedTeamResponse{Team: t, Role: string(RoleReviewer)})
	}
	return result, nil
}

func (s *teamService) SetDeadlines(ctx context.Context, userID, teamID uuid.UUID, input dto.DeadlinesInput) (*entity.Team, error) {
	team, role, err := s.ResolveRole(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	switch role {
	case RoleOwner:
	case RoleReviewer:
		return nil, fmt.Errorf("only the team owner can set deadlines: %w", apperror.ErrForbidden)
	default:
		return nil, fmt.Errorf("team not found: %w", apperror.ErrNotFound)
	}

	upper, err := parseDeadline("upperclassman_deadline", input.UpperclassmanDeadline)
	if err != nil {
		return nil, err
	}
	lower, err := parseDeadline("lowerclassman_deadline", input.LowerclassmanDeadline)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateDeadlines(ctx, teamID, upper, lower); err != nil {
		return nil, err
	}

	team.UpperclassmanDeadline = upper
	team.LowerclassmanDeadline = lower
	s.log.Info("team deadlines updated", zap.String("team_id", teamID.String()))
	return team, nil
}

var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseDeadline maps a missing or blank value to nil.
func parseDeadline(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be an RFC 3339 or datetime-local timestamp: %w", field, apperror.ErrInvalidInput)
}

// ReindexTeams pushes every team into the search index.
func (s *teamService) ReindexTeams(ctx context.Context) error {
	if s.index == nil {
		return nil
	}

	teams, err := s.repo.FindAll(ctx, repository.TeamFilter{})
	if err != nil {
		metrics.RecordReindex(false)
		return err
	}
	if err := s.index.IndexTeams(ctx, teams); err != nil {
		metrics.RecordReindex(false)
		return err
	}

	metrics.RecordReindex(true)
	return nil
}

package reviewer

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/teamcommonapp/internal/entity"
	profileRepo "anoa.com/teamcommonapp/internal/modules/profile/repository"
	"anoa.com/teamcommonapp/internal/modules/reviewer/dto"
	"anoa.com/teamcommonapp/internal/modules/reviewer/repository"
	team "anoa.com/teamcommonapp/internal/modules/team/service"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/database"
	"anoa.com/teamcommonapp/pkg/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewerService interface {
	ListReviewers(ctx context.Context, userID, teamID uuid.UUID) ([]dto.ReviewerResponse, error)
	AddReviewer(ctx context.Context, userID, teamID uuid.UUID, input dto.AddReviewerInput) (*dto.ReviewerResponse, error)
	RemoveReviewer(ctx context.Context, userID, teamID, reviewerID uuid.UUID) error
}

type reviewerService struct {
	repo        repository.MemberRepository
	profileRepo profileRepo.ProfileRepository
	teamService team.TeamService
	log         *zap.Logger
}

func NewReviewerService(repo repository.MemberRepository, profileRepo profileRepo.ProfileRepository, teamService team.TeamService, log *zap.Logger) ReviewerService {
	return &reviewerService{
		repo:        repo,
		profileRepo: profileRepo,
		teamService: teamService,
		log:         log,
	}
}

func (s *reviewerService) ListReviewers(ctx context.Context, userID, teamID uuid.UUID) ([]dto.ReviewerResponse, error) {
	_, role, err := s.teamService.ResolveRole(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !role.TeamSide() {
		return nil, fmt.Errorf("team not found: %w", apperror.ErrNotFound)
	}

	members, err := s.repo.FindByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ReviewerResponse, 0, len(members))
	for _, m := range members {
		result = append(result, buildResponse(m, m.Profile))
	}
	return result, nil
}

func (s *reviewerService) AddReviewer(ctx context.Context, userID, teamID uuid.UUID, input dto.AddReviewerInput) (*dto.ReviewerResponse, error) {
	if err := s.requireOwner(ctx, userID, teamID); err != nil {
		return nil, err
	}

	input.Identifier = strings.TrimSpace(input.Identifier)
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), apperror.ErrInvalidInput)
	}

	profile, err := s.lookup(ctx, input.Identifier)
	if err != nil {
		return nil, err
	}

	if profile.UserID == userID {
		return nil, fmt.Errorf("You can't add yourself as a reviewer: %w", apperror.ErrInvalidInput)
	}

	exists, err := s.repo.Exists(ctx, teamID, profile.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("This person is already a reviewer: %w", apperror.ErrConflict)
	}

	member := &entity.TeamMember{TeamID: teamID, UserID: profile.UserID, Role: entity.RoleReviewer}
	if err := s.repo.Create(ctx, member); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("This person is already a reviewer: %w", apperror.ErrConflict)
		}
		return nil, err
	}

	s.log.Info("reviewer added",
		zap.String("team_id", teamID.String()),
		zap.String("reviewer_id", profile.UserID.String()),
	)

	resp := buildResponse(member, profile)
	return &resp, nil
}

// RemoveReviewer deletes the membership. Removing someone who is not a
// reviewer succeeds.
func (s *reviewerService) RemoveReviewer(ctx context.Context, userID, teamID, reviewerID uuid.UUID) error {
	if err := s.requireOwner(ctx, userID, teamID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, teamID, reviewerID)
}

func (s *reviewerService) requireOwner(ctx context.Context, userID, teamID uuid.UUID) error {
	_, role, err := s.teamService.ResolveRole(ctx, teamID, userID)
	if err != nil {
		return err
	}
	switch role {
	case team.RoleOwner:
		return nil
	case team.RoleReviewer:
		return fmt.Errorf("only the team owner can manage reviewers: %w", apperror.ErrForbidden)
	default:
		return fmt.Errorf("team not found: %w", apperror.ErrNotFound)
	}
}

// lookup resolves an identifier containing "@" by email, anything else by NetID.
func (s *reviewerService) lookup(ctx context.Context, identifier string) (*entity.Profile, error) {
	var (
		profile *entity.Profile
		err     error
	)
	if strings.Contains(identifier, "@") {
		profile, err = s.profileRepo.FindByEmail(ctx, identifier)
	} else {
		profile, err = s.profileRepo.FindByNetID(ctx, identifier)
	}
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("No account found for %q: %w", identifier, apperror.ErrInvalidInput)
		}
		return nil, err
	}
	return profile, nil
}

func buildResponse(m *entity.TeamMember, p *entity.Profile) dto.ReviewerResponse {
	resp := dto.ReviewerResponse{
		UserID:  m.UserID,
		Role:    m.Role,
		AddedAt: m.CreatedAt,
	}
	if p != nil {
		resp.NetID = p.NetID
		resp.FullName = p.FullName
		resp.Email = p.Email
	}
	return resp
}

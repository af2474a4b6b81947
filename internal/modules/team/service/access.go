package team

import (
	"context"
	"fmt"
	"time"

	"anoa.com/teamcommonapp/internal/entity"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/database"
	"github.com/google/uuid"
)

// Role is a caller's relation to a team.
type Role string

const (
	RoleNone     Role = ""
	RoleOwner    Role = "owner"
	RoleReviewer Role = "reviewer"
)

// TeamSide reports whether the role may read the team's applications and notes.
func (r Role) TeamSide() bool {
	return r == RoleOwner || r == RoleReviewer
}

// SoonWindow is how close a deadline must be to be flagged as soon.
const SoonWindow = 3 * 24 * time.Hour

// DeadlinePassed reports whether deadline is set and now is past it.
func DeadlinePassed(deadline *time.Time, now time.Time) bool {
	return deadline != nil && now.After(*deadline)
}

// DeadlineSoon reports whether an unpassed deadline falls within SoonWindow.
func DeadlineSoon(deadline *time.Time, now time.Time) bool {
	return deadline != nil && !now.After(*deadline) && deadline.Sub(now) <= SoonWindow
}

func (s *teamService) ResolveRole(ctx context.Context, teamID, userID uuid.UUID) (*entity.Team, Role, error) {
	team, err := s.repo.FindByID(ctx, teamID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, RoleNone, fmt.Errorf("team not found: %w", apperror.ErrNotFound)
		}
		return nil, RoleNone, err
	}

	role, err := s.roleFor(ctx, team, userID)
	if err != nil {
		return nil, RoleNone, err
	}
	return team, role, nil
}

func (s *teamService) roleFor(ctx context.Context, team *entity.Team, userID uuid.UUID) (Role, error) {
	if team.OwnerID == userID {
		return RoleOwner, nil
	}
	ok, err := s.memberRepo.Exists(ctx, team.ID, userID)
	if err != nil {
		return RoleNone, err
	}
	if ok {
		return RoleReviewer, nil
	}
	return RoleNone, nil
}

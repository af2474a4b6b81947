package application

import (
	"context"
	"fmt"

	"anoa.com/teamcommonapp/internal/entity"
	team "anoa.com/teamcommonapp/internal/modules/team/service"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/database"
	"github.com/google/uuid"
)

// Access describes how a caller relates to an application.
type Access struct {
	Application *entity.Application
	Role        team.Role
	Applicant   bool
}

func (a *Access) CanRead() bool {
	return a.Applicant || a.Role.TeamSide()
}

// Authorize loads the application and the caller's relation to it. Callers
// with no relation get ErrNotFound.
func (s *applicationService) Authorize(ctx context.Context, userID, applicationID uuid.UUID) (*Access, error) {
	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errApplicationNotFound
		}
		return nil, err
	}

	access := &Access{Application: app, Applicant: app.StudentID == userID}
	if !access.Applicant {
		_, role, err := s.teamService.ResolveRole(ctx, app.TeamID, userID)
		if err != nil {
			return nil, err
		}
		access.Role = role
	}

	if !access.CanRead() {
		return nil, errApplicationNotFound
	}
	return access, nil
}

var errApplicationNotFound = fmt.Errorf("application not found: %w", apperror.ErrNotFound)

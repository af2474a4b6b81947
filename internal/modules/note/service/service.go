package note

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"anoa.com/teamcommonapp/internal/entity"
	application "anoa.com/teamcommonapp/internal/modules/application/service"
	"anoa.com/teamcommonapp/internal/modules/note/dto"
	"anoa.com/teamcommonapp/internal/modules/note/repository"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/database"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxBodyLength = 5000

var errNoteNotFound = fmt.Errorf("Note not found: %w", apperror.ErrNotFound)

type NoteService interface {
	ListNotes(ctx context.Context, userID, applicationID uuid.UUID) ([]*entity.Note, error)
	CreateNote(ctx context.Context, userID, applicationID uuid.UUID, input dto.NoteInput) (*entity.Note, error)
	UpdateNote(ctx context.Context, userID, noteID uuid.UUID, input dto.NoteInput) (*entity.Note, error)
	DeleteNote(ctx context.Context, userID, noteID uuid.UUID) error
}

type noteService struct {
	repo repository.NoteRepository
	apps application.ApplicationService
	log  *zap.Logger
}

func NewNoteService(repo repository.NoteRepository, apps application.ApplicationService, log *zap.Logger) NoteService {
	return &noteService{repo: repo, apps: apps, log: log}
}

func (s *noteService) ListNotes(ctx context.Context, userID, applicationID uuid.UUID) ([]*entity.Note, error) {
	if err := s.requireTeamSide(ctx, userID, applicationID); err != nil {
		return nil, err
	}
	return s.repo.FindByApplication(ctx, applicationID)
}

func (s *noteService) CreateNote(ctx context.Context, userID, applicationID uuid.UUID, input dto.NoteInput) (*entity.Note, error) {
	body, err := cleanBody(input.Body)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamSide(ctx, userID, applicationID); err != nil {
		return nil, err
	}

	n := &entity.Note{
		ApplicationID: applicationID,
		AuthorID:      userID,
		Body:          body,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *noteService) UpdateNote(ctx context.Context, userID, noteID uuid.UUID, input dto.NoteInput) (*entity.Note, error) {
	body, err := cleanBody(input.Body)
	if err != nil {
		return nil, err
	}

	n, err := s.authorOnly(ctx, userID, noteID, "Not authorized to edit this note")
	if err != nil {
		return nil, err
	}

	n.Body = body
	if err := s.repo.UpdateBody(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *noteService) DeleteNote(ctx context.Context, userID, noteID uuid.UUID) error {
	n, err := s.authorOnly(ctx, userID, noteID, "Not authorized to delete this note")
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, n.ID); err != nil {
		return err
	}
	s.log.Info("note deleted", zap.String("note_id", n.ID.String()))
	return nil
}

// authorOnly loads a note the caller may see and rejects anyone but its
// author. Callers outside the team do not learn that the note exists.
func (s *noteService) authorOnly(ctx context.Context, userID, noteID uuid.UUID, forbidden string) (*entity.Note, error) {
	n, err := s.repo.FindByID(ctx, noteID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errNoteNotFound
		}
		return nil, err
	}

	if err := s.requireTeamSide(ctx, userID, n.ApplicationID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errNoteNotFound
		}
		return nil, err
	}
	if n.AuthorID != userID {
		return nil, fmt.Errorf("%s: %w", forbidden, apperror.ErrForbidden)
	}
	return n, nil
}

func (s *noteService) requireTeamSide(ctx context.Context, userID, applicationID uuid.UUID) error {
	access, err := s.apps.Authorize(ctx, userID, applicationID)
	if err != nil {
		return err
	}
	if !access.Role.TeamSide() {
		return fmt.Errorf("application not found: %w", apperror.ErrNotFound)
	}
	return nil
}

func cleanBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("Note cannot be empty: %w", apperror.ErrInvalidInput)
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return "", fmt.Errorf("Note cannot exceed 5000 characters: %w", apperror.ErrInvalidInput)
	}
	return body, nil
}

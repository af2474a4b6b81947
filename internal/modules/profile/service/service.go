package profile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"anoa.com/teamcommonapp/internal/entity"
	"anoa.com/teamcommonapp/internal/modules/profile/dto"
	"anoa.com/teamcommonapp/internal/modules/profile/repository"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/database"
	"anoa.com/teamcommonapp/pkg/storage"
	"anoa.com/teamcommonapp/pkg/validator"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxResumeBytes = 5 << 20

type ProfileService interface {
	CreateProfile(ctx context.Context, userID uuid.UUID, input dto.ProfileInput) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input dto.ProfileInput) (*entity.Profile, error)
	GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	UploadResume(ctx context.Context, userID uuid.UUID, file dto.ResumeFile) (*entity.Profile, error)
	DeleteResume(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
}

type profileService struct {
	repo        repository.ProfileRepository
	fileStorage storage.FileStorage
	log         *zap.Logger
}

func NewProfileService(repo repository.ProfileRepository, fileStorage storage.FileStorage, log *zap.Logger) ProfileService {
	return &profileService{
		repo:        repo,
		fileStorage: fileStorage,
		log:         log,
	}
}

func (s *profileService) CreateProfile(ctx context.Context, userID uuid.UUID, input dto.ProfileInput) (*entity.Profile, error) {
	normalize(&input)
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), apperror.ErrInvalidInput)
	}

	if _, err := s.repo.FindByUserID(ctx, userID); err == nil {
		return nil, fmt.Errorf("profile already exists: %w", apperror.ErrConflict)
	} else if !database.IsNotFound(err) {
		return nil, err
	}

	if err := s.ensureUnique(ctx, userID, input); err != nil {
		return nil, err
	}

	profile := &entity.Profile{UserID: userID}
	apply(profile, input)

	if err := s.repo.Create(ctx, profile); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("netid or email is already in use: %w", apperror.ErrConflict)
		}
		return nil, err
	}

	return profile, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input dto.ProfileInput) (*entity.Profile, error) {
	normalize(&input)
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), apperror.ErrInvalidInput)
	}

	profile, err := s.GetCurrentProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, userID, input); err != nil {
		return nil, err
	}

	if input.ResumeURL == nil {
		input.ResumeURL = profile.ResumeURL
	}
	apply(profile, input)
	if err := s.repo.Update(ctx, profile); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("netid or email is already in use: %w", apperror.ErrConflict)
		}
		return nil, err
	}

	return profile, nil
}

func (s *profileService) GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("profile not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	return profile, nil
}

func (s *profileService) UploadResume(ctx context.Context, userID uuid.UUID, file dto.ResumeFile) (*entity.Profile, error) {
	profile, err := s.GetCurrentProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.fileStorage == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "resume storage is not configured", nil)
	}

	if file.Size > MaxResumeBytes {
		return nil, fmt.Errorf("file size must be under 5 MB: %w", apperror.ErrInvalidInput)
	}

	data, err := io.ReadAll(io.LimitReader(file.Reader, MaxResumeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read resume: %w", err)
	}
	if len(data) > MaxResumeBytes {
		return nil, fmt.Errorf("file size must be under 5 MB: %w", apperror.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty: %w", apperror.ErrInvalidInput)
	}
	if !mimetype.Detect(data).Is("application/pdf") {
		return nil, fmt.Errorf("only PDF files are accepted: %w", apperror.ErrInvalidInput)
	}

	url, err := s.fileStorage.UploadFile(ctx, bytes.NewReader(data), ResumeKey(userID))
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateResumeURL(ctx, userID, &url); err != nil {
		return nil, err
	}
	profile.ResumeURL = &url

	s.log.Info("resume uploaded", zap.String("user_id", userID.String()), zap.Int("bytes", len(data)))
	return profile, nil
}

func (s *profileService) DeleteResume(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	profile, err := s.GetCurrentProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.ResumeURL == nil || *profile.ResumeURL == "" {
		return profile, nil
	}

	if s.fileStorage != nil {
		if err := s.fileStorage.DeleteFile(ctx, *profile.ResumeURL); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateResumeURL(ctx, userID, nil); err != nil {
		return nil, err
	}
	profile.ResumeURL = nil
	return profile, nil
}

// ResumeKey is the storage key of a student's resume. Re-uploads overwrite it.
func ResumeKey(userID uuid.UUID) string {
	return fmt.Sprintf("resumes/%s/resume.pdf", userID)
}

func (s *profileService) ensureUnique(ctx context.Context, userID uuid.UUID, input dto.ProfileInput) error {
	if other, err := s.repo.FindByNetID(ctx, input.NetID); err == nil && other.UserID != userID {
		return fmt.Errorf("NetID is already in use: %w", apperror.ErrConflict)
	} else if err != nil && !database.IsNotFound(err) {
		return err
	}

	if other, err := s.repo.FindByEmail(ctx, input.Email); err == nil && other.UserID != userID {
		return fmt.Errorf("email is already in use: %w", apperror.ErrConflict)
	} else if err != nil && !database.IsNotFound(err) {
		return err
	}
	return nil
}

func normalize(input *dto.ProfileInput) {
	input.NetID = strings.TrimSpace(input.NetID)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)
	input.Major = emptyToNil(input.Major)
	input.ResumeURL = emptyToNil(input.ResumeURL)
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func apply(p *entity.Profile, input dto.ProfileInput) {
	p.NetID = input.NetID
	p.Email = input.Email
	p.FullName = input.FullName
	p.Major = input.Major
	p.GradYear = input.GradYear
	p.GPA = input.GPA
	p.ResumeURL = input.ResumeURL
	p.ClassStanding = input.ClassStanding
}

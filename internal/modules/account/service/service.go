package account

import (
	"context"
	"fmt"
	"time"

	"anoa.com/teamcommonapp/internal/entity"
	"anoa.com/teamcommonapp/internal/modules/account/dto"
	"anoa.com/teamcommonapp/internal/modules/account/repository"
	profileRepo "anoa.com/teamcommonapp/internal/modules/profile/repository"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/database"
	"anoa.com/teamcommonapp/pkg/validator"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Signup(ctx context.Context, input dto.SignupInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
}

type authService struct {
	repo        repository.AccountRepository
	profileRepo profileRepo.ProfileRepository
	secret      string
	tokenTTL    time.Duration
	log         *zap.Logger
}

func NewAuthService(repo repository.AccountRepository, profileRepo profileRepo.ProfileRepository, secret string, tokenTTL time.Duration, log *zap.Logger) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &authService{
		repo:        repo,
		profileRepo: profileRepo,
		secret:      secret,
		tokenTTL:    tokenTTL,
		log:         log,
	}
}

func (s *authService) Signup(ctx context.Context, input dto.SignupInput) (*dto.AuthResponse, error) {
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), apperror.ErrInvalidInput)
	}

	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("an account with this email already exists: %w", apperror.ErrConflict)
	} else if !database.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &entity.Account{Email: input.Email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, account); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("an account with this email already exists: %w", apperror.ErrConflict)
		}
		return nil, err
	}

	s.log.Info("account created", zap.String("account_id", account.ID.String()))
	return s.buildAuthResponse(ctx, account)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	if err := validator.Struct(input); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), apperror.ErrInvalidInput)
	}

	account, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
	}

	return s.buildAuthResponse(ctx, account)
}

func (s *authService) buildAuthResponse(ctx context.Context, account *entity.Account) (*dto.AuthResponse, error) {
	token, expiresAt, err := GenerateToken(account.ID.String(), s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	hasProfile := true
	if _, err := s.profileRepo.FindByUserID(ctx, account.ID); err != nil {
		if !database.IsNotFound(err) {
			return nil, err
		}
		hasProfile = false
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		Account: dto.AccountResponse{
			ID:         account.ID,
			Email:      account.Email,
			HasProfile: hasProfile,
		},
	}, nil
}

// GenerateToken signs an HS256 token whose subject is the account id.
func GenerateToken(subject, secret string, ttl time.Duration) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}

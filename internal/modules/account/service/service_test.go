package account

import (
	"context"
	"testing"
	"time"

	"anoa.com/teamcommonapp/internal/entity"
	"anoa.com/teamcommonapp/internal/modules/account/dto"
	"anoa.com/teamcommonapp/internal/modules/account/repository"
	profileRepo "anoa.com/teamcommonapp/internal/modules/profile/repository"
	"anoa.com/teamcommonapp/internal/testutil"
	"anoa.com/teamcommonapp/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

func newService(t *testing.T) (AuthService, *testutil.Fixtures) {
	db := testutil.NewDB(t)
	svc := NewAuthService(repository.NewAccountRepository(db), profileRepo.NewProfileRepository(db), secret, time.Hour, zap.NewNop())
	return svc, testutil.NewFixtures(t, db)
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	resp, err := svc.Signup(ctx, dto.SignupInput{Email: "Owner@Example.org", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.org", resp.Account.Email)
	assert.False(t, resp.Account.HasProfile)

	login, err := svc.Login(ctx, dto.LoginInput{Email: "owner@example.org", Password: "correct-horse"})
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(login.AccessToken, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, resp.Account.ID.String(), claims.Subject)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, dto.SignupInput{Email: "a@example.org", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, dto.SignupInput{Email: "a@example.org", Password: "password2"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestSignup_ShortPassword(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Signup(context.Background(), dto.SignupInput{Email: "a@example.org", Password: "short"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, dto.SignupInput{Email: "a@example.org", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginInput{Email: "a@example.org", Password: "password2"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Login(ctx, dto.LoginInput{Email: "nobody@example.org", Password: "password2"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestLogin_ReportsProfile(t *testing.T) {
	svc, fx := newService(t)
	student := fx.Student("upperclassman")

	// fixtures store a placeholder hash, so only the profile lookup is exercised here
	resp, err := svc.(*authService).buildAuthResponse(context.Background(), mustAccount(t, svc, student.Email))
	require.NoError(t, err)
	assert.True(t, resp.Account.HasProfile)
}

func mustAccount(t *testing.T, svc AuthService, email string) *entity.Account {
	t.Helper()
	acc, err := svc.(*authService).repo.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return acc
}

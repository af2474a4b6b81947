package reviewer

import (
	"context"
	"sync"
	"testing"

	"anoa.com/teamcommonapp/internal/entity"
	appRepo "anoa.com/teamcommonapp/internal/modules/application/repository"
	profileRepo "anoa.com/teamcommonapp/internal/modules/profile/repository"
	"anoa.com/teamcommonapp/internal/modules/reviewer/dto"
	"anoa.com/teamcommonapp/internal/modules/reviewer/repository"
	teamRepo "anoa.com/teamcommonapp/internal/modules/team/repository"
	team "anoa.com/teamcommonapp/internal/modules/team/service"
	"anoa.com/teamcommonapp/internal/testutil"
	"anoa.com/teamcommonapp/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) (ReviewerService, repository.MemberRepository, *testutil.Fixtures) {
	db := testutil.NewDB(t)
	members := repository.NewMemberRepository(db)
	profiles := profileRepo.NewProfileRepository(db)
	teams := team.NewTeamService(teamRepo.NewTeamRepository(db), members, profiles, appRepo.NewApplicationRepository(db), nil, zap.NewNop())
	return NewReviewerService(members, profiles, teams, zap.NewNop()), members, testutil.NewFixtures(t, db)
}

func TestAddReviewer_ByNetIDAndEmail(t *testing.T) {
	svc, members, fx := newService(t)
	tm := fx.Team()
	a := fx.Student(entity.StandingUpperclassman)
	b := fx.Student(entity.StandingLowerclassman)
	ctx := context.Background()

	got, err := svc.AddReviewer(ctx, tm.OwnerID, tm.ID, dto.AddReviewerInput{Identifier: a.NetID})
	require.NoError(t, err)
	assert.Equal(t, a.UserID, got.UserID)
	assert.Equal(t, entity.RoleReviewer, got.Role)

	_, err = svc.AddReviewer(ctx, tm.OwnerID, tm.ID, dto.AddReviewerInput{Identifier: b.Email})
	require.NoError(t, err)

	list, err := svc.ListReviewers(ctx, tm.OwnerID, tm.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	ok, err := members.Exists(ctx, tm.ID, b.UserID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAddReviewer_Rejections(t *testing.T) {
	svc, _, fx := newService(t)
	tm := fx.Team()
	a := fx.Student(entity.StandingUpperclassman)
	ctx := context.Background()

	_, err := svc.AddReviewer(ctx, tm.OwnerID, tm.ID, dto.AddReviewerInput{Identifier: "zz999"})
	require.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, `No account found for "zz999"`, apperror.Message(err))

	_, err = svc.AddReviewer(ctx, tm.OwnerID, tm.ID, dto.AddReviewerInput{Identifier: a.NetID})
	require.NoError(t, err)

	_, err = svc.AddReviewer(ctx, tm.OwnerID, tm.ID, dto.AddReviewerInput{Identifier: a.NetID})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "This person is already a reviewer", apperror.Message(err))

	// reviewers cannot manage reviewers
	b := fx.Student(entity.StandingUpperclassman)
	_, err = svc.AddReviewer(ctx, a.UserID, tm.ID, dto.AddReviewerInput{Identifier: b.NetID})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.AddReviewer(ctx, b.UserID, tm.ID, dto.AddReviewerInput{Identifier: a.NetID})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAddReviewer_Self(t *testing.T) {
	svc, _, fx := newService(t)
	student := fx.Student(entity.StandingUpperclassman)

	// a student who owns a team
	tm := fx.Team()
	tm.OwnerID = student.UserID
	require.NoError(t, fx.DB().Save(tm).Error)

	_, err := svc.AddReviewer(context.Background(), student.UserID, tm.ID, dto.AddReviewerInput{Identifier: student.NetID})
	require.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, "You can't add yourself as a reviewer", apperror.Message(err))
}

func TestAddReviewer_ConcurrentDuplicates(t *testing.T) {
	svc, members, fx := newService(t)
	tm := fx.Team()
	a := fx.Student(entity.StandingUpperclassman)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddReviewer(context.Background(), tm.OwnerID, tm.ID, dto.AddReviewerInput{Identifier: a.NetID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperror.MapErrorToStatus(err) == 409:
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	list, err := members.FindByTeam(context.Background(), tm.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRemoveReviewer_Idempotent(t *testing.T) {
	svc, members, fx := newService(t)
	tm := fx.Team()
	a := fx.Student(entity.StandingUpperclassman)
	fx.Reviewer(tm, a)
	ctx := context.Background()

	require.NoError(t, svc.RemoveReviewer(ctx, tm.OwnerID, tm.ID, a.UserID))
	require.NoError(t, svc.RemoveReviewer(ctx, tm.OwnerID, tm.ID, a.UserID))
	require.NoError(t, svc.RemoveReviewer(ctx, tm.OwnerID, tm.ID, uuid.New()))

	ok, err := members.Exists(ctx, tm.ID, a.UserID)
	require.NoError(t, err)
	assert.False(t, ok)

	err = svc.RemoveReviewer(ctx, a.UserID, tm.ID, a.UserID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

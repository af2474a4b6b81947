package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"anoa.com/teamcommonapp/internal/entity"
	accountRepo "anoa.com/teamcommonapp/internal/modules/account/repository"
	"anoa.com/teamcommonapp/internal/modules/application/dto"
	"anoa.com/teamcommonapp/internal/modules/application/repository"
	messageRepo "anoa.com/teamcommonapp/internal/modules/message/repository"
	noteRepo "anoa.com/teamcommonapp/internal/modules/note/repository"
	notification "anoa.com/teamcommonapp/internal/modules/notification/service"
	profileRepo "anoa.com/teamcommonapp/internal/modules/profile/repository"
	memberRepo "anoa.com/teamcommonapp/internal/modules/reviewer/repository"
	teamRepo "anoa.com/teamcommonapp/internal/modules/team/repository"
	team "anoa.com/teamcommonapp/internal/modules/team/service"
	"anoa.com/teamcommonapp/internal/testutil"
	"anoa.com/teamcommonapp/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Notify(e notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) Events() []notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Event(nil), n.events...)
}

func newService(t *testing.T, notifier notification.Notifier) (*applicationService, *testutil.Fixtures, *gorm.DB) {
	db := testutil.NewDB(t)
	apps := repository.NewApplicationRepository(db)
	profiles := profileRepo.NewProfileRepository(db)
	teams := team.NewTeamService(teamRepo.NewTeamRepository(db), memberRepo.NewMemberRepository(db), profiles, apps, nil, zap.NewNop())
	svc := NewApplicationService(apps, profiles, messageRepo.NewMessageRepository(db), noteRepo.NewNoteRepository(db), teams, notifier, zap.NewNop())
	return svc.(*applicationService), testutil.NewFixtures(t, db), db
}

var requiredQuestions = []entity.TeamQuestion{
	{ID: "q1", Label: "Why us?", Type: entity.QuestionTextarea, Required: true},
	{ID: "q2", Label: "Anything else?", Type: entity.QuestionText},
}

func TestSubmit_RequiredQuestions(t *testing.T) {
	svc, fx, _ := newService(t, nil)
	tm := fx.Team(requiredQuestions...)
	student := fx.Student(entity.StandingUpperclassman)
	ctx := context.Background()

	app, err := svc.CreateApplication(ctx, student.UserID, tm.ID, dto.AnswersInput{Answers: map[string]string{"q1": "  ", "q2": "x"}})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, app.Status)

	_, err = svc.SubmitApplication(ctx, student.UserID, app.ID)
	require.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, `"Why us?" is required`, apperror.Message(err))

	got, err := svc.GetApplication(ctx, student.UserID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, got.Status)

	_, err = svc.UpdateAnswers(ctx, student.UserID, app.ID, dto.AnswersInput{Answers: map[string]string{"q1": "hi"}})
	require.NoError(t, err)

	submitted, err := svc.SubmitApplication(ctx, student.UserID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, submitted.Status)

	_, err = svc.SubmitApplication(ctx, student.UserID, app.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "Application not found or already submitted", apperror.Message(err))
}

func TestSubmit_IgnoresRemovedQuestions(t *testing.T) {
	svc, fx, _ := newService(t, nil)
	tm := fx.Team(requiredQuestions...)
	student := fx.Student(entity.StandingUpperclassman)
	app := fx.Application(tm, student, entity.StatusDraft, map[string]string{"q1": "yes", "old": "stale"})

	got, err := svc.SubmitApplication(context.Background(), student.UserID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, got.Status)
}

// editingRepo rewrites a draft's answers right before the submit write lands,
// the way a concurrent UpdateAnswers request would.
type editingRepo struct {
	repository.ApplicationRepository
	answers map[string]string
}

func (r *editingRepo) SubmitDraft(ctx context.Context, id uuid.UUID, answers entity.Answers) (bool, error) {
	if _, err := r.ApplicationRepository.UpdateDraftAnswers(ctx, id, entity.NewAnswers(r.answers)); err != nil {
		return false, err
	}
	return r.ApplicationRepository.SubmitDraft(ctx, id, answers)
}

func TestSubmit_ConcurrentEditKeepsDraft(t *testing.T) {
	svc, fx, _ := newService(t, nil)
	tm := fx.Team(requiredQuestions...)
	student := fx.Student(entity.StandingUpperclassman)
	app := fx.Application(tm, student, entity.StatusDraft, map[string]string{"q1": "Because"})
	ctx := context.Background()

	svc.repo = &editingRepo{ApplicationRepository: svc.repo, answers: map[string]string{"q1": ""}}

	_, err := svc.SubmitApplication(ctx, student.UserID, app.ID)
	require.ErrorIs(t, err, apperror.ErrConflict)

	got, err := svc.GetApplication(ctx, student.UserID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, got.Status)
	assert.Equal(t, "", got.AnswerMap()["q1"])
}

func TestCreateUpdateFetch_RoundTrip(t *testing.T) {
	svc, fx, _ := newService(t, nil)
	tm := fx.Team(requiredQuestions...)
	student := fx.Student(entity.StandingLowerclassman)
	ctx := context.Background()

	app, err := svc.CreateApplication(ctx, student.UserID, tm.ID, dto.AnswersInput{Answers: map[string]string{"q2": "draft"}})
	require.NoError(t, err)

	want := map[string]string{"q1": "Because robots", "q2": ""}
	_, err = svc.UpdateAnswers(ctx, student.UserID, app.ID, dto.AnswersInput{Answers: want})
	require.NoError(t, err)

	got, err := svc.GetApplication(ctx, student.UserID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got.AnswerMap())
	assert.Equal(t, "applicant", got.Role)
}

func TestCreate_InvalidAnswers(t *testing.T) {
	questions := append([]entity.TeamQuestion{
		{ID: "q3", Label: "Subteam", Type: entity.QuestionSelect, Options: []string{"Mechanical", "Software"}},
	}, requiredQuestions...)
	svc, fx, _ := newService(t, nil)
	tm := fx.Team(questions...)
	student := fx.Student(entity.StandingUpperclassman)
	ctx := context.Background()

	_, err := svc.CreateApplication(ctx, student.UserID, tm.ID, dto.AnswersInput{Answers: map[string]string{"nope": "x"}})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.CreateApplication(ctx, student.UserID, tm.ID, dto.AnswersInput{Answers: map[string]string{"q3": "Marketing"}})
	require.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, `"Subteam" must be one of the listed options`, apperror.Message(err))

	_, err = svc.CreateApplication(ctx, student.UserID, tm.ID, dto.AnswersInput{Answers: map[string]string{"q3": "Software"}})
	assert.NoError(t, err)
}

func TestCreate_RequiresProfile(t *testing.T) {
	svc, fx, _ := newService(t, nil)
	tm := fx.Team()
	other := fx.Team()

	_, err := svc.CreateApplication(context.Background(), other.OwnerID, tm.ID, dto.AnswersInput{})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestUpdateAnswers_AfterSubmitFails(t *testing.T) {
	svc, fx, _ := newService(t, nil)
	tm := fx.Team(requiredQuestions...)
	student := fx.Student(entity.StandingUpperclassman)
	app := fx.Application(tm, student, entity.StatusSubmitted, map[string]string{"q1": "a"})
	ctx := context.Background()
	input := dto.AnswersInput{Answers: map[string]string{"q1": "b"}}

	_, err := svc.UpdateAnswers(ctx, student.UserID, app.ID, input)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.UpdateAnswers(ctx, tm.OwnerID, app.ID, input)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	got, err := svc.GetApplication(ctx, student.UserID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.AnswerMap()["q1"])
}

func TestDeadlines_ByClassStanding(t *testing.T) {
	svc, fx, _ := newService(t, nil)
	tm := fx.Team()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(48 * time.Hour)
	fx.SetDeadlines(tm, &past, &future)
	ctx := context.Background()

	upper := fx.Student(entity.StandingUpperclassman)
	_, err := svc.CreateApplication(ctx, upper.UserID, tm.ID, dto.AnswersInput{})
	require.ErrorIs(t, err, apperror.ErrDeadlinePassed)
	assert.Equal(t, "The application deadline has passed", apperror.Message(err))

	lower := fx.Student(entity.StandingLowerclassman)
	app, err := svc.CreateApplication(ctx, lower.UserID, tm.ID, dto.AnswersInput{})
	require.NoError(t, err)

	draft := fx.Application(tm, fx.Student(entity.StandingUpperclassman), entity.StatusDraft, nil)
	_, err = svc.SubmitApplication(ctx, draft.StudentID, draft.ID)
	assert.ErrorIs(t, err, apperror.ErrDeadlinePassed)

	svc.now = func() time.Time { return future.Add(time.Minute) }
	_, err = svc.SubmitApplication(ctx, lower.UserID, app.ID)
	assert.ErrorIs(t, err, apperror.ErrDeadlinePassed)
}

func TestCreate_DuplicateUnderConcurrency(t *testing.T) {
	svc, fx, db := newService(t, nil)
	tm := fx.Team()
	student := fx.Student(entity.StandingUpperclassman)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateApplication(ctx, student.UserID, tm.ID, dto.AnswersInput{})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperror.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)

	var count int64
	require.NoError(t, db.Model(&entity.Application{}).Where("student_id = ? AND team_id = ?", student.UserID, tm.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSetStatus_Access(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, fx, _ := newService(t, notifier)
	tm := fx.Team()
	student := fx.Student(entity.StandingUpperclassman)
	reviewer := fx.Student(entity.StandingUpperclassman)
	stranger := fx.Student(entity.StandingUpperclassman)
	fx.Reviewer(tm, reviewer)
	app := fx.Application(tm, student, entity.StatusSubmitted, nil)
	ctx := context.Background()

	_, err := svc.SetStatus(ctx, reviewer.UserID, app.ID, dto.StatusInput{Status: entity.StatusAccepted})
	require.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, "Only the team account can update application status", apperror.Message(err))

	_, err = svc.SetStatus(ctx, stranger.UserID, app.ID, dto.StatusInput{Status: entity.StatusAccepted})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.SetStatus(ctx, student.UserID, app.ID, dto.StatusInput{Status: entity.StatusAccepted})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.SetStatus(ctx, tm.OwnerID, app.ID, dto.StatusInput{Status: entity.StatusDraft})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	got, err := svc.SetStatus(ctx, tm.OwnerID, app.ID, dto.StatusInput{Status: entity.StatusInterviewing})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInterviewing, got.Status)

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notification.KindStatusChange, events[0].Kind)
	assert.Equal(t, app.ID, events[0].ApplicationID)
	assert.Equal(t, entity.StatusInterviewing, events[0].Status)
}

func TestSetStatus_TerminalStatesStayPermissive(t *testing.T) {
	svc, fx, _ := newService(t, nil)
	tm := fx.Team()
	app := fx.Application(tm, fx.Student(entity.StandingUpperclassman), entity.StatusAccepted, nil)

	got, err := svc.SetStatus(context.Background(), tm.OwnerID, app.ID, dto.StatusInput{Status: entity.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, got.Status)
}

func TestSetStatus_DraftCannotBeDecided(t *testing.T) {
	svc, fx, _ := newService(t, nil)
	tm := fx.Team()
	app := fx.Application(tm, fx.Student(entity.StandingUpperclassman), entity.StatusDraft, nil)

	_, err := svc.SetStatus(context.Background(), tm.OwnerID, app.ID, dto.StatusInput{Status: entity.StatusAccepted})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

type failingMailer struct{}

func (failingMailer) Send(context.Context, []string, string, string) error {
	return errors.New("smtp unavailable")
}

func TestSetStatus_SucceedsWhenMailerFails(t *testing.T) {
	db := testutil.NewDB(t)
	apps := repository.NewApplicationRepository(db)
	members := memberRepo.NewMemberRepository(db)
	renderer, err := notification.NewRenderer("http://localhost:3000")
	require.NoError(t, err)
	dispatcher := notification.NewDispatcher(notification.Config{QueueSize: 4, RatePerSecond: 100},
		apps, accountRepo.NewAccountRepository(db), members, renderer, failingMailer{}, zap.NewNop())
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	profiles := profileRepo.NewProfileRepository(db)
	teams := team.NewTeamService(teamRepo.NewTeamRepository(db), members, profiles, apps, nil, zap.NewNop())
	svc := NewApplicationService(apps, profiles, messageRepo.NewMessageRepository(db), noteRepo.NewNoteRepository(db), teams, dispatcher, zap.NewNop())

	fx := testutil.NewFixtures(t, db)
	tm := fx.Team()
	app := fx.Application(tm, fx.Student(entity.StandingUpperclassman), entity.StatusSubmitted, nil)

	got, err := svc.SetStatus(context.Background(), tm.OwnerID, app.ID, dto.StatusInput{Status: entity.StatusAccepted})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, got.Status)
}

func TestGetApplication_Access(t *testing.T) {
	svc, fx, _ := newService(t, nil)
	tm := fx.Team()
	student := fx.Student(entity.StandingUpperclassman)
	reviewer := fx.Student(entity.StandingUpperclassman)
	fx.Reviewer(tm, reviewer)
	app := fx.Application(tm, student, entity.StatusSubmitted, nil)
	ctx := context.Background()

	got, err := svc.GetApplication(ctx, reviewer.UserID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, string(team.RoleReviewer), got.Role)
	require.NotNil(t, got.Student)
	assert.Equal(t, student.NetID, got.Student.NetID)

	got, err = svc.GetApplication(ctx, tm.OwnerID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, string(team.RoleOwner), got.Role)

	_, err = svc.GetApplication(ctx, fx.Student(entity.StandingLowerclassman).UserID, app.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListTeamApplications(t *testing.T) {
	svc, fx, db := newService(t, nil)
	tm := fx.Team()
	reviewer := fx.Student(entity.StandingUpperclassman)
	fx.Reviewer(tm, reviewer)
	a := fx.Application(tm, fx.Student(entity.StandingUpperclassman), entity.StatusSubmitted, nil)
	fx.Application(tm, fx.Student(entity.StandingLowerclassman), entity.StatusAccepted, nil)
	fx.Application(tm, fx.Student(entity.StandingLowerclassman), entity.StatusDraft, nil)
	ctx := context.Background()

	require.NoError(t, db.Create(&entity.Message{ApplicationID: a.ID, SenderID: a.StudentID, SenderType: entity.SenderApplicant, Body: "hi"}).Error)
	require.NoError(t, db.Create(&entity.Message{ApplicationID: a.ID, SenderID: tm.OwnerID, SenderType: entity.SenderTeam, Body: "hello"}).Error)
	require.NoError(t, db.Create(&entity.Note{ApplicationID: a.ID, AuthorID: reviewer.UserID, Body: "strong"}).Error)

	res, err := svc.ListTeamApplications(ctx, reviewer.UserID, tm.ID, dto.ApplicationFilter{})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, map[string]int64{entity.StatusSubmitted: 1, entity.StatusAccepted: 1}, res.StatusCounts)

	var row dto.TeamApplicationRow
	for _, r := range res.Data {
		if r.ID == a.ID {
			row = r
		}
	}
	assert.EqualValues(t, 2, row.MessageCount)
	assert.EqualValues(t, 1, row.NoteCount)
	assert.NotEmpty(t, row.ApplicantName)

	res, err = svc.ListTeamApplications(ctx, tm.OwnerID, tm.ID, dto.ApplicationFilter{Status: entity.StatusAccepted})
	require.NoError(t, err)
	assert.Len(t, res.Data, 1)

	_, err = svc.ListTeamApplications(ctx, tm.OwnerID, tm.ID, dto.ApplicationFilter{Status: entity.StatusDraft})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.ListTeamApplications(ctx, a.StudentID, tm.ID, dto.ApplicationFilter{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListMyApplications(t *testing.T) {
	svc, fx, _ := newService(t, nil)
	student := fx.Student(entity.StandingUpperclassman)
	t1 := fx.Team()
	t2 := fx.Team()
	fx.Application(t1, student, entity.StatusDraft, nil)
	fx.Application(t2, student, entity.StatusSubmitted, nil)

	apps, err := svc.ListMyApplications(context.Background(), student.UserID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	names := []string{apps[0].TeamName, apps[1].TeamName}
	assert.ElementsMatch(t, []string{t1.Name, t2.Name}, names)
}

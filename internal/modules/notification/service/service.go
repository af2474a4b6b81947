package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"anoa.com/teamcommonapp/internal/entity"
	accountRepo "anoa.com/teamcommonapp/internal/modules/account/repository"
	appRepo "anoa.com/teamcommonapp/internal/modules/application/repository"
	memberRepo "anoa.com/teamcommonapp/internal/modules/reviewer/repository"
	"anoa.com/teamcommonapp/pkg/mailer"
	"anoa.com/teamcommonapp/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Kind identifies which email an event produces.
type Kind string

const (
	KindStatusChange       Kind = "status_change"
	KindMessageToApplicant Kind = "message_to_applicant"
	KindMessageToTeam      Kind = "message_to_team"
)

// Event is a request to notify someone about an application.
type Event struct {
	Kind          Kind
	ApplicationID uuid.UUID
	Status        string
	Body          string
}

// Notifier accepts events without waiting for delivery.
type Notifier interface {
	Notify(event Event)
}

// NoopNotifier discards every event.
type NoopNotifier struct{}

func (NoopNotifier) Notify(Event) {}

var errNoRecipients = errors.New("no recipients")

type Config struct {
	QueueSize     int
	RatePerSecond float64
}

// Dispatcher queues events in memory and delivers them from a single worker.
// A full queue drops the event.
type Dispatcher struct {
	appRepo     appRepo.ApplicationRepository
	accountRepo accountRepo.AccountRepository
	memberRepo  memberRepo.MemberRepository
	renderer    *Renderer
	mailer      mailer.Mailer
	limiter     *rate.Limiter
	log         *zap.Logger

	queue  chan Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(cfg Config, appRepo appRepo.ApplicationRepository, accountRepo accountRepo.AccountRepository, memberRepo memberRepo.MemberRepository, renderer *Renderer, m mailer.Mailer, log *zap.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	return &Dispatcher{
		appRepo:     appRepo,
		accountRepo: accountRepo,
		memberRepo:  memberRepo,
		renderer:    renderer,
		mailer:      m,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		log:         log,
		queue:       make(chan Event, cfg.QueueSize),
	}
}

// Notify enqueues event and returns immediately.
func (d *Dispatcher) Notify(event Event) {
	select {
	case d.queue <- event:
	default:
		metrics.RecordNotification(string(event.Kind), "dropped")
		d.log.Warn("notification queue full, dropping event",
			zap.String("kind", string(event.Kind)),
			zap.String("application_id", event.ApplicationID.String()),
		)
	}
}

// Start launches the delivery worker. It stops when ctx ends or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	d.wg.Add(1)
	go d.run(ctx)
	d.log.Info("notification dispatcher started", zap.Int("queue_size", cap(d.queue)))
}

func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	if pending := len(d.queue); pending > 0 {
		d.log.Warn("notification dispatcher stopped with pending events", zap.Int("pending", pending))
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.queue:
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event Event) {
	err := d.Dispatch(ctx, event)
	switch {
	case err == nil:
		metrics.RecordNotification(string(event.Kind), "sent")
	case errors.Is(err, errNoRecipients):
		metrics.RecordNotification(string(event.Kind), "skipped")
		d.log.Info("notification skipped, no recipients",
			zap.String("kind", string(event.Kind)),
			zap.String("application_id", event.ApplicationID.String()),
		)
	default:
		metrics.RecordNotification(string(event.Kind), "failed")
		d.log.Warn("failed to send notification",
			zap.String("kind", string(event.Kind)),
			zap.String("application_id", event.ApplicationID.String()),
			zap.Error(err),
		)
	}
}

// Dispatch resolves recipients, renders and sends a single event.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	app, err := d.appRepo.FindByID(ctx, event.ApplicationID)
	if err != nil {
		return fmt.Errorf("load application: %w", err)
	}
	if app.Team == nil {
		return fmt.Errorf("application %s has no team", app.ID)
	}

	to, err := d.recipients(ctx, event.Kind, app)
	if err != nil {
		return err
	}
	if len(to) == 0 {
		return errNoRecipients
	}

	email, err := d.render(event, app)
	if err != nil {
		return err
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.mailer.Send(ctx, to, email.Subject, email.HTML)
}

func (d *Dispatcher) render(event Event, app *entity.Application) (*Email, error) {
	var name string
	if app.Student != nil {
		name = app.Student.FullName
	}

	switch event.Kind {
	case KindStatusChange:
		return d.renderer.StatusChange(orDefault(name, "Applicant"), app.Team.Name, event.Status)
	case KindMessageToApplicant:
		return d.renderer.MessageToApplicant(orDefault(name, "Applicant"), app.Team.Name, event.Body)
	case KindMessageToTeam:
		return d.renderer.MessageToTeam(orDefault(name, "An applicant"), app.Team.Name, event.Body, app.TeamID.String(), app.ID.String())
	default:
		return nil, fmt.Errorf("unknown notification kind %q", event.Kind)
	}
}

// recipients returns the applicant's email for team-to-applicant events, and
// the owner account plus every reviewer for applicant-to-team events.
func (d *Dispatcher) recipients(ctx context.Context, kind Kind, app *entity.Application) ([]string, error) {
	if kind != KindMessageToTeam {
		if app.Student == nil || app.Student.Email == "" {
			return nil, nil
		}
		return []string{app.Student.Email}, nil
	}

	var emails []string
	owner, err := d.accountRepo.FindByID(ctx, app.Team.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("load team owner: %w", err)
	}
	emails = append(emails, owner.Email)

	members, err := d.memberRepo.FindByTeam(ctx, app.TeamID)
	if err != nil {
		return nil, fmt.Errorf("load reviewers: %w", err)
	}
	for _, m := range members {
		if m.Profile != nil {
			emails = append(emails, m.Profile.Email)
		}
	}
	return dedupe(emails), nil
}

func dedupe(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		key := strings.ToLower(strings.TrimSpace(e))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(e))
	}
	return out
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

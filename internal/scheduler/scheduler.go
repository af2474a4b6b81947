package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of periodic background work.
type Job interface {
	Name() string
	// Schedule is a cron spec. Jobs with an empty schedule only run on demand.
	Schedule() string
	Execute(ctx context.Context) error
}

// Scheduler runs registered jobs on their cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	log     *zap.Logger
	timeout time.Duration
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		log:     log,
		timeout: 5 * time.Minute,
	}
}

// Register adds a job and schedules it when it carries a schedule.
func (s *Scheduler) Register(job Job) error {
	s.jobs = append(s.jobs, job)

	schedule := job.Schedule()
	if schedule == "" {
		s.log.Info("job registered on demand", zap.String("job", job.Name()))
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.run(job) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", job.Name(), err)
	}
	s.log.Info("job scheduled", zap.String("job", job.Name()), zap.String("schedule", schedule))
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Execute(ctx); err != nil {
		s.log.Error("job failed", zap.String("job", job.Name()), zap.Error(err))
		return
	}
	s.log.Info("job completed", zap.String("job", job.Name()), zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunByName executes a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return job.Execute(ctx)
		}
	}
	return fmt.Errorf("job %q not registered", name)
}

// FuncJob adapts a function into a Job.
type FuncJob struct {
	JobName  string
	Spec     string
	Function func(ctx context.Context) error
}

func (j FuncJob) Name() string                      { return j.JobName }
func (j FuncJob) Schedule() string                  { return j.Spec }
func (j FuncJob) Execute(ctx context.Context) error { return j.Function(ctx) }

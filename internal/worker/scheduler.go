package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"bilancio/internal/log"
)

// Scheduler runs jobs on cron expressions until its context ends.
type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger
	ctx    context.Context
}

func NewScheduler(logger *log.Logger) *Scheduler {
	logger = logger.WithComponent(log.ComponentScheduler)
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		ctx:    context.Background(),
	}
}

// Schedule registers job under a standard five-field cron spec.
func (s *Scheduler) Schedule(spec, name string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.InfoContext(s.ctx, "Job started", "job", name)
		if err := job(s.ctx); err != nil {
			s.logger.ErrorContext(s.ctx, "Job failed", "job", name, log.FieldError, err.Error())
			return
		}
		s.logger.InfoContext(s.ctx, "Job finished", "job", name)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started", "jobs", s.Len())

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
	return nil
}

// cronLogger adapts log.Logger to cron.Logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, log.FieldError, err.Error())...)
}

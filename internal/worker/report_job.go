package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/mail"
	"bilancio/internal/services"
)

const defaultReportConcurrency = 4

// ReportResult counts what a report run did.
type ReportResult struct {
	Period  core.Period
	Sent    int
	Skipped int
	Failed  int
}

// ReportJob mails every user the summary of the previous calendar month.
type ReportJob struct {
	finance     *services.FinanceService
	mailer      mail.Mailer
	logger      *log.Logger
	now         func() time.Time
	concurrency int
}

func NewReportJob(finance *services.FinanceService, mailer mail.Mailer, logger *log.Logger) *ReportJob {
	return &ReportJob{
		finance:     finance,
		mailer:      mailer,
		logger:      logger.WithComponent(log.ComponentWorker),
		now:         time.Now,
		concurrency: defaultReportConcurrency,
	}
}

// Run reports on the month before now.
func (j *ReportJob) Run(ctx context.Context) (ReportResult, error) {
	return j.RunFor(ctx, core.PeriodOf(j.now()).Previous())
}

// RunFor reports on period p. Users who never opened p are skipped; a failed
// mail is counted and does not stop the others.
func (j *ReportJob) RunFor(ctx context.Context, p core.Period) (ReportResult, error) {
	users, err := j.finance.ListUsers(ctx)
	if err != nil {
		return ReportResult{}, fmt.Errorf("list users: %w", err)
	}

	var sent, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)

	for _, u := range users {
		u := u
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			view, err := j.finance.Month(gctx, u.ID, p)
			if err != nil {
				if services.IsNotFound(err) {
					skipped.Add(1)
					return nil
				}
				j.logger.ErrorContext(gctx, "Failed to load month for report", log.NewFields().WithUser(u.ID).WithError(err).ToSlice()...)
				failed.Add(1)
				return nil
			}
			if err := j.mailer.Send(gctx, ReportMessage(u, view)); err != nil {
				j.logger.ErrorContext(gctx, "Failed to send report", log.NewFields().WithUser(u.ID).WithError(err).ToSlice()...)
				failed.Add(1)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}

	err = g.Wait()
	res := ReportResult{Period: p, Sent: int(sent.Load()), Skipped: int(skipped.Load()), Failed: int(failed.Load())}
	j.logger.InfoContext(ctx, "Monthly report run finished",
		log.FieldOperation, log.OpReport,
		log.FieldYear, p.Year,
		log.FieldMonth, p.Month,
		"sent", res.Sent,
		"skipped", res.Skipped,
		"failed", res.Failed)
	return res, err
}

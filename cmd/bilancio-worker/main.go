package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/cli"
	"bilancio/internal/log"
	"bilancio/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting bilancio-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	res := cli.InitBackend(context.Background(), logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	finance := cli.NewFinanceService(logger, cfg, res)
	mailer := cli.NewMailer(logger, cfg)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	g, gctx := errgroup.WithContext(ctx)

	if res.Events != nil {
		alerts := worker.NewAlertWorker(finance, res.Store, mailer, cfg.AlertScoreThreshold, logger)
		g.Go(func() error {
			err := res.Events.ConsumeRecordChanged(gctx, alerts.HandleRecordChanged)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP_URL not set, health alerts disabled")
	}

	report := worker.NewReportJob(finance, mailer, logger)
	scheduler := worker.NewScheduler(logger)
	if err := scheduler.Schedule(cfg.ReportSchedule, "monthly-report", func(ctx context.Context) error {
		result, err := report.Run(ctx)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Monthly report sent",
			"period", result.Period.Key(),
			"sent", result.Sent,
			"skipped", result.Skipped,
			"failed", result.Failed)
		return nil
	}); err != nil {
		logger.Error("Failed to schedule monthly report", log.FieldError, err.Error())
		os.Exit(1)
	}
	g.Go(func() error { return scheduler.Run(gctx) })

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

package worker

import (
	"context"
	"errors"
	"fmt"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/mail"
	"bilancio/internal/services"
)

// AlertStore is the part of the store the alert worker writes to.
// *storage.Store satisfies it.
type AlertStore interface {
	MarkAlertSent(ctx context.Context, recordID string, score int) (bool, error)
	ClearAlert(ctx context.Context, recordID string) error
	GetUser(ctx context.Context, id string) (core.User, error)
}

// AlertWorker consumes record.changed events and mails the owner once per
// record when the month's health score drops below the threshold.
type AlertWorker struct {
	finance   *services.FinanceService
	store     AlertStore
	mailer    mail.Mailer
	threshold int
	logger    *log.Logger
}

func NewAlertWorker(finance *services.FinanceService, store AlertStore, mailer mail.Mailer, threshold int, logger *log.Logger) *AlertWorker {
	return &AlertWorker{
		finance:   finance,
		store:     store,
		mailer:    mailer,
		threshold: threshold,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRecordChanged re-evaluates the record named by evt. A returned error
// requeues the event.
func (w *AlertWorker) HandleRecordChanged(ctx context.Context, evt amqp.RecordChangedEvent) error {
	fields := log.NewFields().WithRecord(evt.MonthlyRecordID, evt.Year, evt.Month).WithUser(evt.UserID)

	view, err := w.finance.MonthByRecordID(ctx, evt.UserID, evt.MonthlyRecordID)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			w.logger.WarnContext(ctx, "Record no longer exists, dropping event", fields.ToSlice()...)
			return nil
		}
		return fmt.Errorf("load monthly record: %w", err)
	}

	score := view.Summary.HealthScore
	fields.WithHealthScore(score)

	if view.Summary.IsEmpty() || score >= w.threshold {
		// Re-arm so a later drop alerts again.
		if err := w.store.ClearAlert(ctx, view.Record.ID); err != nil {
			return fmt.Errorf("clear alert: %w", err)
		}
		w.logger.DebugContext(ctx, "Health score above threshold", fields.ToSlice()...)
		return nil
	}

	first, err := w.store.MarkAlertSent(ctx, view.Record.ID, score)
	if err != nil {
		return fmt.Errorf("mark alert: %w", err)
	}
	if !first {
		w.logger.DebugContext(ctx, "Alert already sent for record", fields.ToSlice()...)
		return nil
	}

	user, err := w.store.GetUser(ctx, evt.UserID)
	if err != nil {
		if clearErr := w.store.ClearAlert(ctx, view.Record.ID); clearErr != nil {
			w.logger.ErrorContext(ctx, "Failed to re-arm alert", fields.WithError(clearErr).ToSlice()...)
		}
		return fmt.Errorf("get user: %w", err)
	}
	if err := w.mailer.Send(ctx, AlertMessage(user, view, w.threshold)); err != nil {
		if clearErr := w.store.ClearAlert(ctx, view.Record.ID); clearErr != nil {
			w.logger.ErrorContext(ctx, "Failed to re-arm alert", fields.WithError(clearErr).ToSlice()...)
		}
		return fmt.Errorf("send alert: %w", err)
	}

	w.logger.InfoContext(ctx, "Health score alert sent", fields.WithOperation(log.OpNotify).ToSlice()...)
	return nil
}

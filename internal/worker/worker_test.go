package worker

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/auth"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/mail"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

const (
	salaryID = "00000000-0000-0000-0000-000000000001"
	rentID   = "00000000-0000-0000-0000-000000000002"
)

var testNow = time.Date(2025, time.April, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store   *storage.Store
	finance *services.FinanceService
	logger  *log.Logger
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := log.New(log.Config{Output: io.Discard})
	finance := services.NewFinanceService(store, nil, auth.NewTokenManager(strings.Repeat("k", 32), time.Hour),
		services.WithLogger(logger),
		services.WithClock(func() time.Time { return testNow }),
	)
	return fixture{store: store, finance: finance, logger: logger}
}

func (f fixture) user(t *testing.T, email string) core.User {
	t.Helper()
	u, err := f.finance.SignUp(context.Background(), core.SignUpInput{Email: email, Name: "Ada", Password: "correct horse"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	return u
}

func (f fixture) add(t *testing.T, userID string, p core.Period, categoryID, amount string) core.Transaction {
	t.Helper()
	tx, err := f.finance.CreateTransaction(context.Background(), userID, &p, core.TransactionInput{
		CategoryID: categoryID,
		Amount:     core.MustAmount(amount),
		Date:       p.Start(),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func eventFor(u core.User, tx core.Transaction, p core.Period) amqp.RecordChangedEvent {
	return amqp.NewRecordChangedEvent(tx.MonthlyRecordID, u.ID, p.Year, p.Month, amqp.KindTransaction, amqp.ActionCreated)
}

func TestAlertWorker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ada@example.com")
	p := core.Period{Year: 2025, Month: 4}
	outbox := &mail.Outbox{}
	w := NewAlertWorker(f.finance, f.store, outbox, 20, f.logger)

	f.add(t, u.ID, p, salaryID, "1000")
	tx := f.add(t, u.ID, p, rentID, "900")
	evt := eventFor(u, tx, p)

	if err := w.HandleRecordChanged(ctx, evt); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleRecordChanged(ctx, evt); err != nil {
		t.Fatal(err)
	}
	msgs := outbox.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(msgs))
	}
	if msgs[0].To != "ada@example.com" || !strings.Contains(msgs[0].Body, "dropped to 10/100") {
		t.Errorf("unexpected alert %+v", msgs[0])
	}

	// Recovering above the threshold re-arms the alert.
	f.add(t, u.ID, p, salaryID, "2000")
	if err := w.HandleRecordChanged(ctx, evt); err != nil {
		t.Fatal(err)
	}
	f.add(t, u.ID, p, rentID, "2000")
	if err := w.HandleRecordChanged(ctx, evt); err != nil {
		t.Fatal(err)
	}
	if got := len(outbox.Messages()); got != 2 {
		t.Fatalf("expected a second alert after recovery, got %d", got)
	}
}

// flakyUsers fails the first n user lookups.
type flakyUsers struct {
	*storage.Store
	failures int
}

func (s *flakyUsers) GetUser(ctx context.Context, id string) (core.User, error) {
	if s.failures > 0 {
		s.failures--
		return core.User{}, errors.New("connection reset")
	}
	return s.Store.GetUser(ctx, id)
}

func TestAlertWorkerRearmsAfterFailure(t *testing.T) {
	tests := []struct {
		name         string
		userFailures int
		mailErr      error
	}{
		{"user lookup fails", 1, nil},
		{"mail relay fails", 0, errors.New("relay down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			u := f.user(t, "ada@example.com")
			p := core.Period{Year: 2025, Month: 4}
			outbox := &mail.Outbox{Err: tt.mailErr}
			store := &flakyUsers{Store: f.store, failures: tt.userFailures}
			w := NewAlertWorker(f.finance, store, outbox, 20, f.logger)

			tx := f.add(t, u.ID, p, rentID, "50")
			evt := eventFor(u, tx, p)

			if err := w.HandleRecordChanged(ctx, evt); err == nil {
				t.Fatal("expected an error so the event is requeued")
			}
			if got := len(outbox.Messages()); got != 0 {
				t.Fatalf("no alert should be recorded yet, got %d", got)
			}

			outbox.Err = nil
			if err := w.HandleRecordChanged(ctx, evt); err != nil {
				t.Fatal(err)
			}
			if got := len(outbox.Messages()); got != 1 {
				t.Fatalf("expected alert on retry, got %d", got)
			}
		})
	}
}

func TestAlertWorkerDropsUnknownRecord(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada@example.com")
	w := NewAlertWorker(f.finance, f.store, &mail.Outbox{}, 20, f.logger)

	evt := amqp.NewRecordChangedEvent("00000000-0000-0000-0000-0000000000ff", u.ID, 2025, 4, amqp.KindAsset, amqp.ActionDeleted)
	if err := w.HandleRecordChanged(context.Background(), evt); err != nil {
		t.Fatalf("unknown record should be acked, got %v", err)
	}
}

func TestReportJob(t *testing.T) {
	f := newFixture(t)
	march := core.Period{Year: 2025, Month: 3}

	ada := f.user(t, "ada@example.com")
	f.user(t, "bob@example.com")
	for i := 0; i < 3; i++ {
		u := f.user(t, "user"+string(rune('a'+i))+"@example.com")
		f.add(t, u.ID, march, salaryID, "100")
	}
	f.add(t, ada.ID, march, salaryID, "5000")
	f.add(t, ada.ID, march, rentID, "1000")

	outbox := &mail.Outbox{}
	job := NewReportJob(f.finance, outbox, f.logger)
	job.now = func() time.Time { return testNow }

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Period != march || res.Sent != 4 || res.Skipped != 1 || res.Failed != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	var adaMsg mail.Message
	for _, m := range outbox.Messages() {
		if m.To == "ada@example.com" {
			adaMsg = m
		}
	}
	if adaMsg.Subject != "Your March 2025 summary" {
		t.Fatalf("missing report for ada: %+v", adaMsg)
	}
	if !strings.Contains(adaMsg.Body, "80/100 (healthy)") || !strings.Contains(adaMsg.Body, core.MsgExcellentSavings) {
		t.Errorf("unexpected report body:\n%s", adaMsg.Body)
	}
}

func TestReportJobCountsFailures(t *testing.T) {
	f := newFixture(t)
	march := core.Period{Year: 2025, Month: 3}
	u := f.user(t, "ada@example.com")
	f.add(t, u.ID, march, salaryID, "1")

	job := NewReportJob(f.finance, &mail.Outbox{Err: errors.New("relay down")}, f.logger)
	res, err := job.RunFor(context.Background(), march)
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 || res.Sent != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSchedulerRejectsBadExpression(t *testing.T) {
	s := NewScheduler(log.New(log.Config{Output: io.Discard}))
	if err := s.Schedule("not a cron", "report", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for an invalid cron expression")
	}
	if err := s.Schedule("0 8 1 * *", "report", func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected one entry, got %d", s.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

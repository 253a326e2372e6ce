package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bilancio/internal/auth"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func TestRun(t *testing.T) {
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "report.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	finance := services.NewFinanceService(store, nil, auth.NewTokenManager(strings.Repeat("k", 32), time.Hour),
		services.WithLogger(log.New(log.Config{Output: io.Discard})),
		services.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()
	u, err := finance.SignUp(ctx, core.SignUpInput{Email: "ada@example.com", Name: "Ada", Password: "correct horse"})
	if err != nil {
		t.Fatal(err)
	}
	add := func(p core.Period, category, amount string) {
		t.Helper()
		if _, err := finance.CreateTransaction(ctx, u.ID, &p, core.TransactionInput{
			CategoryID: category, Amount: core.MustAmount(amount), Date: p.Start(),
		}); err != nil {
			t.Fatal(err)
		}
	}
	add(core.Period{Year: 2025, Month: 2}, "00000000-0000-0000-0000-000000000001", "1000")
	add(core.Period{Year: 2025, Month: 3}, "00000000-0000-0000-0000-000000000001", "2000")
	add(core.Period{Year: 2025, Month: 3}, "00000000-0000-0000-0000-000000000002", "500")

	tests := []struct {
		name     string
		months   int
		markdown bool
		want     []string
		notWant  []string
	}{
		{name: "all months", want: []string{"2025-03", "2025-02", "€1500,00", "healthy", "Total", "€2500,00"}},
		{name: "limited", months: 1, want: []string{"2025-03"}, notWant: []string{"2025-02"}},
		{name: "markdown", markdown: true, want: []string{"| 2025-03", "|---"}, notWant: []string{"Total"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := run(ctx, &buf, finance, "ADA@example.com", tt.months, tt.markdown); err != nil {
				t.Fatal(err)
			}
			out := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}

	if err := run(ctx, io.Discard, finance, "nobody@example.com", 0, false); err == nil {
		t.Error("expected an error for an unknown user")
	}
}

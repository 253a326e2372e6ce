package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bilancio/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustUser(t *testing.T, s *Store, email string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), core.User{Email: email, Name: "Test", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestRebind(t *testing.T) {
	s := &Store{dialect: DialectPostgres}
	got := s.rebind(`SELECT * FROM t WHERE a = ? AND b = ?`)
	if got != `SELECT * FROM t WHERE a = $1 AND b = $2` {
		t.Fatalf("rebind = %q", got)
	}
	s.dialect = DialectSQLite
	if got := s.rebind(`a = ?`); got != `a = ?` {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := mustUser(t, s, "ada@example.com")
	if _, err := s.CreateUser(ctx, core.User{Email: "ada@example.com", Name: "Dup", PasswordHash: "x"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email: expected ErrConflict, got %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "ada@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("get by email: %+v %v", got, err)
	}
	if _, err := s.GetUser(ctx, "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("bad id: expected ErrNotFound, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := mustUser(t, s, "alice@example.com")
	bob := mustUser(t, s, "bob@example.com")

	globals, err := s.ListCategories(ctx, alice.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(globals) != 4 {
		t.Fatalf("expected 4 seeded categories, got %d", len(globals))
	}

	c, err := s.CreateCategory(ctx, core.Category{UserID: alice.ID, Name: "Bonus", Type: core.Income})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateCategory(ctx, core.Category{UserID: alice.ID, Name: "Bonus", Type: core.Income}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate name: expected ErrConflict, got %v", err)
	}
	if _, err := s.CreateCategory(ctx, core.Category{UserID: bob.ID, Name: "Bonus", Type: core.Income}); err != nil {
		t.Fatalf("same name for another user should be allowed: %v", err)
	}

	incomes, err := s.ListCategories(ctx, alice.ID, core.Income)
	if err != nil {
		t.Fatal(err)
	}
	if len(incomes) != 2 || incomes[0].Name != "Bonus" || incomes[1].Name != "Salary" {
		t.Fatalf("unexpected income categories: %+v", incomes)
	}

	c.Name = "Bonuses"
	if err := s.UpdateCategory(ctx, c); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetCategory(ctx, c.ID)
	if err != nil || got.Name != "Bonuses" || got.UserID != alice.ID {
		t.Fatalf("get category: %+v %v", got, err)
	}
	if err := s.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCategory(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestGetOrCreateMonthlyRecordConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "race@example.com")
	p := core.Period{Year: 2025, Month: 3}

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := s.GetOrCreateMonthlyRecord(ctx, u.ID, p)
			ids[i], errs[i] = r.ID, err
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got record %s, want %s", i, ids[i], ids[0])
		}
	}

	records, err := s.ListMonthlyRecords(ctx, u.ID)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d (%v)", len(records), err)
	}
	if _, err := s.GetMonthlyRecord(ctx, u.ID, core.Period{Year: 2025, Month: 4}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing month: expected ErrNotFound, got %v", err)
	}
}

func TestTransactionsAndAssets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "tx@example.com")
	rec, err := s.GetOrCreateMonthlyRecord(ctx, u.ID, core.Period{Year: 2025, Month: 1})
	if err != nil {
		t.Fatal(err)
	}
	cats, err := s.ListCategories(ctx, u.ID, core.Income)
	if err != nil || len(cats) == 0 {
		t.Fatalf("list categories: %v", err)
	}

	day := time.Date(2025, 1, 10, 15, 30, 0, 0, time.UTC)
	tx, err := s.CreateTransaction(ctx, core.Transaction{
		MonthlyRecordID: rec.ID,
		CategoryID:      cats[0].ID,
		Amount:          core.MustAmount("1234.56"),
		Description:     "January salary",
		Date:            day,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, owner, err := s.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if owner != u.ID {
		t.Fatalf("owner = %s, want %s", owner, u.ID)
	}
	if !got.Amount.Equal(core.MustAmount("1234.56")) || got.Category.Type != core.Income {
		t.Fatalf("unexpected transaction %+v", got)
	}
	if !got.Date.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %v", got.Date)
	}

	got.Amount = core.MustAmount("99.90")
	if err := s.UpdateTransaction(ctx, got); err != nil {
		t.Fatal(err)
	}
	list, err := s.ListTransactions(ctx, rec.ID)
	if err != nil || len(list) != 1 || !list[0].Amount.Equal(core.MustAmount("99.9")) {
		t.Fatalf("list transactions: %+v %v", list, err)
	}

	if err := s.DeleteCategory(ctx, cats[0].ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("deleting a referenced category: expected ErrConflict, got %v", err)
	}

	a, err := s.CreateAsset(ctx, core.Asset{MonthlyRecordID: rec.ID, Name: "Savings", Value: core.MustAmount("5000")})
	if err != nil {
		t.Fatal(err)
	}
	if _, owner, err := s.GetAsset(ctx, a.ID); err != nil || owner != u.ID {
		t.Fatalf("get asset: owner=%s err=%v", owner, err)
	}
	all, err := s.ListUserAssets(ctx, u.ID)
	if err != nil || len(all) != 1 {
		t.Fatalf("list user assets: %d %v", len(all), err)
	}

	if err := s.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.GetTransaction(ctx, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted transaction: expected ErrNotFound, got %v", err)
	}
}

func TestListByMalformedRecordID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		list func(id string) (int, error)
	}{
		{"transactions", func(id string) (int, error) {
			txs, err := s.ListTransactions(ctx, id)
			return len(txs), err
		}},
		{"assets", func(id string) (int, error) {
			assets, err := s.ListAssets(ctx, id)
			return len(assets), err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, id := range []string{"not-a-uuid", ""} {
				n, err := tt.list(id)
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("list %s(%q): expected ErrNotFound, got %v", tt.name, id, err)
				}
				if n != 0 {
					t.Errorf("list %s(%q): got %d rows", tt.name, id, n)
				}
			}
		})
	}
}

func TestMarkAlertSent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "alert@example.com")
	rec, err := s.GetOrCreateMonthlyRecord(ctx, u.ID, core.Period{Year: 2025, Month: 2})
	if err != nil {
		t.Fatal(err)
	}

	first, err := s.MarkAlertSent(ctx, rec.ID, 10)
	if err != nil || !first {
		t.Fatalf("first mark: %v %v", first, err)
	}
	second, err := s.MarkAlertSent(ctx, rec.ID, 5)
	if err != nil || second {
		t.Fatalf("second mark should be a no-op: %v %v", second, err)
	}
	if err := s.ClearAlert(ctx, rec.ID); err != nil {
		t.Fatal(err)
	}
	again, err := s.MarkAlertSent(ctx, rec.ID, 5)
	if err != nil || !again {
		t.Fatalf("mark after clear: %v %v", again, err)
	}
}

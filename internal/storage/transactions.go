package storage

import (
	"context"
	"database/sql"
	"fmt"

	"bilancio/internal/core"
)

const transactionSelect = `SELECT t.id, t.monthly_record_id, t.category_id, t.amount, t.description, t.date, t.created_at,
	c.id, c.user_id, c.name, c.type, c.created_at
	FROM transactions t
	JOIN categories c ON c.id = t.category_id`

func scanTransaction(row rowScanner, extra ...any) (core.Transaction, error) {
	var (
		t          core.Transaction
		date       timeValue
		created    timeValue
		owner      sql.NullString
		catCreated timeValue
	)
	dest := []any{
		&t.ID, &t.MonthlyRecordID, &t.CategoryID, &t.Amount, &t.Description, &date, &created,
		&t.Category.ID, &owner, &t.Category.Name, &t.Category.Type, &catCreated,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return core.Transaction{}, err
	}
	t.Date = date.Time
	t.CreatedAt = created.Time
	t.Category.UserID = owner.String
	t.Category.CreatedAt = catCreated.Time
	return t, nil
}

func (s *Store) listTransactions(ctx context.Context, q string, args ...any) ([]core.Transaction, error) {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListTransactions returns a record's transactions with their category, newest date first.
func (s *Store) ListTransactions(ctx context.Context, recordID string) ([]core.Transaction, error) {
	if err := checkID(recordID); err != nil {
		return nil, err
	}
	return s.listTransactions(ctx,
		transactionSelect+` WHERE t.monthly_record_id = ? ORDER BY t.date DESC, t.created_at DESC`, recordID)
}

// ListUserTransactions returns every transaction across the user's records.
func (s *Store) ListUserTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.listTransactions(ctx,
		transactionSelect+` JOIN monthly_records r ON r.id = t.monthly_record_id
	WHERE r.user_id = ? ORDER BY t.date DESC, t.created_at DESC`, userID)
}

// GetTransaction returns the transaction and the ID of the user owning its record.
func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, string, error) {
	if err := checkID(id); err != nil {
		return core.Transaction{}, "", err
	}
	var owner string
	t, err := scanTransaction(s.queryRow(ctx,
		`SELECT t.id, t.monthly_record_id, t.category_id, t.amount, t.description, t.date, t.created_at,
	c.id, c.user_id, c.name, c.type, c.created_at, r.user_id
	FROM transactions t
	JOIN categories c ON c.id = t.category_id
	JOIN monthly_records r ON r.id = t.monthly_record_id
	WHERE t.id = ?`, id), &owner)
	if err != nil {
		return core.Transaction{}, "", mapError(err)
	}
	return t, owner, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = newID()
	t.CreatedAt = now()
	t.Date = dateOnly(t.Date)
	_, err := s.exec(ctx,
		`INSERT INTO transactions (id, monthly_record_id, category_id, amount, description, date, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.MonthlyRecordID, t.CategoryID, t.Amount.StringFixed(2), t.Description, t.Date, t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", mapError(err))
	}
	return t, nil
}

// UpdateTransaction rewrites the mutable columns of t.
func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := checkID(t.ID); err != nil {
		return err
	}
	return s.execOne(ctx,
		`UPDATE transactions SET category_id = ?, amount = ?, description = ?, date = ? WHERE id = ?`,
		t.CategoryID, t.Amount.StringFixed(2), t.Description, dateOnly(t.Date), t.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.execOne(ctx, `DELETE FROM transactions WHERE id = ?`, id)
}

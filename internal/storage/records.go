package storage

import (
	"context"
	"errors"
	"fmt"

	"bilancio/internal/core"
)

const recordColumns = `id, user_id, year, month, created_at`

// getOrCreateAttempts bounds the insert/re-read loop for concurrent first visits.
const getOrCreateAttempts = 3

func scanRecord(row rowScanner) (core.MonthlyRecord, error) {
	var (
		r       core.MonthlyRecord
		created timeValue
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.Year, &r.Month, &created); err != nil {
		return core.MonthlyRecord{}, err
	}
	r.CreatedAt = created.Time
	return r, nil
}

// GetMonthlyRecord returns the user's record for the period or ErrNotFound.
func (s *Store) GetMonthlyRecord(ctx context.Context, userID string, p core.Period) (core.MonthlyRecord, error) {
	r, err := scanRecord(s.queryRow(ctx,
		`SELECT `+recordColumns+` FROM monthly_records WHERE user_id = ? AND year = ? AND month = ?`,
		userID, p.Year, p.Month))
	if err != nil {
		return core.MonthlyRecord{}, mapError(err)
	}
	return r, nil
}

func (s *Store) GetMonthlyRecordByID(ctx context.Context, id string) (core.MonthlyRecord, error) {
	if err := checkID(id); err != nil {
		return core.MonthlyRecord{}, err
	}
	r, err := scanRecord(s.queryRow(ctx, `SELECT `+recordColumns+` FROM monthly_records WHERE id = ?`, id))
	if err != nil {
		return core.MonthlyRecord{}, mapError(err)
	}
	return r, nil
}

// GetOrCreateMonthlyRecord returns the existing record for the period or
// creates it. When two callers race, the loser's insert hits the
// (user_id, year, month) unique constraint and it re-reads the winner's row.
func (s *Store) GetOrCreateMonthlyRecord(ctx context.Context, userID string, p core.Period) (core.MonthlyRecord, error) {
	if err := p.Validate(); err != nil {
		return core.MonthlyRecord{}, err
	}
	for attempt := 0; attempt < getOrCreateAttempts; attempt++ {
		r, err := s.GetMonthlyRecord(ctx, userID, p)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return core.MonthlyRecord{}, fmt.Errorf("get monthly record: %w", err)
		}

		r = core.MonthlyRecord{ID: newID(), UserID: userID, Year: p.Year, Month: p.Month, CreatedAt: now()}
		_, err = s.exec(ctx,
			`INSERT INTO monthly_records (id, user_id, year, month, created_at) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.UserID, r.Year, r.Month, r.CreatedAt)
		if err == nil {
			return r, nil
		}
		if !isUniqueViolation(err) {
			return core.MonthlyRecord{}, fmt.Errorf("create monthly record: %w", mapError(err))
		}
	}
	return core.MonthlyRecord{}, fmt.Errorf("create monthly record for %s: %w", p.Key(), ErrConflict)
}

// ListMonthlyRecords returns the user's records, newest month first.
func (s *Store) ListMonthlyRecords(ctx context.Context, userID string) ([]core.MonthlyRecord, error) {
	rows, err := s.query(ctx,
		`SELECT `+recordColumns+` FROM monthly_records WHERE user_id = ? ORDER BY year DESC, month DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list monthly records: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlyRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan monthly record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

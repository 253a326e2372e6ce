package storage

import (
	"context"
	"fmt"

	"bilancio/internal/core"
)

const assetColumns = `a.id, a.monthly_record_id, a.name, a.value, a.description, a.created_at`

func scanAsset(row rowScanner, extra ...any) (core.Asset, error) {
	var (
		a       core.Asset
		created timeValue
	)
	dest := []any{&a.ID, &a.MonthlyRecordID, &a.Name, &a.Value, &a.Description, &created}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return core.Asset{}, err
	}
	a.CreatedAt = created.Time
	return a, nil
}

func (s *Store) listAssets(ctx context.Context, q string, args ...any) ([]core.Asset, error) {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []core.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListAssets returns a record's assets, newest first.
func (s *Store) ListAssets(ctx context.Context, recordID string) ([]core.Asset, error) {
	if err := checkID(recordID); err != nil {
		return nil, err
	}
	return s.listAssets(ctx,
		`SELECT `+assetColumns+` FROM assets a WHERE a.monthly_record_id = ? ORDER BY a.created_at DESC`, recordID)
}

func (s *Store) ListUserAssets(ctx context.Context, userID string) ([]core.Asset, error) {
	return s.listAssets(ctx,
		`SELECT `+assetColumns+` FROM assets a JOIN monthly_records r ON r.id = a.monthly_record_id
	WHERE r.user_id = ? ORDER BY a.created_at DESC`, userID)
}

// GetAsset returns the asset and the ID of the user owning its record.
func (s *Store) GetAsset(ctx context.Context, id string) (core.Asset, string, error) {
	if err := checkID(id); err != nil {
		return core.Asset{}, "", err
	}
	var owner string
	a, err := scanAsset(s.queryRow(ctx,
		`SELECT `+assetColumns+`, r.user_id FROM assets a JOIN monthly_records r ON r.id = a.monthly_record_id
	WHERE a.id = ?`, id), &owner)
	if err != nil {
		return core.Asset{}, "", mapError(err)
	}
	return a, owner, nil
}

func (s *Store) CreateAsset(ctx context.Context, a core.Asset) (core.Asset, error) {
	a.ID = newID()
	a.CreatedAt = now()
	_, err := s.exec(ctx,
		`INSERT INTO assets (id, monthly_record_id, name, value, description, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.MonthlyRecordID, a.Name, a.Value.StringFixed(2), a.Description, a.CreatedAt)
	if err != nil {
		return core.Asset{}, fmt.Errorf("create asset: %w", mapError(err))
	}
	return a, nil
}

func (s *Store) UpdateAsset(ctx context.Context, a core.Asset) error {
	if err := checkID(a.ID); err != nil {
		return err
	}
	return s.execOne(ctx, `UPDATE assets SET name = ?, value = ?, description = ? WHERE id = ?`,
		a.Name, a.Value.StringFixed(2), a.Description, a.ID)
}

func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.execOne(ctx, `DELETE FROM assets WHERE id = ?`, id)
}

package storage

import (
	"context"
	"database/sql"
	"fmt"

	"bilancio/internal/core"
)

const categoryColumns = `id, user_id, name, type, created_at`

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c       core.Category
		owner   sql.NullString
		created timeValue
	)
	if err := row.Scan(&c.ID, &owner, &c.Name, &c.Type, &created); err != nil {
		return core.Category{}, err
	}
	c.UserID = owner.String
	c.CreatedAt = created.Time
	return c, nil
}

// nullable maps an empty owner to SQL NULL (global category).
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ListCategories returns the user's categories plus the global ones, ordered
// by name. An empty ct returns every type.
func (s *Store) ListCategories(ctx context.Context, userID string, ct core.CategoryType) ([]core.Category, error) {
	q := `SELECT ` + categoryColumns + ` FROM categories WHERE (user_id = ? OR user_id IS NULL)`
	args := []any{userID}
	if ct != "" {
		q += ` AND type = ?`
		args = append(args, string(ct))
	}
	q += ` ORDER BY name, created_at`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id string) (core.Category, error) {
	if err := checkID(id); err != nil {
		return core.Category{}, err
	}
	c, err := scanCategory(s.queryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if err != nil {
		return core.Category{}, mapError(err)
	}
	return c, nil
}

// CreateCategory inserts c for c.UserID. A duplicate name for the same owner yields ErrConflict.
func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.ID = newID()
	c.CreatedAt = now()
	_, err := s.exec(ctx,
		`INSERT INTO categories (id, user_id, name, type, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, nullable(c.UserID), c.Name, string(c.Type), c.CreatedAt)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", mapError(err))
	}
	return c, nil
}

// UpdateCategory rewrites name and type of an existing category.
func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := checkID(c.ID); err != nil {
		return err
	}
	return s.execOne(ctx, `UPDATE categories SET name = ?, type = ? WHERE id = ?`, c.Name, string(c.Type), c.ID)
}

// DeleteCategory removes a category. Categories still referenced by a
// transaction yield ErrConflict.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.execOne(ctx, `DELETE FROM categories WHERE id = ?`, id)
}

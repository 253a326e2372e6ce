package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

func categoryKey(userID string, ct core.CategoryType) string {
	return userID + ":" + string(ct)
}

// ListCategories returns the user's own categories plus the global ones,
// optionally filtered by type. An empty ct lists every type.
func (s *FinanceService) ListCategories(ctx context.Context, userID string, ct core.CategoryType) ([]core.Category, error) {
	if ct != "" && !ct.IsValid() {
		return nil, core.ErrInvalidCategoryType
	}
	return s.categories.GetOrLoad(categoryKey(userID, ct), func() ([]core.Category, error) {
		return s.store.ListCategories(ctx, userID, ct)
	})
}

func (s *FinanceService) CreateCategory(ctx context.Context, userID string, in core.CategoryInput) (core.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	c, err := s.store.CreateCategory(ctx, core.Category{UserID: userID, Name: in.Name, Type: in.Type})
	if err != nil {
		return core.Category{}, err
	}
	s.invalidateCategories(userID)
	return c, nil
}

// UpdateCategory renames or retypes a category owned by userID. Global
// categories are read-only.
func (s *FinanceService) UpdateCategory(ctx context.Context, userID, id string, patch core.CategoryPatch) (core.Category, error) {
	if err := patch.Validate(); err != nil {
		return core.Category{}, err
	}
	c, err := s.ownedCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	if patch.Name != nil {
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	s.invalidateCategories(userID)
	return c, nil
}

// DeleteCategory removes a category owned by userID. storage.ErrConflict is
// returned while transactions still reference it.
func (s *FinanceService) DeleteCategory(ctx context.Context, userID, id string) error {
	c, err := s.ownedCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, c.ID); err != nil {
		return err
	}
	s.invalidateCategories(userID)
	return nil
}

func (s *FinanceService) ownedCategory(ctx context.Context, userID, id string) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Category{}, ErrForbidden
		}
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	if c.UserID != userID {
		return core.Category{}, ErrForbidden
	}
	return c, nil
}

func (s *FinanceService) invalidateCategories(userID string) {
	s.categories.DeletePrefix(userID + ":")
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

func (s *FinanceService) ListAssets(ctx context.Context, userID, recordID string) ([]core.Asset, error) {
	if _, err := s.ownedRecord(ctx, userID, recordID); err != nil {
		return nil, err
	}
	return s.store.ListAssets(ctx, recordID)
}

// CreateAsset records a holding in month p, creating the month if needed.
func (s *FinanceService) CreateAsset(ctx context.Context, userID string, p core.Period, in core.AssetInput) (core.Asset, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := in.Validate(); err != nil {
		return core.Asset{}, err
	}
	if err := p.Validate(); err != nil {
		return core.Asset{}, err
	}

	rec, err := s.store.GetOrCreateMonthlyRecord(ctx, userID, p)
	if err != nil {
		return core.Asset{}, fmt.Errorf("get or create monthly record: %w", err)
	}
	a, err := s.store.CreateAsset(ctx, core.Asset{
		MonthlyRecordID: rec.ID,
		Name:            in.Name,
		Value:           in.Value,
		Description:     in.Description,
	})
	if err != nil {
		return core.Asset{}, err
	}

	s.audit.LogRecordMutation(ctx, log.OpCreate, amqp.KindAsset, a.ID, userID, rec.ID,
		log.NewFields().WithAmount(a.Value))
	s.publish(ctx, rec, amqp.KindAsset, amqp.ActionCreated)
	return a, nil
}

func (s *FinanceService) UpdateAsset(ctx context.Context, userID, id string, patch core.AssetPatch) (core.Asset, error) {
	if err := patch.Validate(); err != nil {
		return core.Asset{}, err
	}
	a, rec, err := s.ownedAsset(ctx, userID, id)
	if err != nil {
		return core.Asset{}, err
	}

	if patch.Name != nil {
		a.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Value != nil {
		a.Value = *patch.Value
	}
	if patch.Description != nil {
		a.Description = strings.TrimSpace(*patch.Description)
	}
	if err := s.store.UpdateAsset(ctx, a); err != nil {
		return core.Asset{}, err
	}

	s.audit.LogRecordMutation(ctx, log.OpUpdate, amqp.KindAsset, a.ID, userID, rec.ID,
		log.NewFields().WithAmount(a.Value))
	s.publish(ctx, rec, amqp.KindAsset, amqp.ActionUpdated)
	return a, nil
}

func (s *FinanceService) DeleteAsset(ctx context.Context, userID, id string) error {
	a, rec, err := s.ownedAsset(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAsset(ctx, a.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}

	s.audit.LogRecordMutation(ctx, log.OpDelete, amqp.KindAsset, a.ID, userID, rec.ID, nil)
	s.publish(ctx, rec, amqp.KindAsset, amqp.ActionDeleted)
	return nil
}

func (s *FinanceService) ownedAsset(ctx context.Context, userID, id string) (core.Asset, core.MonthlyRecord, error) {
	a, owner, err := s.store.GetAsset(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Asset{}, core.MonthlyRecord{}, ErrForbidden
		}
		return core.Asset{}, core.MonthlyRecord{}, fmt.Errorf("get asset: %w", err)
	}
	if owner != userID {
		return core.Asset{}, core.MonthlyRecord{}, ErrForbidden
	}
	rec, err := s.ownedRecord(ctx, userID, a.MonthlyRecordID)
	if err != nil {
		return core.Asset{}, core.MonthlyRecord{}, err
	}
	return a, rec, nil
}

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

// ListTransactions returns the transactions of a record owned by userID.
func (s *FinanceService) ListTransactions(ctx context.Context, userID, recordID string) ([]core.Transaction, error) {
	if _, err := s.ownedRecord(ctx, userID, recordID); err != nil {
		return nil, err
	}
	return s.store.ListTransactions(ctx, recordID)
}

// CreateTransaction adds a transaction to the month p, or to the current
// month when p is nil. The month record is created if missing.
func (s *FinanceService) CreateTransaction(ctx context.Context, userID string, p *core.Period, in core.TransactionInput) (core.Transaction, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	period := s.CurrentPeriod()
	if p != nil {
		if err := p.Validate(); err != nil {
			return core.Transaction{}, err
		}
		period = *p
	}

	cat, err := s.usableCategory(ctx, userID, in.CategoryID)
	if err != nil {
		return core.Transaction{}, err
	}
	rec, err := s.store.GetOrCreateMonthlyRecord(ctx, userID, period)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get or create monthly record: %w", err)
	}

	tx, err := s.store.CreateTransaction(ctx, core.Transaction{
		MonthlyRecordID: rec.ID,
		CategoryID:      cat.ID,
		Amount:          in.Amount,
		Description:     in.Description,
		Date:            in.Date,
	})
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Category = cat

	s.audit.LogRecordMutation(ctx, log.OpCreate, amqp.KindTransaction, tx.ID, userID, rec.ID,
		log.NewFields().WithAmount(tx.Amount).WithCategoryType(string(cat.Type)))
	s.publish(ctx, rec, amqp.KindTransaction, amqp.ActionCreated)
	return tx, nil
}

// UpdateTransaction applies patch to a transaction owned by userID.
func (s *FinanceService) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx, rec, err := s.ownedTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if patch.CategoryID != nil && *patch.CategoryID != tx.CategoryID {
		cat, err := s.usableCategory(ctx, userID, *patch.CategoryID)
		if err != nil {
			return core.Transaction{}, err
		}
		tx.CategoryID = cat.ID
		tx.Category = cat
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Description != nil {
		tx.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Date != nil {
		tx.Date = *patch.Date
	}

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	s.audit.LogRecordMutation(ctx, log.OpUpdate, amqp.KindTransaction, tx.ID, userID, rec.ID,
		log.NewFields().WithAmount(tx.Amount).WithCategoryType(string(tx.Category.Type)))
	s.publish(ctx, rec, amqp.KindTransaction, amqp.ActionUpdated)
	return tx, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, id string) error {
	tx, rec, err := s.ownedTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, tx.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}

	s.audit.LogRecordMutation(ctx, log.OpDelete, amqp.KindTransaction, tx.ID, userID, rec.ID, nil)
	s.publish(ctx, rec, amqp.KindTransaction, amqp.ActionDeleted)
	return nil
}

func (s *FinanceService) ownedTransaction(ctx context.Context, userID, id string) (core.Transaction, core.MonthlyRecord, error) {
	tx, owner, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Transaction{}, core.MonthlyRecord{}, ErrForbidden
		}
		return core.Transaction{}, core.MonthlyRecord{}, fmt.Errorf("get transaction: %w", err)
	}
	if owner != userID {
		return core.Transaction{}, core.MonthlyRecord{}, ErrForbidden
	}
	rec, err := s.ownedRecord(ctx, userID, tx.MonthlyRecordID)
	if err != nil {
		return core.Transaction{}, core.MonthlyRecord{}, err
	}
	return tx, rec, nil
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// TransactionGroup is one category-type section of a month page.
type TransactionGroup struct {
	Type         core.CategoryType
	Label        string
	Transactions []core.Transaction
	Total        decimal.Decimal
}

// MonthView is everything a month page or report needs.
type MonthView struct {
	Record       core.MonthlyRecord
	Period       core.Period
	Transactions []core.Transaction
	Groups       []TransactionGroup
	Assets       []core.Asset
	AssetsTotal  decimal.Decimal
	Summary      core.Summary
}

// HistoryEntry summarizes one past month for the history page.
type HistoryEntry struct {
	Record           core.MonthlyRecord
	Period           core.Period
	Totals           core.Totals
	Balance          decimal.Decimal
	HealthScore      int
	TransactionCount int
	AssetCount       int
	AssetsTotal      decimal.Decimal
}

// CurrentMonth opens the record for the current calendar month, creating it
// on first access.
func (s *FinanceService) CurrentMonth(ctx context.Context, userID string) (MonthView, error) {
	return s.OpenMonth(ctx, userID, s.CurrentPeriod())
}

// OpenMonth returns the view for p, creating the record if needed.
func (s *FinanceService) OpenMonth(ctx context.Context, userID string, p core.Period) (MonthView, error) {
	if err := p.Validate(); err != nil {
		return MonthView{}, err
	}
	rec, err := s.store.GetOrCreateMonthlyRecord(ctx, userID, p)
	if err != nil {
		return MonthView{}, fmt.Errorf("get or create monthly record: %w", err)
	}
	return s.buildView(ctx, rec)
}

// Month returns the view for an existing record; storage.ErrNotFound when
// the user never opened that month.
func (s *FinanceService) Month(ctx context.Context, userID string, p core.Period) (MonthView, error) {
	rec, err := s.MonthlyRecord(ctx, userID, p)
	if err != nil {
		return MonthView{}, err
	}
	return s.buildView(ctx, rec)
}

// MonthByRecordID builds the view for recordID after checking ownership.
func (s *FinanceService) MonthByRecordID(ctx context.Context, userID, recordID string) (MonthView, error) {
	rec, err := s.ownedRecord(ctx, userID, recordID)
	if err != nil {
		return MonthView{}, err
	}
	return s.buildView(ctx, rec)
}

func (s *FinanceService) MonthlyRecord(ctx context.Context, userID string, p core.Period) (core.MonthlyRecord, error) {
	if err := p.Validate(); err != nil {
		return core.MonthlyRecord{}, err
	}
	return s.store.GetMonthlyRecord(ctx, userID, p)
}

func (s *FinanceService) ListMonthlyRecords(ctx context.Context, userID string) ([]core.MonthlyRecord, error) {
	return s.store.ListMonthlyRecords(ctx, userID)
}

// Summary evaluates the month p, or the current month when p is nil.
func (s *FinanceService) Summary(ctx context.Context, userID string, p *core.Period) (core.Summary, error) {
	var (
		view MonthView
		err  error
	)
	if p == nil {
		view, err = s.CurrentMonth(ctx, userID)
	} else {
		view, err = s.Month(ctx, userID, *p)
	}
	if err != nil {
		return core.Summary{}, err
	}
	return view.Summary, nil
}

func (s *FinanceService) buildView(ctx context.Context, rec core.MonthlyRecord) (MonthView, error) {
	txs, err := s.store.ListTransactions(ctx, rec.ID)
	if err != nil {
		return MonthView{}, fmt.Errorf("list transactions: %w", err)
	}
	assets, err := s.store.ListAssets(ctx, rec.ID)
	if err != nil {
		return MonthView{}, fmt.Errorf("list assets: %w", err)
	}

	summary := core.Summarize(txs)
	return MonthView{
		Record:       rec,
		Period:       rec.Period(),
		Transactions: txs,
		Groups:       groupByType(txs, summary.Totals),
		Assets:       assets,
		AssetsTotal:  core.SumAssets(assets),
		Summary:      summary,
	}, nil
}

// groupByType splits txs into one section per category type. Section totals
// come from the month's aggregate so page and API always agree.
func groupByType(txs []core.Transaction, totals core.Totals) []TransactionGroup {
	types := core.CategoryTypes()
	groups := make([]TransactionGroup, len(types))
	index := make(map[core.CategoryType]int, len(types))
	for i, ct := range types {
		groups[i] = TransactionGroup{Type: ct, Label: ct.Label(), Total: totals.ByType(ct)}
		index[ct] = i
	}
	for _, tx := range txs {
		i, ok := index[tx.Category.Type]
		if !ok {
			continue
		}
		groups[i].Transactions = append(groups[i].Transactions, tx)
	}
	return groups
}

// History lists every record of the user, newest first, with its totals.
func (s *FinanceService) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	records, err := s.store.ListMonthlyRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list monthly records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	txs, err := s.store.ListUserTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	assets, err := s.store.ListUserAssets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	txByRecord := make(map[string][]core.Transaction)
	for _, tx := range txs {
		txByRecord[tx.MonthlyRecordID] = append(txByRecord[tx.MonthlyRecordID], tx)
	}
	assetsByRecord := make(map[string][]core.Asset)
	for _, a := range assets {
		assetsByRecord[a.MonthlyRecordID] = append(assetsByRecord[a.MonthlyRecordID], a)
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		recTxs := txByRecord[rec.ID]
		recAssets := assetsByRecord[rec.ID]
		totals := core.Aggregate(recTxs)
		entries = append(entries, HistoryEntry{
			Record:           rec,
			Period:           rec.Period(),
			Totals:           totals,
			Balance:          totals.Balance(),
			HealthScore:      core.HealthScore(totals.Income, totals.Expenses),
			TransactionCount: len(recTxs),
			AssetCount:       len(recAssets),
			AssetsTotal:      core.SumAssets(recAssets),
		})
	}
	return entries, nil
}

// IsNotFound reports whether err means the requested entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

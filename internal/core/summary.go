package core

import "github.com/shopspring/decimal"

// Totals are the per-type sums of a month's transactions. They are derived
// from the live transaction list on every read and never stored.
type Totals struct {
	Income             decimal.Decimal `json:"totalIncome"`
	FixedExpenses      decimal.Decimal `json:"totalFixedExpenses"`
	VariableExpenses   decimal.Decimal `json:"totalVariableExpenses"`
	AdditionalExpenses decimal.Decimal `json:"totalAdditionalExpenses"`
	Expenses           decimal.Decimal `json:"totalExpenses"`
}

// Summary bundles the totals with the score and advice computed from them.
type Summary struct {
	Totals
	Balance     decimal.Decimal `json:"balance"`
	HealthScore int             `json:"healthScore"`
	Suggestions []string        `json:"suggestions"`
}

// Aggregate sums transaction amounts into buckets by category type.
// Transactions whose category type is not one of the four known types are
// left out of every bucket.
func Aggregate(txs []Transaction) Totals {
	t := Totals{
		Income:             decimal.Zero,
		FixedExpenses:      decimal.Zero,
		VariableExpenses:   decimal.Zero,
		AdditionalExpenses: decimal.Zero,
		Expenses:           decimal.Zero,
	}
	for _, tx := range txs {
		if tx.Category.Type.IsExpense() {
			t.Expenses = t.Expenses.Add(tx.Amount)
		}
		switch tx.Category.Type {
		case Income:
			t.Income = t.Income.Add(tx.Amount)
		case FixedExpense:
			t.FixedExpenses = t.FixedExpenses.Add(tx.Amount)
		case VariableExpense:
			t.VariableExpenses = t.VariableExpenses.Add(tx.Amount)
		case AdditionalExpense:
			t.AdditionalExpenses = t.AdditionalExpenses.Add(tx.Amount)
		}
	}
	return t
}

func (t Totals) Balance() decimal.Decimal {
	return t.Income.Sub(t.Expenses)
}

// ByType returns the bucket for a category type, zero for unknown types.
func (t Totals) ByType(ct CategoryType) decimal.Decimal {
	switch ct {
	case Income:
		return t.Income
	case FixedExpense:
		return t.FixedExpenses
	case VariableExpense:
		return t.VariableExpenses
	case AdditionalExpense:
		return t.AdditionalExpenses
	default:
		return decimal.Zero
	}
}

// IsEmpty reports whether nothing was recorded in any bucket.
func (t Totals) IsEmpty() bool {
	return t.Income.IsZero() && t.Expenses.IsZero()
}

// Summarize aggregates txs and evaluates the score and suggestions.
func Summarize(txs []Transaction) Summary {
	totals := Aggregate(txs)
	return Summary{
		Totals:      totals,
		Balance:     totals.Balance(),
		HealthScore: HealthScore(totals.Income, totals.Expenses),
		Suggestions: Suggestions(totals),
	}
}

// SumAssets totals asset values for display.
func SumAssets(assets []Asset) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range assets {
		sum = sum.Add(a.Value)
	}
	return sum
}

// percentOf returns part/whole*100, or zero when whole is not positive.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}

package core

import "github.com/shopspring/decimal"

const (
	MinHealthScore = 0
	MaxHealthScore = 100
)

// HealthScore maps a month's income and expenses to an integer in [0, 100].
//
// No income scores 0. Otherwise the score is the share of income left after
// expenses, as a percentage rounded half away from zero (50.5 -> 51,
// 49.5 -> 50) and clamped to the range.
func HealthScore(income, expenses decimal.Decimal) int {
	if income.IsZero() {
		return MinHealthScore
	}
	pct := income.Sub(expenses).Mul(hundred).Div(income).Round(0)
	switch {
	case pct.LessThan(decimal.NewFromInt(MinHealthScore)):
		return MinHealthScore
	case pct.GreaterThan(decimal.NewFromInt(MaxHealthScore)):
		return MaxHealthScore
	default:
		return int(pct.IntPart())
	}
}

// HealthLevel buckets a score for display.
func HealthLevel(score int) string {
	switch {
	case score >= 50:
		return "healthy"
	case score >= 20:
		return "fair"
	case score > 0:
		return "weak"
	default:
		return "critical"
	}
}

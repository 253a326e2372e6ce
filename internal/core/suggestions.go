package core

import "github.com/shopspring/decimal"

const (
	MsgHighExpenses     = "⚠️ Your expenses exceed 90% of your income. Consider reducing non-essential spending."
	MsgModerateExpenses = "💡 Your expenses are high relative to income. Look for ways to cut costs."
	MsgHighFixed        = "🏠 Fixed expenses are more than 50% of income. Consider renegotiating recurring bills."
	MsgHighVariable     = "🛒 Variable expenses are high. Track daily spending to identify savings opportunities."
	MsgExcellentSavings = "✅ Excellent! You're saving more than 20% of your income. Keep it up!"
	MsgGoodSavings      = "👍 Good savings rate! Consider increasing it to 20% for better financial security."
	MsgPositiveBalance  = "💪 You have a positive balance. Try to save at least 10% of your income."
	MsgOverspending     = "🚨 You're spending more than you earn. Focus on reducing expenses or increasing income."
	MsgRecordIncome     = "📝 Start by recording your income sources to track your financial health."
	MsgRecordExpenses   = "📊 Record your expenses to get a complete picture of your financial situation."
	MsgKeepTracking     = "📈 Keep tracking your finances to maintain good financial health!"
)

var (
	highExpenseRatio     = decimal.NewFromInt(90)
	moderateExpenseRatio = decimal.NewFromInt(80)
	fixedRatioLimit      = decimal.NewFromInt(50)
	variableRatioLimit   = decimal.NewFromInt(40)
	excellentSavingsRate = decimal.NewFromInt(20)
	goodSavingsRate      = decimal.NewFromInt(10)
)

// Suggestions evaluates the advisory rules against t in a fixed order and
// returns every message that applies. The result is never empty.
// Additional expenses count toward total expenses but have no rule of their own.
func Suggestions(t Totals) []string {
	var out []string

	expenseRatio := percentOf(t.Expenses, t.Income)
	switch {
	case expenseRatio.GreaterThan(highExpenseRatio):
		out = append(out, MsgHighExpenses)
	case expenseRatio.GreaterThan(moderateExpenseRatio):
		out = append(out, MsgModerateExpenses)
	}

	if percentOf(t.FixedExpenses, t.Income).GreaterThan(fixedRatioLimit) {
		out = append(out, MsgHighFixed)
	}
	if percentOf(t.VariableExpenses, t.Income).GreaterThan(variableRatioLimit) {
		out = append(out, MsgHighVariable)
	}

	if t.Income.GreaterThan(t.Expenses) {
		savings := percentOf(t.Income.Sub(t.Expenses), t.Income)
		switch {
		case savings.GreaterThanOrEqual(excellentSavingsRate):
			out = append(out, MsgExcellentSavings)
		case savings.GreaterThanOrEqual(goodSavingsRate):
			out = append(out, MsgGoodSavings)
		default:
			out = append(out, MsgPositiveBalance)
		}
	} else {
		out = append(out, MsgOverspending)
	}

	if t.Income.IsZero() {
		out = append(out, MsgRecordIncome)
	}
	if t.Expenses.IsZero() && t.Income.IsPositive() {
		out = append(out, MsgRecordExpenses)
	}

	if len(out) == 0 {
		return []string{MsgKeepTracking}
	}
	return out
}

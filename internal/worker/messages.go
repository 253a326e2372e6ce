package worker

import (
	"fmt"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/mail"
	"bilancio/internal/services"
)

// ReportMessage renders the monthly summary mail for a user.
func ReportMessage(u core.User, view services.MonthView) mail.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", u.Name)
	fmt.Fprintf(&b, "here is your summary for %s.\n\n", view.Period)
	writeTotals(&b, view)

	if len(view.Summary.Suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		for _, s := range view.Summary.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	b.WriteString("\nBilancio\n")

	return mail.Message{
		To:      u.Email,
		Subject: fmt.Sprintf("Your %s summary", view.Period),
		Body:    b.String(),
	}
}

// AlertMessage warns a user that a month's score fell below threshold.
func AlertMessage(u core.User, view services.MonthView, threshold int) mail.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", u.Name)
	fmt.Fprintf(&b, "your financial health score for %s dropped to %d/100, below your alert threshold of %d.\n\n",
		view.Period, view.Summary.HealthScore, threshold)
	writeTotals(&b, view)
	b.WriteString("\nBilancio\n")

	return mail.Message{
		To:      u.Email,
		Subject: fmt.Sprintf("Health score alert for %s", view.Period),
		Body:    b.String(),
	}
}

func writeTotals(b *strings.Builder, view services.MonthView) {
	s := view.Summary
	rows := []struct {
		label string
		value string
	}{
		{"Income", core.FormatEuros(s.Income)},
		{"Fixed expenses", core.FormatEuros(s.FixedExpenses)},
		{"Variable expenses", core.FormatEuros(s.VariableExpenses)},
		{"Additional expenses", core.FormatEuros(s.AdditionalExpenses)},
		{"Total expenses", core.FormatEuros(s.Expenses)},
		{"Balance", core.FormatEuros(s.Balance)},
		{"Assets", core.FormatEuros(view.AssetsTotal)},
		{"Health score", fmt.Sprintf("%d/100 (%s)", s.HealthScore, core.HealthLevel(s.HealthScore))},
	}
	for _, r := range rows {
		fmt.Fprintf(b, "%-20s %s\n", r.label+":", r.value)
	}
}

// Command bilancio-report prints a user's monthly history as a table.
//
//	bilancio-report -email ada@example.com [-months 12] [-markdown]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

func main() {
	email := flag.String("email", "", "user email (required)")
	months := flag.Int("months", 0, "only show the most recent N months (0 = all)")
	markdown := flag.Bool("markdown", false, "render a markdown table")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "bilancio-report: -email is required")
		flag.Usage()
		os.Exit(2)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg)
	defer res.Cleanup()
	finance := cli.NewFinanceService(logger, cfg, res)

	if err := run(ctx, os.Stdout, finance, *email, *months, *markdown); err != nil {
		logger.Error("Report failed", log.FieldError, err.Error(), "email", *email)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, finance *services.FinanceService, email string, months int, markdown bool) error {
	user, err := finance.UserByEmail(ctx, email)
	if err != nil {
		if services.IsNotFound(err) {
			return fmt.Errorf("no user with email %s", email)
		}
		return err
	}

	entries, err := finance.History(ctx, user.ID)
	if err != nil {
		return err
	}
	if months > 0 && len(entries) > months {
		entries = entries[:months]
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "No monthly records for %s.\n", user.Email)
		return nil
	}

	fmt.Fprintf(w, "History for %s <%s>\n\n", user.Name, user.Email)
	writeHistory(w, entries, markdown)
	return nil
}

// writeHistory renders entries newest first with a totals footer.
func writeHistory(w io.Writer, entries []services.HistoryEntry, markdown bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Month", "Income", "Expenses", "Balance", "Score", "Level"})
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
	})
	if markdown {
		table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
		table.SetCenterSeparator("|")
	}

	var income, expenses decimal.Decimal
	for _, e := range entries {
		table.Append([]string{
			e.Period.Key(),
			core.FormatEuros(e.Totals.Income),
			core.FormatEuros(e.Totals.Expenses),
			core.FormatEuros(e.Balance),
			strconv.Itoa(e.HealthScore),
			core.HealthLevel(e.HealthScore),
		})
		income = income.Add(e.Totals.Income)
		expenses = expenses.Add(e.Totals.Expenses)
	}

	if !markdown {
		table.SetFooter([]string{
			"Total",
			core.FormatEuros(income),
			core.FormatEuros(expenses),
			core.FormatEuros(income.Sub(expenses)),
			"", "",
		})
	}
	table.Render()
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Income, expenses and savings for the report month",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	return withLedger(func(lg *ledger.Store) error {
		txs := lg.Transactions()
		if len(txs) == 0 {
			fmt.Println("\n  No transactions yet.")
			fmt.Println("  Try: fintrack add expense 12.50 Food --desc lunch")
			return nil
		}
		month, err := reportMonth(lg.Today())
		if err != nil {
			return err
		}
		txs = pipeline.FilterByCategory(txs, flagCategory)

		cmp := model.PeriodComparison{
			Current:  pipeline.Aggregate(txs, month, month.EndOfMonth()),
			Previous: pipeline.Aggregate(txs, month.AddMonths(-1), month.AddDays(-1)),
		}
		stats := cmp.Current
		if stats.Transactions == 0 {
			fmt.Printf("\n  No transactions in %s.\n", cli.FormatMonth(month))
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("SUMMARY  " + cli.FormatMonth(month)))
		fmt.Println()

		rows := [][]string{
			{"Transactions", cli.FormatNumber(int64(stats.Transactions))},
			{"Active days", fmt.Sprintf("%d of %d", stats.ActiveDays, stats.Days)},
			{"From recurring", cli.FormatNumber(int64(stats.GeneratedCount))},
			{cli.SeparatorRow},
			{"Income", withDelta(stats.Income, cmp.Previous.Income)},
			{"Expenses", withDelta(stats.Expense, cmp.Previous.Expense)},
			{"Net", cli.ColorAmount(cli.FormatMoney(stats.Net), stats.Net)},
			{"Savings rate", cli.FormatPercent(stats.SavingsRate)},
			{cli.SeparatorRow},
			{"Spend/day", cli.FormatMoney(stats.ExpensePerDay)},
			{"Average expense", cli.FormatMoney(stats.AverageExpense)},
			{"Largest expense", cli.FormatMoney(stats.LargestExpense)},
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Metric", "Value"},
			Rows:    rows,
		}))

		if statuses := lg.BudgetStatus(lg.Today()); len(statuses) > 0 && month.Equal(lg.Today().StartOfMonth()) {
			limit, spent := pipeline.BudgetTotals(statuses)
			pct := 0.0
			if limit > 0 {
				pct = spent / limit * 100
			}
			fmt.Printf("\n  Budgets: %s of %s  %s\n",
				cli.FormatMoney(spent), cli.FormatMoney(limit),
				cli.RenderBudgetBar(&pct, appConfig.Budget.WarnPercent, 20))
		}
		return nil
	})
}

func withDelta(current, previous float64) string {
	s := cli.FormatMoney(current)
	if previous > 0 {
		s += cli.Muted(fmt.Sprintf("  (%s vs prev month)", cli.FormatDelta(current, previous)))
	}
	return s
}

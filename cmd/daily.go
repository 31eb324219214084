package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/pipeline"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Day-by-day totals for the report month",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	return withLedger(func(lg *ledger.Store) error {
		month, err := reportMonth(lg.Today())
		if err != nil {
			return err
		}
		until := month.EndOfMonth()
		if today := lg.Today(); today.Before(until) && !today.Before(month) {
			until = today
		}

		txs := pipeline.FilterByCategory(lg.Transactions(), flagCategory)
		days := pipeline.AggregateDays(txs, month, until)
		if len(days) == 0 {
			fmt.Println("\n  No data for the selected month.")
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("DAILY  " + cli.FormatMonth(month)))
		fmt.Println()

		weekStart := time.Monday
		if appConfig.General.WeekStart == "sunday" {
			weekStart = time.Sunday
		}

		rows := make([][]string, 0, len(days)+len(days)/7)
		spend := make([]float64, len(days))
		for i, d := range days {
			// days are newest first; the sparkline reads left to right.
			spend[len(days)-1-i] = d.Expense
			rows = append(rows, []string{
				d.Date.String(),
				cli.FormatDayOfWeek(d.Date.Weekday()),
				cli.FormatNumber(int64(d.Transactions)),
				cli.FormatMoney(d.Income),
				cli.FormatMoney(d.Expense),
				cli.ColorAmount(cli.FormatMoney(d.Net), d.Net),
			})
			// Newest first, so a week's first day closes its block.
			if d.Date.Weekday() == weekStart && i < len(days)-1 {
				rows = append(rows, []string{cli.SeparatorRow})
			}
		}

		fmt.Print(cli.RenderTable(cli.Table{
			Headers:  []string{"Date", "Day", "Count", "Income", "Expense", "Net"},
			Rows:     rows,
			LeftCols: 2,
		}))
		fmt.Printf("\n  Spending  %s\n", cli.RenderSparkline(spend))
		return nil
	})
}

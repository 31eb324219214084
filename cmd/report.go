package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/logging"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
	"github.com/theirongolddev/fintrack/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Monthly totals and tag spending from the SQLite mirror",
	RunE:  runReport,
}

var reportMonths int

func init() {
	reportCmd.Flags().IntVarP(&reportMonths, "months", "n", 12, "Number of months to include")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	lg, err := openLedger()
	if err != nil {
		return err
	}
	defer lg.Close()
	if lg.Dirty() {
		if err := lg.Save(); err != nil {
			return err
		}
	}

	month, err := reportMonth(lg.Today())
	if err != nil {
		return err
	}
	since := month.AddMonths(-(reportMonths - 1))
	if reportMonths <= 0 {
		since = calendar.Date{}
	}

	// The mirror answers with SQL; without it the same totals come from memory.
	m, err := openSyncedMirror(lg)
	var totals []model.MonthlyStats
	if err != nil {
		logging.Component(logger, "report").WithError(err).Warn("mirror unavailable, aggregating in memory")
		totals = pipeline.AggregateMonths(pipeline.FilterByTime(lg.Transactions(), since, calendar.Date{}))
	} else {
		defer func() { _ = m.Close() }()
		if totals, err = m.MonthlyTotals(since); err != nil {
			return err
		}
	}

	if len(totals) == 0 {
		fmt.Println("\n  No transactions to report.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("MONTHLY REPORT"))
	fmt.Println()

	rows := make([][]string, 0, len(totals)+2)
	var income, expense float64
	for _, t := range totals {
		if t.Month.After(month) {
			continue
		}
		income += t.Income
		expense += t.Expense
		rows = append(rows, []string{
			t.Month.Time(nil).Format("Jan 2006"),
			cli.FormatNumber(int64(t.Transactions)),
			cli.FormatMoney(t.Income),
			cli.FormatMoney(t.Expense),
			cli.ColorAmount(cli.FormatMoney(t.Net), t.Net),
		})
	}
	rows = append(rows, []string{cli.SeparatorRow})
	rows = append(rows, []string{"TOTAL", "", cli.FormatMoney(income), cli.FormatMoney(expense), cli.FormatMoney(income - expense)})
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Count", "Income", "Expense", "Net"},
		Rows:    rows,
	}))

	if m == nil {
		return nil
	}
	tags, err := m.TagTotals(month, month.EndOfMonth())
	if err != nil {
		return err
	}
	if len(tags) > 0 {
		fmt.Println()
		tagRows := make([][]string, 0, len(tags))
		for _, t := range tags {
			tagRows = append(tagRows, []string{t.Tag, cli.FormatNumber(int64(t.Transactions)), cli.FormatMoney(t.Expense)})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Spending by tag  " + cli.FormatMonth(month),
			Headers: []string{"Tag", "Count", "Expense"},
			Rows:    tagRows,
		}))
	}
	return nil
}

// openSyncedMirror opens the mirror and resyncs it so reports reflect the
// ledger on disk.
func openSyncedMirror(lg *ledger.Store) (*store.Mirror, error) {
	m, err := store.Open(ledger.MirrorPath())
	if err != nil {
		return nil, fmt.Errorf("opening mirror: %w", err)
	}
	txs := lg.Transactions()
	if err := m.SyncTransactions(txs); err != nil {
		_ = m.Close()
		return nil, err
	}
	if n, err := m.TransactionCount(); err == nil && n != len(txs) {
		_ = m.Close()
		return nil, fmt.Errorf("mirror holds %d transactions, ledger has %d", n, len(txs))
	}
	return m, nil
}

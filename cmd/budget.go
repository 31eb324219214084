package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/pipeline"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage monthly category budgets",
	RunE:  runBudgetStatus,
}

var budgetSetCmd = &cobra.Command{
	Use:   "set CATEGORY LIMIT",
	Short: "Set a monthly spending limit",
	Args:  cobra.ExactArgs(2),
	RunE:  runBudgetSet,
}

var budgetRmCmd = &cobra.Command{
	Use:   "rm CATEGORY",
	Short: "Remove a budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetRm,
}

var budgetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Month-to-date spending against each budget",
	RunE:  runBudgetStatus,
}

func init() {
	budgetCmd.AddCommand(budgetSetCmd, budgetRmCmd, budgetStatusCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetSet(_ *cobra.Command, args []string) error {
	limit, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	return withLedger(func(lg *ledger.Store) error {
		if err := lg.SetBudget(args[0], limit); err != nil {
			return err
		}
		fmt.Printf("  Budget for %s set to %s/month\n", args[0], cli.FormatMoney(limit))
		return nil
	})
}

func runBudgetRm(_ *cobra.Command, args []string) error {
	return withLedger(func(lg *ledger.Store) error {
		if err := lg.DeleteBudget(args[0]); err != nil {
			return err
		}
		fmt.Printf("  Removed budget for %s\n", args[0])
		return nil
	})
}

func runBudgetStatus(_ *cobra.Command, _ []string) error {
	return withLedger(func(lg *ledger.Store) error {
		month, err := reportMonth(lg.Today())
		if err != nil {
			return err
		}
		// A past month is reported as of its last day.
		asOf := lg.Today()
		if month.EndOfMonth().Before(asOf) {
			asOf = month.EndOfMonth()
		}

		statuses := lg.BudgetStatus(asOf)
		if len(statuses) == 0 {
			fmt.Println("\n  No budgets set. Try: fintrack budget set Food 400")
			return nil
		}

		warn := appConfig.Budget.WarnPercent
		fmt.Println()
		fmt.Println(cli.RenderTitle("BUDGETS  " + cli.FormatMonth(month)))
		fmt.Println()

		rows := make([][]string, 0, len(statuses)+2)
		for _, st := range statuses {
			if flagCategory != "" && !pipeline.MatchCategory(st.Category, flagCategory) {
				continue
			}
			remaining := cli.FormatMoney(st.Remaining)
			if st.Over() {
				remaining = cli.Warn(remaining)
			}
			rows = append(rows, []string{
				st.Category,
				cli.FormatMoney(st.Budget),
				cli.FormatMoney(st.Spent),
				remaining,
				cli.FormatBudgetPercent(st.Percentage),
				cli.RenderBudgetBar(st.Percentage, warn, 16),
			})
		}
		limit, spent := pipeline.BudgetTotals(statuses)
		rows = append(rows, []string{cli.SeparatorRow})
		rows = append(rows, []string{"TOTAL", cli.FormatMoney(limit), cli.FormatMoney(spent), cli.FormatMoney(limit - spent), "", ""})

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Category", "Budget", "Spent", "Remaining", "Used", ""},
			Rows:    rows,
		}))

		if over := pipeline.OverBudget(statuses, warn); len(over) > 0 {
			fmt.Println()
			for _, st := range over {
				fmt.Printf("  %s %s is at %s of its budget\n", cli.Warn("!"), st.Category, cli.FormatBudgetPercent(st.Percentage))
			}
		}
		return nil
	})
}

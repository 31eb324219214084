package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Spending and income by category for the report month",
	RunE:  runCategories,
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add income|expense NAME",
	Short: "Register a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runCategoriesAdd,
}

func init() {
	categoriesCmd.AddCommand(categoriesAddCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(_ *cobra.Command, _ []string) error {
	return withLedger(func(lg *ledger.Store) error {
		month, err := reportMonth(lg.Today())
		if err != nil {
			return err
		}
		txs := pipeline.FilterByTime(lg.Transactions(), month, month.EndOfMonth())
		txs = pipeline.FilterByCategory(txs, flagCategory)

		fmt.Println()
		fmt.Println(cli.RenderTitle("CATEGORIES  " + cli.FormatMonth(month)))
		fmt.Println()

		budgets := lg.Budgets()
		for _, t := range []model.TxType{model.Expense, model.Income} {
			cats := pipeline.AggregateCategories(txs, t, budgets)
			if len(cats) == 0 {
				continue
			}
			rows := make([][]string, 0, len(cats))
			for _, c := range cats {
				budget := "-"
				if c.Budget != nil {
					budget = cli.FormatMoney(*c.Budget)
				}
				rows = append(rows, []string{
					c.Category,
					cli.FormatNumber(int64(c.Transactions)),
					cli.FormatMoney(c.Amount),
					cli.FormatPercent(c.SharePercent),
					budget,
				})
			}
			title := "Expenses"
			if t == model.Income {
				title = "Income"
			}
			fmt.Print(cli.RenderTable(cli.Table{
				Title:   title,
				Headers: []string{"Category", "Count", "Amount", "Share", "Budget"},
				Rows:    rows,
			}))
			fmt.Println()

			if t == model.Expense {
				top := cats[0].Amount
				for _, c := range cats[:min(len(cats), 8)] {
					fmt.Println(cli.RenderHorizontalBar(truncate(c.Category, 14), 14, c.Amount, top, 30))
				}
				fmt.Println()
			}
		}

		known := lg.Categories()
		fmt.Printf("  Known expense categories: %s\n", cli.Muted(strings.Join(known.Expense, ", ")))
		fmt.Printf("  Known income categories:  %s\n", cli.Muted(strings.Join(known.Income, ", ")))
		return nil
	})
}

func runCategoriesAdd(_ *cobra.Command, args []string) error {
	return withLedger(func(lg *ledger.Store) error {
		added, err := lg.AddCategory(model.TxType(strings.ToLower(args[0])), args[1])
		if err != nil {
			return err
		}
		if !added {
			fmt.Printf("  %s is already a %s category\n", args[1], args[0])
			return nil
		}
		fmt.Printf("  Added %s category %s\n", args[0], args[1])
		return nil
	})
}

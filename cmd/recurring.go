package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/recurrence"
	"github.com/theirongolddev/fintrack/internal/store"
)

var recurringCmd = &cobra.Command{
	Use:     "recurring",
	Aliases: []string{"rec"},
	Short:   "Manage recurring transactions",
	RunE:    runRecurringList,
}

var recurringAddCmd = &cobra.Command{
	Use:   "add income|expense AMOUNT CATEGORY FREQUENCY",
	Short: "Create a recurring rule (daily, weekly, biweekly, monthly, quarterly, yearly)",
	Args:  cobra.ExactArgs(4),
	RunE:  runRecurringAdd,
}

var recurringListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recurring rules with their next occurrence",
	RunE:  runRecurringList,
}

var recurringRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a rule and every transaction it generated",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecurringRm,
}

var recurringNextCmd = &cobra.Command{
	Use:   "next ID",
	Short: "Show upcoming occurrences of a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecurringNext,
}

var recurringHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent regeneration passes",
	RunE:  runRecurringHistory,
}

var (
	recStart string
	recDesc  string
	recTags  []string
	recCount int
)

func init() {
	recurringAddCmd.Flags().StringVar(&recStart, "start", "", "First occurrence YYYY-MM-DD (default today)")
	recurringAddCmd.Flags().StringVar(&recDesc, "desc", "", "Description")
	recurringAddCmd.Flags().StringSliceVarP(&recTags, "tag", "t", nil, "Tag (repeatable)")
	recurringNextCmd.Flags().IntVarP(&recCount, "count", "n", 5, "Number of occurrences")
	recurringHistoryCmd.Flags().IntVarP(&recCount, "limit", "l", 10, "Number of passes")

	recurringCmd.AddCommand(recurringAddCmd, recurringListCmd, recurringRmCmd, recurringNextCmd, recurringHistoryCmd)
	rootCmd.AddCommand(recurringCmd)
}

func runRecurringAdd(_ *cobra.Command, args []string) error {
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	return withLedger(func(lg *ledger.Store) error {
		start, err := parseDateFlag("start", recStart, lg.Today())
		if err != nil {
			return err
		}
		r, err := lg.AddRule(model.RecurringRule{
			Type:        model.TxType(strings.ToLower(args[0])),
			Amount:      amount,
			Category:    args[2],
			Frequency:   model.Frequency(strings.ToLower(args[3])),
			StartDate:   start,
			Description: recDesc,
			Tags:        model.NewTagSet(recTags...),
		})
		if err != nil {
			return err
		}
		fmt.Printf("  Added %s %s %s in %s starting %s (id %s)\n",
			r.Frequency, r.Type, cli.FormatMoney(r.Amount), r.Category, r.StartDate, shortID(r.ID))

		// Materialize anything already due so the ledger is current on exit.
		if !flagNoRegen {
			if res := lg.Regenerate(lg.Today()); res.Generated > 0 {
				fmt.Printf("  Generated %d transaction(s) through %s\n", res.Generated, res.At)
			}
		}
		return nil
	})
}

func runRecurringList(_ *cobra.Command, _ []string) error {
	return withLedger(func(lg *ledger.Store) error {
		rules := lg.Rules()
		if len(rules) == 0 {
			fmt.Println("\n  No recurring rules. Try: fintrack recurring add expense 1200 Rent monthly")
			return nil
		}

		today := lg.Today()
		fmt.Println()
		fmt.Println(cli.RenderTitle("RECURRING"))
		fmt.Println()

		rows := make([][]string, 0, len(rules))
		for _, r := range rules {
			next := "-"
			if d, ok := recurrence.NextOccurrence(r.StartDate, r.Frequency, today); ok {
				next = fmt.Sprintf("%s (%s)", d, cli.FormatRelative(d, today))
			}
			last := "never"
			if !r.LastGenerated.IsZero() {
				last = r.LastGenerated.String()
			}
			rows = append(rows, []string{
				shortID(r.ID),
				truncate(r.Category, 14),
				truncate(r.Description, 20),
				string(r.Frequency),
				cli.FormatSigned(r.Amount, r.Type),
				last,
				next,
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers:  []string{"ID", "Category", "Description", "Every", "Amount", "Last run", "Next"},
			Rows:     rows,
			LeftCols: 4,
		}))
		return nil
	})
}

func resolveRuleID(lg *ledger.Store, prefix string) (model.ID, error) {
	return resolveID(prefix, "recurring rule", idsOf(lg.Rules(), func(r model.RecurringRule) model.ID { return r.ID }))
}

func runRecurringRm(_ *cobra.Command, args []string) error {
	return withLedger(func(lg *ledger.Store) error {
		id, err := resolveRuleID(lg, args[0])
		if err != nil {
			return err
		}
		removed, err := lg.DeleteRule(id)
		if err != nil {
			return err
		}
		fmt.Printf("  Deleted rule %s and %d generated transaction(s)\n", shortID(id), removed)
		return nil
	})
}

func runRecurringNext(_ *cobra.Command, args []string) error {
	if recCount < 0 {
		return fmt.Errorf("--count %d: %w", recCount, recurrence.ErrInvalidCount)
	}
	return withLedger(func(lg *ledger.Store) error {
		id, err := resolveRuleID(lg, args[0])
		if err != nil {
			return err
		}
		var rule model.RecurringRule
		for _, r := range lg.Rules() {
			if r.ID == id {
				rule = r
			}
		}
		today := lg.Today()
		dates, err := recurrence.Upcoming(rule, today, recCount)
		if err != nil {
			return err
		}
		fmt.Printf("\n  Next %d for %s %s (%s):\n", len(dates), rule.Category, cli.FormatMoney(rule.Amount), rule.Frequency)
		for _, d := range dates {
			fmt.Printf("    %s  %s  %s\n", d, cli.FormatDayOfWeek(d.Weekday()), cli.Muted(cli.FormatRelative(d, today)))
		}
		return nil
	})
}

func runRecurringHistory(_ *cobra.Command, _ []string) error {
	m, err := store.Open(ledger.MirrorPath())
	if err != nil {
		return fmt.Errorf("opening mirror: %w", err)
	}
	defer func() { _ = m.Close() }()

	runs, err := m.RecentRuns(recCount)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("\n  No regeneration passes recorded yet. Run: fintrack regenerate")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("REGENERATION HISTORY"))
	fmt.Println()

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.RanAt.Local().Format("2006-01-02 15:04"),
			r.Source,
			r.AsOf.String(),
			cli.FormatNumber(int64(r.RulesProcessed)),
			cli.FormatNumber(int64(r.RulesFailed)),
			cli.FormatNumber(int64(r.Generated)),
			elapsed(r.Duration),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Ran", "Source", "As of", "Rules", "Failed", "Generated", "Took"},
		Rows:     rows,
		LeftCols: 3,
	}))
	return nil
}

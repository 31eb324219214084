package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/model"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage savings, spending and debt goals",
	RunE:  runGoalList,
}

var goalAddCmd = &cobra.Command{
	Use:   "add savings|spending_reduction|debt_payment TARGET",
	Short: "Create a goal",
	Args:  cobra.ExactArgs(2),
	RunE:  runGoalAdd,
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show progress for every goal",
	RunE:  runGoalList,
}

var goalRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalRm,
}

var (
	goalStart    string
	goalDeadline string
	goalDesc     string
	goalCategory string
)

func init() {
	goalAddCmd.Flags().StringVar(&goalStart, "start", "", "Start date YYYY-MM-DD (default today)")
	goalAddCmd.Flags().StringVar(&goalDeadline, "by", "", "Target date YYYY-MM-DD (required)")
	goalAddCmd.Flags().StringVar(&goalDesc, "desc", "", "Description")
	goalAddCmd.Flags().StringVar(&goalCategory, "for", "", "Category paid toward (debt_payment)")
	_ = goalAddCmd.MarkFlagRequired("by")

	goalCmd.AddCommand(goalAddCmd, goalListCmd, goalRmCmd)
	rootCmd.AddCommand(goalCmd)
}

func runGoalAdd(_ *cobra.Command, args []string) error {
	target, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	deadline, err := calendar.Parse(goalDeadline)
	if err != nil {
		return fmt.Errorf("--by: %w", err)
	}
	return withLedger(func(lg *ledger.Store) error {
		start, err := parseDateFlag("start", goalStart, lg.Today())
		if err != nil {
			return err
		}
		g, err := lg.AddGoal(model.Goal{
			Type:         model.GoalType(strings.ToLower(args[0])),
			Category:     goalCategory,
			TargetAmount: target,
			StartDate:    start,
			TargetDate:   deadline,
			Description:  goalDesc,
		})
		if err != nil {
			return err
		}
		fmt.Printf("  Added %s goal of %s by %s (id %s)\n",
			g.Type, cli.FormatMoney(g.TargetAmount), g.TargetDate, shortID(g.ID))
		return nil
	})
}

func runGoalList(_ *cobra.Command, _ []string) error {
	return withLedger(func(lg *ledger.Store) error {
		reports := lg.GoalReports()
		if len(reports) == 0 {
			fmt.Println("\n  No goals yet. Try: fintrack goal add savings 1000 --by 2025-12-31")
			return nil
		}

		today := lg.Today()
		fmt.Println()
		fmt.Println(cli.RenderTitle("GOALS"))
		fmt.Println()

		rows := make([][]string, 0, len(reports))
		for _, r := range reports {
			due := cli.FormatRelative(r.Goal.TargetDate, today)
			if r.Progress.IsCompleted {
				due = "done"
			}
			rows = append(rows, []string{
				shortID(r.Goal.ID),
				truncate(goalLabel(r.Goal), 28),
				cli.FormatMoney(r.Goal.TargetAmount),
				cli.FormatMoney(r.Progress.Current),
				cli.RenderProgressBar(r.Progress.Percentage, 12),
				due,
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers:  []string{"ID", "Goal", "Target", "Current", "Progress", "Due"},
			Rows:     rows,
			LeftCols: 2,
		}))
		return nil
	})
}

func goalLabel(g model.Goal) string {
	label := g.Description
	if label == "" {
		label = string(g.Type)
	}
	if g.Category != "" {
		label += " (" + g.Category + ")"
	}
	return label
}

func runGoalRm(_ *cobra.Command, args []string) error {
	return withLedger(func(lg *ledger.Store) error {
		id, err := resolveID(args[0], "goal", idsOf(lg.Goals(), func(g model.Goal) model.ID { return g.ID }))
		if err != nil {
			return err
		}
		if err := lg.DeleteGoal(id); err != nil {
			return err
		}
		fmt.Printf("  Deleted goal %s\n", shortID(id))
		return nil
	})
}

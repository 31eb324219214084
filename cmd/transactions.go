package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
)

var addCmd = &cobra.Command{
	Use:   "add income|expense AMOUNT CATEGORY",
	Short: "Record a transaction",
	Args:  cobra.ExactArgs(3),
	RunE:  runAdd,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List transactions for the report month",
	RunE:    runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Add or remove transaction tags",
}

var tagAddCmd = &cobra.Command{
	Use:   "add ID TAG",
	Short: "Tag a transaction",
	Args:  cobra.ExactArgs(2),
	RunE:  func(_ *cobra.Command, args []string) error { return runTag(args, true) },
}

var tagRmCmd = &cobra.Command{
	Use:   "rm ID TAG",
	Short: "Remove a tag from a transaction",
	Args:  cobra.ExactArgs(2),
	RunE:  func(_ *cobra.Command, args []string) error { return runTag(args, false) },
}

var (
	addDate string
	addDesc string
	addTags []string

	listType  string
	listTag   string
	listLimit int
	listAll   bool
)

func init() {
	addCmd.Flags().StringVar(&addDate, "date", "", "Transaction date YYYY-MM-DD (default today)")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "Description")
	addCmd.Flags().StringSliceVarP(&addTags, "tag", "t", nil, "Tag (repeatable)")

	listCmd.Flags().StringVar(&listType, "type", "", "Filter to income or expense")
	listCmd.Flags().StringVar(&listTag, "tag", "", "Filter to tag")
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 50, "Number of transactions to show")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Ignore the report month")

	tagCmd.AddCommand(tagAddCmd, tagRmCmd)
	rootCmd.AddCommand(addCmd, listCmd, deleteCmd, tagCmd)
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, cli.Currency), 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, model.ErrInvalidAmount)
	}
	return v, nil
}

func runAdd(_ *cobra.Command, args []string) error {
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	return withLedger(func(lg *ledger.Store) error {
		date, err := parseDateFlag("date", addDate, lg.Today())
		if err != nil {
			return err
		}
		tx, err := lg.AddTransaction(model.Transaction{
			Type:        model.TxType(strings.ToLower(args[0])),
			Amount:      amount,
			Category:    args[2],
			Date:        date,
			Description: addDesc,
			Tags:        model.NewTagSet(addTags...),
		})
		if err != nil {
			return err
		}
		fmt.Printf("  Added %s %s in %s on %s (id %s)\n",
			tx.Type, cli.FormatMoney(tx.Amount), tx.Category, tx.Date, shortID(tx.ID))
		return nil
	})
}

func runList(_ *cobra.Command, _ []string) error {
	return withLedger(func(lg *ledger.Store) error {
		txs := lg.Transactions()
		title := "TRANSACTIONS  All time"
		if !listAll {
			month, err := reportMonth(lg.Today())
			if err != nil {
				return err
			}
			txs = pipeline.FilterByTime(txs, month, month.EndOfMonth())
			title = "TRANSACTIONS  " + cli.FormatMonth(month)
		}
		if flagCategory != "" {
			txs = pipeline.FilterByCategory(txs, flagCategory)
		}
		if listType != "" {
			t := model.TxType(strings.ToLower(listType))
			if !t.Valid() {
				return fmt.Errorf("--type %q: %w", listType, model.ErrInvalidType)
			}
			txs = pipeline.FilterByType(txs, t)
		}
		if listTag != "" {
			txs = pipeline.FilterByTag(txs, listTag)
		}

		if len(txs) == 0 {
			fmt.Println("\n  No transactions found.")
			return nil
		}

		pipeline.SortByDate(txs)
		total := len(txs)
		if listLimit > 0 && len(txs) > listLimit {
			txs = txs[:listLimit]
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("%s (showing %d of %d)", title, len(txs), total)))
		fmt.Println()

		rows := make([][]string, 0, len(txs))
		for _, tx := range txs {
			desc := tx.Description
			if tx.IsGenerated() {
				desc += " ↻"
			}
			rows = append(rows, []string{
				shortID(tx.ID),
				tx.Date.String(),
				truncate(tx.Category, 16),
				truncate(desc, 24),
				truncate(tx.Tags.String(), 18),
				cli.FormatSigned(tx.Amount, tx.Type),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers:  []string{"ID", "Date", "Category", "Description", "Tags", "Amount"},
			Rows:     rows,
			LeftCols: 5,
		}))
		return nil
	})
}

func runDelete(_ *cobra.Command, args []string) error {
	return withLedger(func(lg *ledger.Store) error {
		id, err := resolveTxID(lg, args[0])
		if err != nil {
			return err
		}
		if err := lg.DeleteTransaction(id); err != nil {
			return err
		}
		fmt.Printf("  Deleted transaction %s\n", shortID(id))
		return nil
	})
}

func runTag(args []string, add bool) error {
	return withLedger(func(lg *ledger.Store) error {
		id, err := resolveTxID(lg, args[0])
		if err != nil {
			return err
		}
		tag := args[1]
		if add {
			changed, err := lg.AddTag(id, tag)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Printf("  %s already tagged %q\n", shortID(id), tag)
				return nil
			}
			fmt.Printf("  Tagged %s with %q\n", shortID(id), tag)
			return nil
		}
		changed, err := lg.RemoveTag(id, tag)
		if err != nil {
			return err
		}
		if !changed {
			fmt.Printf("  %s has no tag %q\n", shortID(id), tag)
			return nil
		}
		fmt.Printf("  Removed %q from %s\n", tag, shortID(id))
		return nil
	})
}

// resolveTxID accepts a full id or a unique prefix of one.
func resolveTxID(lg *ledger.Store, prefix string) (model.ID, error) {
	return resolveID(prefix, "transaction", idsOf(lg.Transactions(), func(t model.Transaction) model.ID { return t.ID }))
}

func resolveID(prefix, kind string, ids []model.ID) (model.ID, error) {
	var matches []model.ID
	for _, id := range ids {
		if id == model.ID(prefix) {
			return id, nil
		}
		if strings.HasPrefix(string(id), prefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s %q: %w", kind, prefix, ledger.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		slices.Sort(matches)
		return "", fmt.Errorf("%s id %q is ambiguous (%d matches)", kind, prefix, len(matches))
	}
}

func idsOf[T any](items []T, id func(T) model.ID) []model.ID {
	out := make([]model.ID, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func shortID(id model.ID) string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

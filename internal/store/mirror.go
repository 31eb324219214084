// Package store keeps a SQLite mirror of the ledger for SQL reporting and a
// history of regeneration passes.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Mirror is a SQLite copy of the ledger's transactions.
type Mirror struct {
	db *sql.DB
}

const pragmas = "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"

// Open opens or creates the mirror database at dbPath and applies migrations.
func Open(dbPath string) (*Mirror, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	dsn := dbPath + pragmas
	if err := runMigrations(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mirror db: %w", err)
	}
	return &Mirror{db: db}, nil
}

// Close closes the mirror database.
func (m *Mirror) Close() error {
	return m.db.Close()
}

// SyncTransactions replaces the mirrored transactions with txs in one SQL
// transaction.
func (m *Mirror) SyncTransactions(txs []model.Transaction) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// transaction_tags cascades.
	if _, err := tx.Exec("DELETE FROM transactions"); err != nil {
		return fmt.Errorf("clearing mirror: %w", err)
	}

	insertTx, err := tx.Prepare(`INSERT INTO transactions
		(id, type, category, amount, date, description, recurring_id, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = insertTx.Close() }()

	insertTag, err := tx.Prepare("INSERT INTO transaction_tags (transaction_id, tag) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = insertTag.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, t := range txs {
		var recurringID sql.NullString
		if t.RecurringID != "" {
			recurringID = sql.NullString{String: string(t.RecurringID), Valid: true}
		}
		_, err := insertTx.Exec(string(t.ID), string(t.Type), t.Category, t.Amount,
			t.Date.String(), t.Description, recurringID, now)
		if err != nil {
			return fmt.Errorf("mirroring transaction %s: %w", t.ID, err)
		}
		for _, tag := range t.Tags.Slice() {
			if _, err := insertTag.Exec(string(t.ID), tag); err != nil {
				return fmt.Errorf("mirroring tag %q: %w", tag, err)
			}
		}
	}

	return tx.Commit()
}

// TransactionCount returns the number of mirrored transactions.
func (m *Mirror) TransactionCount() (int, error) {
	var count int
	err := m.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count)
	return count, err
}

// MonthlyTotals groups mirrored transactions dated on or after since by
// calendar month, newest first. A zero since includes everything.
func (m *Mirror) MonthlyTotals(since calendar.Date) ([]model.MonthlyStats, error) {
	rows, err := m.db.Query(`SELECT
		substr(date, 1, 7) AS month,
		COUNT(*),
		COALESCE(SUM(CASE WHEN type = 'income' THEN amount END), 0),
		COALESCE(SUM(CASE WHEN type = 'expense' THEN amount END), 0)
		FROM transactions
		WHERE date >= ?
		GROUP BY month
		ORDER BY month DESC`, since.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.MonthlyStats
	for rows.Next() {
		var month string
		var ms model.MonthlyStats
		if err := rows.Scan(&month, &ms.Transactions, &ms.Income, &ms.Expense); err != nil {
			return nil, err
		}
		first, err := calendar.Parse(month + "-01")
		if err != nil {
			return nil, err
		}
		ms.Month = first
		ms.Net = ms.Income - ms.Expense
		out = append(out, ms)
	}
	return out, rows.Err()
}

// TagTotal is the expense total for one tag.
type TagTotal struct {
	Tag          string
	Transactions int
	Expense      float64
}

// TagTotals sums expenses per tag for transactions dated within [since, until].
func (m *Mirror) TagTotals(since, until calendar.Date) ([]TagTotal, error) {
	rows, err := m.db.Query(`SELECT tg.tag, COUNT(*), COALESCE(SUM(t.amount), 0)
		FROM transaction_tags tg
		JOIN transactions t ON t.id = tg.transaction_id
		WHERE t.type = 'expense' AND t.date >= ? AND t.date <= ?
		GROUP BY tg.tag
		ORDER BY 3 DESC, tg.tag`, since.String(), until.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []TagTotal
	for rows.Next() {
		var tt TagTotal
		if err := rows.Scan(&tt.Tag, &tt.Transactions, &tt.Expense); err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}

// Run is one recorded regeneration pass.
type Run struct {
	RanAt          time.Time
	AsOf           calendar.Date
	Source         string // "cli", "daemon", "tui"
	RulesProcessed int
	RulesFailed    int
	Generated      int
	Duration       time.Duration
}

// RecordRun appends a regeneration pass to the history.
func (m *Mirror) RecordRun(r Run) error {
	_, err := m.db.Exec(`INSERT INTO regen_runs
		(ran_at, as_of, source, rules_processed, rules_failed, generated, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RanAt.UTC().Format(time.RFC3339Nano), r.AsOf.String(), r.Source,
		r.RulesProcessed, r.RulesFailed, r.Generated, r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (m *Mirror) RecentRuns(limit int) ([]Run, error) {
	rows, err := m.db.Query(`SELECT ran_at, as_of, source, rules_processed, rules_failed, generated, duration_ms
		FROM regen_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var r Run
		var ranAt, asOf string
		var durMs int64
		if err := rows.Scan(&ranAt, &asOf, &r.Source, &r.RulesProcessed, &r.RulesFailed, &r.Generated, &durMs); err != nil {
			return nil, err
		}
		r.RanAt, _ = time.Parse(time.RFC3339Nano, ranAt)
		r.AsOf, _ = calendar.Parse(asOf)
		r.Duration = time.Duration(durMs) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

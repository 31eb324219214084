package pipeline

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/recurrence"
)

// RuleResult holds the outcome of materializing one rule.
type RuleResult struct {
	Rule         model.RecurringRule
	Transactions []model.Transaction
	Err          error
}

// ProgressFunc is called as rules finish.
// current is the number of rules processed so far, total is the total count.
type ProgressFunc func(current, total int)

// GenerateAll runs GenerateDueTransactions for every rule on a bounded worker
// pool. Results come back in input order so callers append deterministically.
// workers <= 0 means GOMAXPROCS.
func GenerateAll(rules []model.RecurringRule, asOf calendar.Date, workers int, progressFn ProgressFunc) []RuleResult {
	results := make([]RuleResult, len(rules))
	if len(rules) == 0 {
		return results
	}

	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(rules) {
		numWorkers = len(rules)
	}

	work := make(chan int, len(rules))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range rules {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				txs, err := recurrence.GenerateDueTransactions(rules[idx], asOf)
				results[idx] = RuleResult{Rule: rules[idx], Transactions: txs, Err: err}
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(rules))
				}
			}
		}()
	}

	wg.Wait()
	return results
}

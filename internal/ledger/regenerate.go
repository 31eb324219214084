package ledger

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
)

// RuleError records a rule the regeneration pass had to skip.
type RuleError struct {
	RuleID model.ID
	Err    error
}

func (e RuleError) Error() string {
	return "rule " + string(e.RuleID) + ": " + e.Err.Error()
}

func (e RuleError) Unwrap() error { return e.Err }

// RegenResult summarizes one regeneration pass.
type RegenResult struct {
	At             calendar.Date
	RulesProcessed int
	RulesSkipped   int // start date still in the future
	Generated      int
	Transactions   []model.Transaction
	Failed         []RuleError
	Duration       time.Duration
}

// Regenerate materializes every recurring occurrence due by now. Rules
// starting after now are skipped. Each processed rule's LastGenerated is
// advanced to now, so a second pass with the same now appends nothing. A rule
// that cannot be generated is logged and left untouched; it never blocks the
// others.
func (s *Store) Regenerate(now calendar.Date) RegenResult {
	started := time.Now()
	res := RegenResult{At: now}

	s.mu.Lock()
	defer s.mu.Unlock()

	var due []model.RecurringRule
	for _, r := range s.doc.Rules {
		if r.StartDate.After(now) {
			res.RulesSkipped++
			continue
		}
		due = append(due, r)
	}

	results := pipeline.GenerateAll(due, now, s.workers, nil)
	for _, rr := range results {
		if rr.Err != nil {
			s.log.WithFields(logrus.Fields{
				"rule_id":   rr.Rule.ID,
				"frequency": rr.Rule.Frequency,
				"error":     rr.Err,
			}).Warn("skipping recurring rule")
			res.Failed = append(res.Failed, RuleError{RuleID: rr.Rule.ID, Err: rr.Err})
			continue
		}
		res.RulesProcessed++
		res.Generated += len(rr.Transactions)
		for _, tx := range rr.Transactions {
			res.Transactions = append(res.Transactions, tx.Clone())
		}
		s.doc.Transactions = append(s.doc.Transactions, rr.Transactions...)

		// Never move the marker backwards, or a clock change would replay occurrences.
		if i := s.ruleIndex(rr.Rule.ID); i >= 0 && now.After(s.doc.Rules[i].LastGenerated) {
			s.doc.Rules[i].LastGenerated = now
			s.touch()
		}
	}
	if res.Generated > 0 {
		s.touch()
	}

	res.Duration = time.Since(started)
	s.log.WithFields(logrus.Fields{
		"as_of":     now.String(),
		"processed": res.RulesProcessed,
		"generated": res.Generated,
		"failed":    len(res.Failed),
	}).Debug("regeneration pass")
	return res
}

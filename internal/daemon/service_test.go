package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/logging"
	"github.com/theirongolddev/fintrack/internal/model"
)

func testLedger(t *testing.T) *ledger.Store {
	t.Helper()
	doc := ledger.DefaultDocument()
	doc.Rules = []model.RecurringRule{
		{
			ID: "r1", Type: model.Expense, Category: "Food", Amount: 90,
			Description: "Groceries", Frequency: model.Monthly, StartDate: calendar.MustParse("2024-03-01"),
		},
		{
			ID: "r2", Type: model.Expense, Category: "Loan", Amount: 100,
			Description: "Car loan", Frequency: model.Monthly, StartDate: calendar.MustParse("2024-03-01"),
		},
	}
	doc.Budgets["Food"] = 100
	doc.Goals = []model.Goal{{
		ID: "g1", Type: model.DebtPayment, Category: "Loan", TargetAmount: 100,
		StartDate: calendar.MustParse("2024-03-01"), TargetDate: calendar.MustParse("2024-12-31"),
		Description: "Pay 100 toward the loan",
	}}
	lg := ledger.New(doc, ledger.Options{Logger: logging.Discard()})
	t.Cleanup(lg.Close)
	return lg
}

func newTestService(t *testing.T, at time.Time) *Service {
	t.Helper()
	s := New(Config{EventsBuffer: 50}, testLedger(t), nil, logging.Discard())
	s.now = func() time.Time { return at }
	return s
}

func eventTypes(s *Service) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func TestRunOnceEmitsEdgeTriggeredEvents(t *testing.T) {
	s := newTestService(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	s.RunOnce()
	got := eventTypes(s)
	want := []string{EventSnapshot, EventRegenerated, EventBudgetWarning, EventGoalCompleted}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	// Same day again: nothing new is generated and nothing re-fires.
	s.RunOnce()
	if n := len(eventTypes(s)); n != 4 {
		t.Fatalf("second pass published %d new events, want 0", n-4)
	}

	// A month later the rules fire again; the warning and goal stay quiet.
	s.now = func() time.Time { return time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC) }
	s.RunOnce()
	got = eventTypes(s)
	if len(got) != 5 || got[4] != EventRegenerated {
		t.Fatalf("events after April pass = %v", got)
	}

	st := s.snapshotStatus()
	if st.RunCount != 3 {
		t.Fatalf("RunCount = %d, want 3", st.RunCount)
	}
	if st.Summary.Transactions != 4 {
		t.Fatalf("Transactions = %d, want 4", st.Summary.Transactions)
	}
	if st.LastRun == nil || st.LastRun.Generated != 2 {
		t.Fatalf("LastRun = %+v, want 2 generated", st.LastRun)
	}
	if !st.NextRunAt.Equal(st.LastRunAt.Add(DefaultInterval)) {
		t.Fatalf("NextRunAt = %v, want LastRunAt + interval", st.NextRunAt)
	}
}

func TestRunOnceReportsFailedRule(t *testing.T) {
	lg := testLedger(t)
	doc := lg.Document()
	doc.Rules = append(doc.Rules, model.RecurringRule{
		ID: "bad", Type: model.Expense, Category: "Misc", Amount: 1,
		Frequency: "fortnightly", StartDate: calendar.MustParse("2024-03-01"),
	})
	lg = ledger.New(doc, ledger.Options{Logger: logging.Discard()})
	t.Cleanup(lg.Close)

	s := New(Config{}, lg, nil, logging.Discard())
	s.now = func() time.Time { return time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC) }
	s.RunOnce()

	s.mu.RLock()
	defer s.mu.RUnlock()
	var failed *Event
	for i := range s.events {
		if s.events[i].Type == EventRuleFailed {
			failed = &s.events[i]
		}
	}
	if failed == nil {
		t.Fatal("no rule_failed event")
	}
	if failed.RuleID != "bad" || failed.Error == "" {
		t.Fatalf("rule_failed event = %+v", failed)
	}
	if s.lastRun.Generated != 2 {
		t.Fatalf("good rules generated %d, want 2", s.lastRun.Generated)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2}, testLedger(t), nil, logging.Discard())

	s.publishEvent(Event{Type: "a"})
	s.publishEvent(Event{Type: "b"})
	s.publishEvent(Event{Type: "c"})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestClientReadsStatus(t *testing.T) {
	s := newTestService(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	s.RunOnce()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.RunCount != 1 {
		t.Fatalf("RunCount = %d, want 1", st.RunCount)
	}
	if len(st.Summary.Budgets) != 1 || st.Summary.Budgets[0].Percentage == nil {
		t.Fatalf("budgets = %+v", st.Summary.Budgets)
	}
	if got := *st.Summary.Budgets[0].Percentage; got != 90 {
		t.Fatalf("Food percentage = %v, want 90", got)
	}

	events, err := c.Events(context.Background())
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4", len(events))
	}
}

func TestClientErrors(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()

	if _, err := NewClient(bad.URL).Status(context.Background()); !errors.Is(err, ErrBadResponse) {
		t.Fatalf("500 error = %v, want ErrBadResponse", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	if _, err := NewClient(addr).Status(context.Background()); !errors.Is(err, ErrDaemonUnavailable) {
		t.Fatalf("closed port error = %v, want ErrDaemonUnavailable", err)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	s := newTestService(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	c := NewClient(ln.Addr().String())
	deadline := time.Now().Add(3 * time.Second)
	for {
		st, err := c.Status(context.Background())
		if err == nil && st.RunCount > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("daemon never completed its first pass (last error %v)", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestRunOnceKeepsChangesMadeBetweenTicks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	opts := ledger.Options{Logger: logging.Discard()}

	seed, err := ledger.Open(path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := seed.AddRule(model.RecurringRule{
		Type: model.Expense, Category: "Rent", Amount: 900, Description: "Rent",
		Frequency: model.Monthly, StartDate: calendar.MustParse("2024-03-01"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := seed.Save(); err != nil {
		t.Fatal(err)
	}
	seed.Close()

	lg, err := ledger.Open(path, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(lg.Close)
	s := New(Config{}, lg, nil, logging.Discard())
	s.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	s.RunOnce()

	// Another process adds a transaction and a budget between ticks.
	other, err := ledger.Open(path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.AddTransaction(model.Transaction{
		Type: model.Expense, Category: "Groceries", Amount: 42, Date: calendar.MustParse("2024-03-15"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := other.SetBudget("Groceries", 200); err != nil {
		t.Fatal(err)
	}
	if err := other.Save(); err != nil {
		t.Fatal(err)
	}
	other.Close()

	s.now = func() time.Time { return time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC) }
	s.RunOnce()

	onDisk, err := ledger.Open(path, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer onDisk.Close()

	var groceries, rent int
	for _, tx := range onDisk.Transactions() {
		switch tx.Category {
		case "Groceries":
			groceries++
		case "Rent":
			rent++
		}
	}
	if groceries != 1 || rent != 1 {
		t.Fatalf("on disk after tick: %d groceries, %d rent, want 1 and 1", groceries, rent)
	}
	if onDisk.Budgets()["Groceries"] != 200 {
		t.Fatalf("budgets on disk = %v, want Groceries 200", onDisk.Budgets())
	}

	st := s.snapshotStatus()
	if st.Summary.Transactions != 2 {
		t.Fatalf("status reports %d transactions, want 2", st.Summary.Transactions)
	}
	if st.LastError != "" {
		t.Fatalf("LastError = %q", st.LastError)
	}
}

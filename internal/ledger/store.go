// Package ledger owns the fintrack document: loading and saving it,
// validated mutations, the recurring regeneration pass, and JSON
// import/export.
package ledger

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/logging"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
)

var (
	ErrNotFound = errors.New("not found")
	ErrNoPath   = errors.New("ledger has no file path")
	// ErrConflict means the file changed on disk since it was loaded.
	ErrConflict = errors.New("ledger changed on disk since it was loaded")
)

// Options configures a Store.
type Options struct {
	Logger logrus.FieldLogger

	// Regenerate runs the recurring regeneration pass right after loading.
	Regenerate bool

	// Today returns the current date. Defaults to calendar.Today(time.Local).
	Today func() calendar.Date

	// Workers bounds regeneration parallelism. Zero means GOMAXPROCS.
	Workers int
}

// Store holds one ledger document in memory. It is safe for concurrent use;
// mutations are applied in call order.
type Store struct {
	path  string
	log   *logrus.Entry
	today func() calendar.Date

	workers int

	mu       sync.RWMutex
	doc      Document
	revision uint64
	dirty    bool
	disk     fileStamp // the file as last read or written

	cache *reportCache
}

// New returns a store over doc that is not backed by a file.
func New(doc Document, opts Options) *Store {
	s := &Store{
		log:     logging.Component(opts.Logger, "ledger"),
		today:   opts.Today,
		workers: opts.Workers,
		doc:     doc.normalized(),
	}
	if s.today == nil {
		s.today = func() calendar.Date { return calendar.Today(time.Local) }
	}
	cache, err := newReportCache()
	if err != nil {
		s.log.WithError(err).Warn("report cache disabled")
	} else {
		s.cache = cache
	}
	return s
}

// Open loads the ledger at path. A missing file yields the default document.
// A file that cannot be parsed is moved aside to <path>.corrupt and the
// default document is used instead.
func Open(path string, opts Options) (*Store, error) {
	log := logging.Component(opts.Logger, "ledger")

	doc, stamp, err := readDocument(path)
	switch {
	case errors.Is(err, errUnparseable):
		log.WithError(err).WithField("path", path).Warn("ledger unreadable, starting from defaults")
		if rerr := os.Rename(path, path+".corrupt"); rerr != nil {
			log.WithError(rerr).Warn("could not move unreadable ledger aside")
		}
		doc, stamp = DefaultDocument(), fileStamp{}
	case err != nil:
		return nil, err
	case !stamp.exists:
		log.WithField("path", path).Debug("no ledger file, starting empty")
	}

	s := New(doc, opts)
	s.path = path
	s.disk = stamp

	if opts.Regenerate {
		res := s.Regenerate(s.today())
		if res.Generated > 0 {
			s.log.WithField("generated", res.Generated).Info("materialized recurring transactions")
		}
	}
	return s, nil
}

var errUnparseable = errors.New("ledger unparseable")

// fileStamp identifies one version of the ledger file.
type fileStamp struct {
	exists bool
	size   int64
	mod    time.Time
}

func (f fileStamp) same(o fileStamp) bool {
	return f.exists == o.exists && f.size == o.size && f.mod.Equal(o.mod)
}

func stampOf(path string) (fileStamp, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fileStamp{}, nil
	}
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{exists: true, size: fi.Size(), mod: fi.ModTime()}, nil
}

// readDocument loads path. A missing file is the default document.
func readDocument(path string) (Document, fileStamp, error) {
	stamp, err := stampOf(path)
	if err != nil {
		return Document{}, fileStamp{}, fmt.Errorf("reading ledger: %w", err)
	}
	if !stamp.exists {
		return DefaultDocument(), stamp, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fileStamp{}, fmt.Errorf("reading ledger: %w", err)
	}
	doc, err := decodeDocument(b)
	if err != nil {
		return Document{}, fileStamp{}, fmt.Errorf("%w: %v", errUnparseable, err)
	}
	return doc, stamp, nil
}

// Reload replaces the in-memory document with the file on disk, dropping
// unsaved changes. Long-lived holders call it before each write so they
// never save over changes made by another process. Unlike Open, an
// unreadable file is an error and is left in place.
func (s *Store) Reload() error {
	if s.path == "" {
		return ErrNoPath
	}
	doc, stamp, err := readDocument(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.normalized()
	s.disk = stamp
	s.revision++
	s.dirty = false
	s.cache.clear()
	return nil
}

// Path returns the backing file, or "" for an in-memory store.
func (s *Store) Path() string { return s.path }

// Today returns the store's notion of the current date.
func (s *Store) Today() calendar.Date { return s.today() }

// Revision increases on every mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Dirty reports whether there are unsaved changes.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Close releases the report cache.
func (s *Store) Close() {
	s.cache.close()
}

// Save writes the document atomically: a temp file in the same directory is
// synced and renamed over the ledger. It returns ErrConflict instead of
// overwriting a file that changed since it was loaded.
func (s *Store) Save() error {
	if s.path == "" {
		return ErrNoPath
	}
	s.mu.RLock()
	b, err := encodeDocument(s.doc)
	rev, loaded := s.revision, s.disk
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	cur, err := stampOf(s.path)
	if err != nil {
		return fmt.Errorf("checking ledger: %w", err)
	}
	if !cur.same(loaded) {
		return fmt.Errorf("saving %s: %w", s.path, ErrConflict)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("creating temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing ledger: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("setting ledger mode: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing ledger: %w", err)
	}
	written, err := stampOf(s.path)
	if err != nil {
		return fmt.Errorf("checking ledger: %w", err)
	}

	s.mu.Lock()
	s.disk = written
	if s.revision == rev {
		s.dirty = false
	}
	s.mu.Unlock()
	return nil
}

// touch must be called with mu held for writing.
func (s *Store) touch() {
	s.revision++
	s.dirty = true
	s.cache.clear()
}

// Document returns a deep copy of the current document.
func (s *Store) Document() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Transactions returns a copy of every transaction in insertion order.
func (s *Store) Transactions() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Transaction, len(s.doc.Transactions))
	for i, tx := range s.doc.Transactions {
		out[i] = tx.Clone()
	}
	return out
}

// Rules returns a copy of every recurring rule.
func (s *Store) Rules() []model.RecurringRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.RecurringRule, len(s.doc.Rules))
	for i, r := range s.doc.Rules {
		out[i] = r.Clone()
	}
	return out
}

func (s *Store) Budgets() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.doc.Budgets)
}

func (s *Store) Goals() []model.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.doc.Goals)
}

func (s *Store) Categories() model.Categories {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Categories.Clone()
}

// Transaction looks up one transaction by id.
func (s *Store) Transaction(id model.ID) (model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.txIndex(id)
	if i < 0 {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return s.doc.Transactions[i].Clone(), nil
}

func (s *Store) txIndex(id model.ID) int {
	return slices.IndexFunc(s.doc.Transactions, func(tx model.Transaction) bool { return tx.ID == id })
}

func (s *Store) ruleIndex(id model.ID) int {
	return slices.IndexFunc(s.doc.Rules, func(r model.RecurringRule) bool { return r.ID == id })
}

// AddTransaction validates tx, assigns an id when missing, and appends it.
func (s *Store) AddTransaction(tx model.Transaction) (model.Transaction, error) {
	tx.Category = strings.TrimSpace(tx.Category)
	if err := tx.Validate(); err != nil {
		return model.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = model.NewID()
	}
	tx = tx.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txIndex(tx.ID) >= 0 {
		return model.Transaction{}, fmt.Errorf("transaction %s already exists", tx.ID)
	}
	s.doc.Transactions = append(s.doc.Transactions, tx)
	s.doc.Categories.Add(tx.Type, tx.Category)
	s.touch()
	return tx.Clone(), nil
}

// DeleteTransaction removes one transaction.
func (s *Store) DeleteTransaction(id model.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	s.doc.Transactions = slices.Delete(s.doc.Transactions, i, i+1)
	s.touch()
	return nil
}

// AddTag adds tag to a transaction and reports whether it was new.
func (s *Store) AddTag(id model.ID, tag string) (bool, error) {
	return s.editTags(id, func(ts *model.TagSet) bool { return ts.Add(tag) })
}

// RemoveTag removes tag from a transaction and reports whether it was present.
func (s *Store) RemoveTag(id model.ID, tag string) (bool, error) {
	return s.editTags(id, func(ts *model.TagSet) bool { return ts.Remove(tag) })
}

func (s *Store) editTags(id model.ID, fn func(*model.TagSet) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(id)
	if i < 0 {
		return false, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	changed := fn(&s.doc.Transactions[i].Tags)
	if changed {
		s.touch()
	}
	return changed, nil
}

// AddRule validates and stores a recurring rule. Nothing is materialized
// until the next regeneration pass.
func (s *Store) AddRule(r model.RecurringRule) (model.RecurringRule, error) {
	r.Category = strings.TrimSpace(r.Category)
	if err := r.Validate(); err != nil {
		return model.RecurringRule{}, err
	}
	if r.ID == "" {
		r.ID = model.NewID()
	}
	r = r.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ruleIndex(r.ID) >= 0 {
		return model.RecurringRule{}, fmt.Errorf("recurring rule %s already exists", r.ID)
	}
	s.doc.Rules = append(s.doc.Rules, r)
	s.doc.Categories.Add(r.Type, r.Category)
	s.touch()
	return r.Clone(), nil
}

// DeleteRule removes a rule and every transaction materialized from it,
// returning how many transactions were removed.
func (s *Store) DeleteRule(id model.ID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ruleIndex(id)
	if i < 0 {
		return 0, fmt.Errorf("recurring rule %s: %w", id, ErrNotFound)
	}
	s.doc.Rules = slices.Delete(s.doc.Rules, i, i+1)

	before := len(s.doc.Transactions)
	s.doc.Transactions = slices.DeleteFunc(s.doc.Transactions, func(tx model.Transaction) bool {
		return tx.RecurringID == id
	})
	s.touch()
	return before - len(s.doc.Transactions), nil
}

// SetBudget sets the monthly limit for category.
func (s *Store) SetBudget(category string, limit float64) error {
	category = strings.TrimSpace(category)
	if err := model.ValidateBudget(category, limit); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Budgets[category] = limit
	s.touch()
	return nil
}

// DeleteBudget removes the limit for category.
func (s *Store) DeleteBudget(category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc.Budgets[category]; !ok {
		return fmt.Errorf("budget %q: %w", category, ErrNotFound)
	}
	delete(s.doc.Budgets, category)
	s.touch()
	return nil
}

// AddGoal validates and stores a goal.
func (s *Store) AddGoal(g model.Goal) (model.Goal, error) {
	g.Category = strings.TrimSpace(g.Category)
	if err := g.Validate(); err != nil {
		return model.Goal{}, err
	}
	if g.ID == "" {
		g.ID = model.NewID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.doc.Goals, func(x model.Goal) bool { return x.ID == g.ID }) {
		return model.Goal{}, fmt.Errorf("goal %s already exists", g.ID)
	}
	s.doc.Goals = append(s.doc.Goals, g)
	s.touch()
	return g, nil
}

func (s *Store) DeleteGoal(id model.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.doc.Goals)
	s.doc.Goals = slices.DeleteFunc(s.doc.Goals, func(g model.Goal) bool { return g.ID == id })
	if len(s.doc.Goals) == n {
		return fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	s.touch()
	return nil
}

// AddCategory registers a category name for t.
func (s *Store) AddCategory(t model.TxType, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if !t.Valid() {
		return false, fmt.Errorf("%w: %q", model.ErrInvalidType, t)
	}
	if name == "" {
		return false, model.ErrMissingCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	added := s.doc.Categories.Add(t, name)
	if added {
		s.touch()
	}
	return added, nil
}

// BudgetStatus returns month-to-date budget progress as of now.
func (s *Store) BudgetStatus(now calendar.Date) []model.BudgetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := cacheKey("budget", s.revision, now)
	if v, ok := s.cache.get(key); ok {
		return cloneStatuses(v.([]model.BudgetStatus))
	}
	out := pipeline.BudgetStatus(s.doc.Transactions, s.doc.Budgets, now)
	s.cache.set(key, cloneStatuses(out))
	return out
}

// GoalReports returns progress for every goal.
func (s *Store) GoalReports() []pipeline.GoalReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := cacheKey("goals", s.revision, calendar.Date{})
	if v, ok := s.cache.get(key); ok {
		return slices.Clone(v.([]pipeline.GoalReport))
	}
	out := pipeline.GoalReports(s.doc.Goals, s.doc.Transactions)
	s.cache.set(key, slices.Clone(out))
	return out
}

// cloneStatuses copies statuses including the Percentage pointers, so cached
// reports never share memory with callers.
func cloneStatuses(in []model.BudgetStatus) []model.BudgetStatus {
	out := slices.Clone(in)
	for i := range out {
		if p := out[i].Percentage; p != nil {
			v := *p
			out[i].Percentage = &v
		}
	}
	return out
}

package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/theirongolddev/fintrack/internal/model"
)

// ExportVersion is written into every export.
const ExportVersion = "1.0"

var (
	ErrMissingVersion     = errors.New("import: missing version")
	ErrMissingExportDate  = errors.New("import: missing exportDate")
	ErrUnsupportedVersion = errors.New("import: unsupported version")
)

// ImportError reports one invalid entity in an import file.
type ImportError struct {
	Kind  string // "transaction", "recurring rule", "budget", "goal"
	Index int
	Key   string
	Err   error
}

func (e *ImportError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q: %v", e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("%s #%d: %v", e.Kind, e.Index, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

type exportDocument struct {
	Version      string                `json:"version"`
	ExportDate   string                `json:"exportDate"`
	Transactions []model.Transaction   `json:"transactions"`
	Rules        []model.RecurringRule `json:"recurringTransactions"`
	Categories   model.Categories      `json:"categories"`
	Budgets      map[string]float64    `json:"budgets"`
	Goals        []model.Goal          `json:"goals"`
}

type importEnvelope struct {
	Version    *string `json:"version"`
	ExportDate *string `json:"exportDate"`
}

// Export writes the whole ledger as an indented JSON export stamped with at.
func (s *Store) Export(w io.Writer, at time.Time) error {
	doc := s.Document()
	out := exportDocument{
		Version:      ExportVersion,
		ExportDate:   at.UTC().Format(time.RFC3339Nano),
		Transactions: doc.Transactions,
		Rules:        doc.Rules,
		Categories:   doc.Categories,
		Budgets:      doc.Budgets,
		Goals:        doc.Goals,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// ParseExport decodes and validates an export without applying it.
func ParseExport(r io.Reader) (Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("reading import: %w", err)
	}

	var env importEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Document{}, fmt.Errorf("import: %w", err)
	}
	if env.Version == nil || strings.TrimSpace(*env.Version) == "" {
		return Document{}, ErrMissingVersion
	}
	if env.ExportDate == nil || strings.TrimSpace(*env.ExportDate) == "" {
		return Document{}, ErrMissingExportDate
	}
	if major, _, _ := strings.Cut(*env.Version, "."); major != "1" {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedVersion, *env.Version)
	}

	doc, err := decodeDocument(b)
	if err != nil {
		return Document{}, fmt.Errorf("import: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func validateDocument(doc Document) error {
	var errs []error
	txIDs := make(map[model.ID]struct{}, len(doc.Transactions))
	for i, tx := range doc.Transactions {
		err := tx.Validate()
		if err == nil && tx.ID == "" {
			err = errors.New("missing id")
		}
		if _, dup := txIDs[tx.ID]; err == nil && dup {
			err = errors.New("duplicate id")
		}
		if err != nil {
			errs = append(errs, &ImportError{Kind: "transaction", Index: i, Err: err})
		}
		txIDs[tx.ID] = struct{}{}
	}
	for i, r := range doc.Rules {
		err := r.Validate()
		if err == nil && r.ID == "" {
			err = errors.New("missing id")
		}
		if err != nil {
			errs = append(errs, &ImportError{Kind: "recurring rule", Index: i, Err: err})
		}
	}
	for category, limit := range doc.Budgets {
		if err := model.ValidateBudget(category, limit); err != nil {
			errs = append(errs, &ImportError{Kind: "budget", Key: category, Err: err})
		}
	}
	for i, g := range doc.Goals {
		err := g.Validate()
		if err == nil && g.ID == "" {
			err = errors.New("missing id")
		}
		if err != nil {
			errs = append(errs, &ImportError{Kind: "goal", Index: i, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Import replaces the ledger with the contents of an export. Nothing is
// applied unless the whole file validates.
func (s *Store) Import(r io.Reader) (Document, error) {
	doc, err := ParseExport(r)
	if err != nil {
		return Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.touch()
	return doc, nil
}

// Package importer turns bank CSV exports into external events the ledger
// can record as automatic entries.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
)

// RecordType tags events produced from bank statement rows.
const RecordType = "bank_transaction"

// Transaction is one row of a bank statement. Amount is signed: money in is
// positive, money out negative.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Reference   string
	Type        string
}

// Event is a transaction classified for the ledger.
type Event struct {
	Event model.ExternalEvent
	Kind  model.EventKind
}

// Parser converts a bank CSV file into Transactions.
type Parser interface {
	Parse(r io.Reader) ([]Transaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	return r
}

// Events classifies transactions: deposits become income, withdrawals
// expenses, both with a positive amount. Zero-amount rows are dropped.
func Events(txns []Transaction, currency string) []Event {
	var out []Event
	for _, txn := range txns {
		if txn.Amount.IsZero() {
			continue
		}
		kind := model.EventIncome
		if txn.Amount.IsNegative() {
			kind = model.EventExpense
		}
		out = append(out, Event{
			Kind: kind,
			Event: model.ExternalEvent{
				ID:              txn.Reference,
				RecordType:      RecordType,
				Amount:          txn.Amount.Abs(),
				Currency:        currency,
				Description:     txn.Description,
				Reference:       txn.Reference,
				TransactionDate: model.DateOf(txn.Date),
			},
		})
	}
	return out
}

// ParseFile opens path and parses it with the parser registered for format.
func (r *Registry) ParseFile(format, path string) ([]Transaction, error) {
	p := r.Get(format)
	if p == nil {
		return nil, fmt.Errorf("unknown bank format %q", format)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	txns, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return txns, nil
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns CSV files in <root>/import/.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

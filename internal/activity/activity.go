// Package activity keeps the append-only CSV trail of ledger mutations
// made from a project directory.
package activity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Action names a ledger mutation.
type Action string

const (
	ActionInit          Action = "init"
	ActionCreateEntry   Action = "create_entry"
	ActionPostEntry     Action = "post_entry"
	ActionReverseEntry  Action = "reverse_entry"
	ActionCreatePeriod  Action = "create_period"
	ActionClosePeriod   Action = "close_period"
	ActionImportAccount Action = "import_accounts"
	ActionImportEvents  Action = "import_events"
	ActionExport        Action = "export_journal"
)

// Record is one row of the activity log.
type Record struct {
	Timestamp   time.Time
	Actor       string
	Action      Action
	Details     string
	EntryNumber string
	CommitHash  string
}

// Header is the CSV header of the activity log.
const Header = "timestamp,actor,action,details,entry_number,commit_hash"

// File is the log location relative to a project root.
const File = "logs/activity.csv"

const numFields = 6

func (r Record) row() []string {
	return []string{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Actor,
		string(r.Action),
		r.Details,
		r.EntryNumber,
		r.CommitHash,
	}
}

func parseRow(row []string) (Record, error) {
	if len(row) != numFields {
		return Record{}, fmt.Errorf("expected %d fields, got %d", numFields, len(row))
	}
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return Record{}, fmt.Errorf("parsing timestamp %q: %w", row[0], err)
	}
	return Record{
		Timestamp:   ts,
		Actor:       row[1],
		Action:      Action(row[2]),
		Details:     row[3],
		EntryNumber: row[4],
		CommitHash:  row[5],
	}, nil
}

// Log appends to and reads the activity file of one project.
type Log struct {
	path string
	now  func() time.Time
}

// New returns the log of the project rooted at root.
func New(root string) *Log {
	return &Log{path: filepath.Join(root, File), now: time.Now}
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Append writes records, creating the file with its header when needed.
// Zero timestamps are stamped with the current time.
func (l *Log) Append(records ...Record) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	_, statErr := os.Stat(l.path)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if errors.Is(statErr, os.ErrNotExist) {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, r := range records {
		if r.Timestamp.IsZero() {
			r.Timestamp = l.now()
		}
		if err := cw.Write(r.row()); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns every record, oldest first. A missing file reads as empty.
func (l *Log) Read() ([]Record, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()
	return readRecords(f)
}

func readRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

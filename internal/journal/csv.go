package journal

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

// Header is the CSV header of a journal export.
const Header = "entry_number,date,status,account_code,account_name,line_number,description,debit,credit,reference"

const (
	numFields   = 10
	colNumber   = 0
	colDate     = 1
	colStatus   = 2
	colCode     = 3
	colAcctName = 4
	colLineNo   = 5
	colDesc     = 6
	colDebit    = 7
	colCredit   = 8
	colRef      = 9
)

// ExportRow is one journal line flattened with its entry and account.
type ExportRow struct {
	Entry   model.JournalEntry
	Line    model.JournalEntryLine
	Account model.Account
}

// WriteLines writes rows to w, header included.
func WriteLines(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(MarshalLine(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLine converts an ExportRow to a CSV row.
func MarshalLine(r ExportRow) []string {
	row := make([]string, numFields)
	row[colNumber] = r.Entry.EntryNumber
	row[colDate] = r.Entry.EntryDate.Format(model.DateFormat)
	row[colStatus] = string(r.Entry.Status)
	row[colCode] = r.Account.Code
	row[colAcctName] = r.Account.Name
	row[colLineNo] = strconv.Itoa(r.Line.LineNumber)
	row[colDesc] = r.Line.Description

	if r.Line.IsDebit() {
		row[colDebit] = r.Line.Amount.StringFixed(2)
	} else {
		row[colCredit] = r.Line.Amount.StringFixed(2)
	}

	row[colRef] = r.Line.Reference
	return row
}

// ExportLines writes every line of the entries dated from..to that have hit
// the balances (POSTED and REVERSED), ordered by date, entry and line.
// Zero bounds are open.
func (e *Engine) ExportLines(ctx context.Context, w io.Writer, from, to time.Time) error {
	entries, err := e.st.ListEntries(ctx, store.EntryFilter{From: from, To: to})
	if err != nil {
		return err
	}

	var ids []int64
	byID := make(map[int64]model.JournalEntry)
	for _, entry := range entries {
		if entry.IsDraft() {
			continue
		}
		ids = append(ids, entry.ID)
		byID[entry.ID] = entry
	}

	lines, err := e.st.LinesForEntries(ctx, ids)
	if err != nil {
		return err
	}
	grouped := make(map[int64][]model.JournalEntryLine, len(ids))
	for _, l := range lines {
		grouped[l.EntryID] = append(grouped[l.EntryID], l)
	}

	accts, err := e.st.ListAccounts(ctx, store.AccountFilter{})
	if err != nil {
		return err
	}
	acctByID := make(map[int64]model.Account, len(accts))
	for _, a := range accts {
		acctByID[a.ID] = a
	}

	var rows []ExportRow
	for _, entryID := range ids {
		for _, l := range grouped[entryID] {
			rows = append(rows, ExportRow{Entry: byID[entryID], Line: l, Account: acctByID[l.AccountID]})
		}
	}
	return WriteLines(w, rows)
}

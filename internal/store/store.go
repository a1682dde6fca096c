// Package store defines the persistence ports of the ledger and an in-memory
// implementation of them.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
)

// AccountFilter narrows account listings. Zero values match everything.
type AccountFilter struct {
	Type       model.AccountType
	ActiveOnly bool
	RootOnly   bool
	ParentID   int64
}

// PeriodFilter narrows period listings.
type PeriodFilter struct {
	Closed *bool
}

// EntryFilter narrows entry listings. From/To are inclusive entry dates.
type EntryFilter struct {
	Status   model.EntryStatus
	Type     model.EntryType
	PeriodID int64
	From     time.Time
	To       time.Time
}

// Reader is the query surface shared by the store and its transactions.
//
// Lookups by key return errs.ErrNotFound when nothing matches. Entries
// returned by EntryByID carry their lines ordered by line number; listings
// carry no lines.
type Reader interface {
	AccountByID(ctx context.Context, id int64) (model.Account, error)
	AccountByCode(ctx context.Context, code string) (model.Account, error)
	// ListAccounts orders by sort order, then code.
	ListAccounts(ctx context.Context, f AccountFilter) ([]model.Account, error)

	PeriodByID(ctx context.Context, id int64) (model.AccountingPeriod, error)
	// PeriodForDate returns the first period whose range covers d, by id.
	PeriodForDate(ctx context.Context, d time.Time) (model.AccountingPeriod, error)
	// ListPeriods orders by start date, newest first.
	ListPeriods(ctx context.Context, f PeriodFilter) ([]model.AccountingPeriod, error)

	EntryByID(ctx context.Context, id int64) (model.JournalEntry, error)
	// ListEntries orders by entry date, then id.
	ListEntries(ctx context.Context, f EntryFilter) ([]model.JournalEntry, error)
	// LinesForEntries orders by entry id, then line id.
	LinesForEntries(ctx context.Context, entryIDs []int64) ([]model.JournalEntryLine, error)
	// LinesForAccount is LinesForEntries restricted to one account.
	LinesForAccount(ctx context.Context, accountID int64, entryIDs []int64) ([]model.JournalEntryLine, error)
	EntryNumbersForYear(ctx context.Context, year int) ([]string, error)
}

// Writer is the mutation surface, only reachable inside a transaction.
type Writer interface {
	CreateAccount(ctx context.Context, a *model.Account) error
	SetAccountActive(ctx context.Context, id int64, active bool) error
	// AdjustAccountBalance adds delta to the current balance without a
	// read-modify-write in the caller.
	AdjustAccountBalance(ctx context.Context, id int64, delta decimal.Decimal) error

	CreatePeriod(ctx context.Context, p *model.AccountingPeriod) error
	ClosePeriod(ctx context.Context, id int64, actor string, at time.Time) error

	// CreateEntry inserts the entry and its lines, assigning ids. A
	// JE-<year>-NNNNNN number above the year's counter raises the counter,
	// so later generated numbers never collide with it.
	CreateEntry(ctx context.Context, e *model.JournalEntry) error
	// MarkEntryPosted flips a draft to posted and reports whether it did.
	MarkEntryPosted(ctx context.Context, id int64, actor string, at time.Time) (bool, error)
	// MarkEntryReversed flips a posted entry to reversed and reports whether it did.
	MarkEntryReversed(ctx context.Context, id int64) (bool, error)
	// NextEntrySequence atomically increments and returns the entry counter
	// of year, seeding it from existing entry numbers on first use.
	NextEntrySequence(ctx context.Context, year int) (int, error)
}

// Tx is a unit of work.
type Tx interface {
	Reader
	Writer
}

// Store is a transactional ledger store.
type Store interface {
	Reader
	// WithinTx runs fn in one atomic unit. Returning an error rolls back
	// every write made through tx. fn must not use the Store itself.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tolerance is the largest debit/credit difference still treated as balanced.
var Tolerance = decimal.New(1, -2)

// WithinTolerance reports whether |a - b| < Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Tolerance)
}

// EntryStatus represents the lifecycle state of a journal entry.
type EntryStatus string

const (
	StatusDraft    EntryStatus = "draft"
	StatusPosted   EntryStatus = "posted"
	StatusReversed EntryStatus = "reversed"
)

// EntryType tells manual entries from generated ones.
type EntryType string

const (
	EntryManual EntryType = "manual"
	EntryAuto   EntryType = "auto"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	return t == EntryManual || t == EntryAuto
}

// LineType is the polarity of a journal line.
type LineType string

const (
	LineDebit  LineType = "debit"
	LineCredit LineType = "credit"
)

// Valid reports whether t is debit or credit.
func (t LineType) Valid() bool {
	return t == LineDebit || t == LineCredit
}

// Opposite swaps debit and credit.
func (t LineType) Opposite() LineType {
	if t == LineDebit {
		return LineCredit
	}
	return LineDebit
}

// SourceKind enumerates the records that can originate a journal entry.
type SourceKind string

const (
	SourceJournalEntry SourceKind = "journal_entry"
	SourceIncome       SourceKind = "income"
	SourceExpense      SourceKind = "expense"
)

// Valid reports whether k is a known source kind.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceJournalEntry, SourceIncome, SourceExpense:
		return true
	}
	return false
}

// Source points at the record an entry was generated from.
type Source struct {
	Kind SourceKind
	ID   string
}

// EntrySource builds the source reference for a reversal of entry id.
func EntrySource(id int64) *Source {
	return &Source{Kind: SourceJournalEntry, ID: strconv.FormatInt(id, 10)}
}

// JournalEntry is the header of a balanced set of lines.
type JournalEntry struct {
	ID          int64
	UUID        uuid.UUID
	EntryNumber string // "JE-2025-000001"
	EntryDate   time.Time
	Type        EntryType
	Status      EntryStatus
	Description string
	Reference   string
	PeriodID    int64
	CreatedBy   string
	PostedBy    string
	PostedAt    *time.Time
	Source      *Source
	Notes       string
	Lines       []JournalEntryLine
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsPosted reports whether the entry has been posted.
func (e JournalEntry) IsPosted() bool {
	return e.Status == StatusPosted
}

// IsDraft reports whether the entry is still a draft.
func (e JournalEntry) IsDraft() bool {
	return e.Status == StatusDraft
}

// Totals sums the debit and credit lines of the entry.
func (e JournalEntry) Totals() (debits, credits decimal.Decimal) {
	return SumLines(e.Lines)
}

// IsBalanced reports whether debits equal credits within Tolerance.
func (e JournalEntry) IsBalanced() bool {
	d, c := e.Totals()
	return WithinTolerance(d, c)
}

// JournalEntryLine is one side of a double entry.
type JournalEntryLine struct {
	ID          int64
	EntryID     int64
	AccountID   int64
	Type        LineType
	Amount      decimal.Decimal
	Description string
	Reference   string
	LineNumber  int
}

// IsDebit reports whether the line is a debit.
func (l JournalEntryLine) IsDebit() bool {
	return l.Type == LineDebit
}

// IsCredit reports whether the line is a credit.
func (l JournalEntryLine) IsCredit() bool {
	return l.Type == LineCredit
}

// SignedAmount is +Amount for debits and -Amount for credits.
func (l JournalEntryLine) SignedAmount() decimal.Decimal {
	if l.IsDebit() {
		return l.Amount
	}
	return l.Amount.Neg()
}

// SumLines totals debits and credits over lines.
func SumLines(lines []JournalEntryLine) (debits, credits decimal.Decimal) {
	for _, l := range lines {
		if l.IsDebit() {
			debits = debits.Add(l.Amount)
		} else {
			credits = credits.Add(l.Amount)
		}
	}
	return debits, credits
}

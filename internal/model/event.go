package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind distinguishes external records that produce automatic entries.
type EventKind string

const (
	EventIncome  EventKind = "income"
	EventExpense EventKind = "expense"
)

// Valid reports whether k is income or expense.
func (k EventKind) Valid() bool {
	return k == EventIncome || k == EventExpense
}

// SourceKind maps the event kind onto the entry source it produces.
func (k EventKind) SourceKind() SourceKind {
	if k == EventIncome {
		return SourceIncome
	}
	return SourceExpense
}

// ExternalEvent is the payload handed over by subsystems that record money
// movements outside the ledger.
type ExternalEvent struct {
	ID              string
	RecordType      string
	Amount          decimal.Decimal
	Currency        string
	Description     string
	Reference       string
	TransactionDate time.Time
}

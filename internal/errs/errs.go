// Package errs holds the ledger's error taxonomy.
package errs

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUnbalancedEntry      = errors.New("journal entry is not balanced")
	ErrNotPosted            = errors.New("only posted entries can be reversed")
	ErrMissingChartAccount  = errors.New("required account not found in chart of accounts")
	ErrAccountNotFound      = errors.New("account not found")
	ErrPeriodResolution     = errors.New("accounting period could not be resolved")
	ErrNotFound             = errors.New("not found")
	ErrEntryNotFound        = errors.New("journal entry not found")
	ErrPeriodClosed         = errors.New("accounting period is closed")
	ErrInvalidLine          = errors.New("invalid journal line")
	ErrDuplicateEntryNumber = errors.New("entry number already exists")
	ErrDuplicateAccountCode = errors.New("account code already exists")
)

// UnbalancedError reports the totals of an entry whose debits and credits differ.
type UnbalancedError struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("%s: debits %s, credits %s",
		ErrUnbalancedEntry, e.Debits.StringFixed(2), e.Credits.StringFixed(2))
}

// Is matches ErrUnbalancedEntry.
func (e *UnbalancedError) Is(target error) bool {
	return target == ErrUnbalancedEntry
}

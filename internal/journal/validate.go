package journal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/model"
)

// ValidationError describes a single malformed line.
type ValidationError struct {
	Line        int
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Description)
}

var hundred = decimal.NewFromInt(100)

// ValidateLines checks every line for shape problems: unknown polarity,
// negative amounts, sub-cent precision and missing accounts. Line numbers
// in the result are 1-based.
func ValidateLines(lines []LineInput) []ValidationError {
	var verrs []ValidationError
	for i, l := range lines {
		n := i + 1

		if !l.Type.Valid() {
			verrs = append(verrs, ValidationError{
				Line:        n,
				Description: fmt.Sprintf("line type %q must be debit or credit", l.Type),
			})
		}
		if l.AccountID <= 0 {
			verrs = append(verrs, ValidationError{Line: n, Description: "missing account"})
		}
		if l.Amount.IsNegative() {
			verrs = append(verrs, ValidationError{
				Line:        n,
				Description: fmt.Sprintf("amount %s is negative", l.Amount),
			})
		}
		if scaled := l.Amount.Mul(hundred); !scaled.Equal(scaled.Truncate(0)) {
			verrs = append(verrs, ValidationError{
				Line:        n,
				Description: fmt.Sprintf("amount %s has more than 2 decimal places", l.Amount),
			})
		}
	}
	return verrs
}

// invalidLines folds validation errors into one error matching errs.ErrInvalidLine.
func invalidLines(verrs []ValidationError) error {
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("%w: %s", errs.ErrInvalidLine, strings.Join(msgs, "; "))
}

// CheckBalance fails with *errs.UnbalancedError when debits and credits
// differ by a cent or more. An empty set is balanced.
func CheckBalance(lines []model.JournalEntryLine) error {
	debits, credits := model.SumLines(lines)
	if model.WithinTolerance(debits, credits) {
		return nil
	}
	return &errs.UnbalancedError{Debits: debits, Credits: credits}
}

package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/model"
)

func TestValidateLines(t *testing.T) {
	tests := []struct {
		name string
		line LineInput
		want string
	}{
		{"ok", LineInput{AccountID: 1, Type: model.LineDebit, Amount: dec("10.25")}, ""},
		{"zero amount", LineInput{AccountID: 1, Type: model.LineCredit, Amount: dec("0")}, ""},
		{"bad type", LineInput{AccountID: 1, Type: "both", Amount: dec("1")}, `line type "both"`},
		{"no account", LineInput{Type: model.LineDebit, Amount: dec("1")}, "missing account"},
		{"negative", LineInput{AccountID: 1, Type: model.LineDebit, Amount: dec("-1")}, "is negative"},
		{"sub-cent", LineInput{AccountID: 1, Type: model.LineDebit, Amount: dec("1.005")}, "more than 2 decimal places"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verrs := ValidateLines([]LineInput{tt.line})
			if tt.want == "" {
				assert.Empty(t, verrs)
				return
			}
			require.Len(t, verrs, 1)
			assert.Equal(t, 1, verrs[0].Line)
			assert.Contains(t, verrs[0].Error(), tt.want)
		})
	}
}

func TestInvalidLinesMatchesSentinel(t *testing.T) {
	err := invalidLines([]ValidationError{{Line: 2, Description: "missing account"}})
	assert.ErrorIs(t, err, errs.ErrInvalidLine)
	assert.ErrorContains(t, err, "line 2: missing account")
}

func TestCheckBalance(t *testing.T) {
	line := func(lt model.LineType, amount string) model.JournalEntryLine {
		return model.JournalEntryLine{Type: lt, Amount: dec(amount)}
	}

	assert.NoError(t, CheckBalance(nil))
	assert.NoError(t, CheckBalance([]model.JournalEntryLine{
		line(model.LineDebit, "60"), line(model.LineDebit, "40"), line(model.LineCredit, "100"),
	}))
	assert.NoError(t, CheckBalance([]model.JournalEntryLine{
		line(model.LineDebit, "100.004"), line(model.LineCredit, "100"),
	}))

	err := CheckBalance([]model.JournalEntryLine{line(model.LineDebit, "100.01"), line(model.LineCredit, "100")})
	assert.ErrorIs(t, err, errs.ErrUnbalancedEntry)
}

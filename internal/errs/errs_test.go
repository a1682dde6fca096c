package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnbalancedError(t *testing.T) {
	err := fmt.Errorf("creating entry: %w", &UnbalancedError{
		Debits:  decimal.RequireFromString("1000"),
		Credits: decimal.RequireFromString("500"),
	})

	assert.ErrorIs(t, err, ErrUnbalancedEntry)
	assert.Contains(t, err.Error(), "1000.00")
	assert.Contains(t, err.Error(), "500.00")

	var ue *UnbalancedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "1000", ue.Debits.String())
	assert.NotErrorIs(t, err, ErrNotPosted)
}

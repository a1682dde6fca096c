package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEntryNumber(t *testing.T) {
	assert.Equal(t, "JE-2025-000001", FormatEntryNumber(2025, 1))
	assert.Equal(t, "JE-2025-123456", FormatEntryNumber(2025, 123456))
	assert.Equal(t, "JE-2025-1234567", FormatEntryNumber(2025, 1234567))
	assert.Equal(t, "JE-2025-", YearPrefix(2025))
}

func TestParseEntryNumber(t *testing.T) {
	tests := []struct {
		input    string
		wantYear int
		wantSeq  int
	}{
		{"JE-2025-000001", 2025, 1},
		{"JE-2024-000099", 2024, 99},
		{"JE-2025-1000000", 2025, 1000000},
	}
	for _, tt := range tests {
		year, seq, err := ParseEntryNumber(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.wantYear, year)
		assert.Equal(t, tt.wantSeq, seq)
	}
}

func TestParseEntryNumber_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"not-valid",
		"JE-2025",
		"XX-2025-000001",
		"JE-abcd-000001",
		"JE-2025-abc",
		"JE-2025--1",
	}
	for _, input := range badInputs {
		_, _, err := ParseEntryNumber(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestMaxSequence(t *testing.T) {
	numbers := []string{
		"JE-2025-000003",
		"JE-2025-000010",
		"JE-2024-000500",
		"MANUAL-7",
		"JE-2025-000002",
	}
	assert.Equal(t, 10, MaxSequence(numbers, 2025))
	assert.Equal(t, 500, MaxSequence(numbers, 2024))
	assert.Equal(t, 0, MaxSequence(numbers, 2026))
	assert.Equal(t, 0, MaxSequence(nil, 2025))
}

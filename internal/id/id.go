package id

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	entryPrefix = "JE"
	seqDigits   = 6
)

// FormatEntryNumber returns an entry number like "JE-2025-000001".
func FormatEntryNumber(year, seq int) string {
	return fmt.Sprintf("%s-%04d-%0*d", entryPrefix, year, seqDigits, seq)
}

// YearPrefix returns the prefix shared by all entry numbers of a year: "JE-2025-".
func YearPrefix(year int) string {
	return fmt.Sprintf("%s-%04d-", entryPrefix, year)
}

// ParseEntryNumber parses "JE-2025-000001" into year and sequence.
func ParseEntryNumber(number string) (year, seq int, err error) {
	parts := strings.SplitN(number, "-", 3)
	if len(parts) != 3 || parts[0] != entryPrefix {
		return 0, 0, fmt.Errorf("invalid entry number format: %q", number)
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in entry number %q: %w", number, err)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid sequence in entry number %q: %w", number, err)
	}
	if seq < 0 {
		return 0, 0, fmt.Errorf("negative sequence in entry number %q", number)
	}

	return year, seq, nil
}

// MaxSequence returns the highest sequence among numbers belonging to year.
// Numbers from other years or in a foreign format are ignored.
func MaxSequence(numbers []string, year int) int {
	maxSeq := 0
	for _, n := range numbers {
		y, seq, err := ParseEntryNumber(n)
		if err != nil || y != year {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq
}

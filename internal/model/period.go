package model

import (
	"strconv"
	"time"
)

// AccountingPeriod is an inclusive date range entries are filed under.
type AccountingPeriod struct {
	ID        int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
	IsClosed  bool
	ClosedAt  *time.Time
	ClosedBy  string
	Notes     string
	CreatedAt time.Time
}

// IsOpen reports whether entries may still be filed in the period.
func (p AccountingPeriod) IsOpen() bool {
	return !p.IsClosed
}

// Contains reports whether d falls within the period, bounds included.
func (p AccountingPeriod) Contains(d time.Time) bool {
	d = DateOf(d)
	return !d.Before(DateOf(p.StartDate)) && !d.After(DateOf(p.EndDate))
}

// YearPeriod returns the calendar year period covering d.
func YearPeriod(d time.Time) AccountingPeriod {
	return AccountingPeriod{
		Name:      strconv.Itoa(d.Year()),
		StartDate: StartOfYear(d),
		EndDate:   EndOfYear(d),
	}
}

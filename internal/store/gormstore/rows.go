package gormstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
)

// sqlite keeps decimal(15,2) columns with numeric affinity, so values can
// come back as floats. Everything read is rounded to cents.
const amountPlaces = 2

type accountRow struct {
	ID             int64           `gorm:"primaryKey"`
	UUID           string          `gorm:"type:varchar(36);uniqueIndex;not null"`
	Code           string          `gorm:"size:20;uniqueIndex;not null"`
	Name           string          `gorm:"size:255;not null"`
	Description    string          `gorm:"type:text"`
	Type           string          `gorm:"size:20;index;not null"`
	ParentID       *int64          `gorm:"index"`
	Level          int             `gorm:"not null"`
	IsActive       bool            `gorm:"index;not null"`
	IsSystem       bool            `gorm:"not null"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Currency       string          `gorm:"size:3;not null"`
	SortOrder      int             `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (accountRow) TableName() string { return "accounts" }

type periodRow struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"size:100;not null"`
	StartDate time.Time `gorm:"index;not null"`
	EndDate   time.Time `gorm:"index;not null"`
	IsClosed  bool      `gorm:"index;not null"`
	ClosedAt  *time.Time
	ClosedBy  string `gorm:"size:64"`
	Notes     string `gorm:"type:text"`
	CreatedAt time.Time
}

func (periodRow) TableName() string { return "accounting_periods" }

type entryRow struct {
	ID          int64     `gorm:"primaryKey"`
	UUID        string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	EntryNumber string    `gorm:"size:32;uniqueIndex;not null"`
	EntryDate   time.Time `gorm:"index;not null"`
	Type        string    `gorm:"size:10;not null"`
	Status      string    `gorm:"size:10;index;not null"`
	Description string    `gorm:"type:text"`
	Reference   string    `gorm:"size:100"`
	PeriodID    int64     `gorm:"index"`
	CreatedBy   string    `gorm:"size:64"`
	PostedBy    string    `gorm:"size:64"`
	PostedAt    *time.Time
	SourceKind  string `gorm:"size:32;index:idx_entry_source"`
	SourceID    string `gorm:"size:64;index:idx_entry_source"`
	Notes       string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (entryRow) TableName() string { return "journal_entries" }

type lineRow struct {
	ID             int64           `gorm:"primaryKey"`
	JournalEntryID int64           `gorm:"index;not null"`
	AccountID      int64           `gorm:"index;not null"`
	Type           string          `gorm:"size:6;not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Description    string          `gorm:"type:text"`
	Reference      string          `gorm:"size:100"`
	LineNumber     int             `gorm:"not null"`
}

func (lineRow) TableName() string { return "journal_entry_lines" }

// sequenceRow holds the last entry number sequence handed out per year.
type sequenceRow struct {
	Year int `gorm:"primaryKey;autoIncrement:false"`
	Seq  int `gorm:"not null"`
}

func (sequenceRow) TableName() string { return "entry_sequences" }

func toAccountRow(a *model.Account) accountRow {
	r := accountRow{
		ID:             a.ID,
		UUID:           a.UUID.String(),
		Code:           a.Code,
		Name:           a.Name,
		Description:    a.Description,
		Type:           string(a.Type),
		Level:          a.Level,
		IsActive:       a.IsActive,
		IsSystem:       a.IsSystem,
		OpeningBalance: a.OpeningBalance,
		CurrentBalance: a.CurrentBalance,
		Currency:       a.Currency,
		SortOrder:      a.SortOrder,
	}
	if a.ParentID != 0 {
		parent := a.ParentID
		r.ParentID = &parent
	}
	return r
}

func (r accountRow) model() model.Account {
	a := model.Account{
		ID:             r.ID,
		UUID:           parseUUID(r.UUID),
		Code:           r.Code,
		Name:           r.Name,
		Description:    r.Description,
		Type:           model.AccountType(r.Type),
		Level:          r.Level,
		IsActive:       r.IsActive,
		IsSystem:       r.IsSystem,
		OpeningBalance: r.OpeningBalance.Round(amountPlaces),
		CurrentBalance: r.CurrentBalance.Round(amountPlaces),
		Currency:       r.Currency,
		SortOrder:      r.SortOrder,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.ParentID != nil {
		a.ParentID = *r.ParentID
	}
	return a
}

func (r periodRow) model() model.AccountingPeriod {
	return model.AccountingPeriod{
		ID:        r.ID,
		Name:      r.Name,
		StartDate: model.DateOf(r.StartDate),
		EndDate:   model.DateOf(r.EndDate),
		IsClosed:  r.IsClosed,
		ClosedAt:  r.ClosedAt,
		ClosedBy:  r.ClosedBy,
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
	}
}

func toEntryRow(e *model.JournalEntry) entryRow {
	r := entryRow{
		UUID:        e.UUID.String(),
		EntryNumber: e.EntryNumber,
		EntryDate:   model.DateOf(e.EntryDate),
		Type:        string(e.Type),
		Status:      string(e.Status),
		Description: e.Description,
		Reference:   e.Reference,
		PeriodID:    e.PeriodID,
		CreatedBy:   e.CreatedBy,
		PostedBy:    e.PostedBy,
		PostedAt:    e.PostedAt,
		Notes:       e.Notes,
	}
	if e.Source != nil {
		r.SourceKind = string(e.Source.Kind)
		r.SourceID = e.Source.ID
	}
	return r
}

func (r entryRow) model() model.JournalEntry {
	e := model.JournalEntry{
		ID:          r.ID,
		UUID:        parseUUID(r.UUID),
		EntryNumber: r.EntryNumber,
		EntryDate:   model.DateOf(r.EntryDate),
		Type:        model.EntryType(r.Type),
		Status:      model.EntryStatus(r.Status),
		Description: r.Description,
		Reference:   r.Reference,
		PeriodID:    r.PeriodID,
		CreatedBy:   r.CreatedBy,
		PostedBy:    r.PostedBy,
		PostedAt:    r.PostedAt,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.SourceKind != "" {
		e.Source = &model.Source{Kind: model.SourceKind(r.SourceKind), ID: r.SourceID}
	}
	return e
}

func toLineRow(entryID int64, l model.JournalEntryLine) lineRow {
	return lineRow{
		JournalEntryID: entryID,
		AccountID:      l.AccountID,
		Type:           string(l.Type),
		Amount:         l.Amount,
		Description:    l.Description,
		Reference:      l.Reference,
		LineNumber:     l.LineNumber,
	}
}

func (r lineRow) model() model.JournalEntryLine {
	return model.JournalEntryLine{
		ID:          r.ID,
		EntryID:     r.JournalEntryID,
		AccountID:   r.AccountID,
		Type:        model.LineType(r.Type),
		Amount:      r.Amount.Round(amountPlaces),
		Description: r.Description,
		Reference:   r.Reference,
		LineNumber:  r.LineNumber,
	}
}

func parseUUID(s string) uuid.UUID {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return u
}

package api

import (
	"time"

	"github.com/cleared-dev/ledger/internal/model"
)

// CreateEntryReq is the body of POST /entries. Lines may name their account
// by id or by code.
type CreateEntryReq struct {
	Date        string    `json:"entry_date"`
	Description string    `json:"description"`
	Reference   string    `json:"reference"`
	EntryNumber string    `json:"entry_number"`
	PeriodID    int64     `json:"period_id"`
	Notes       string    `json:"notes"`
	Post        bool      `json:"post"`
	Lines       []LineReq `json:"lines" binding:"dive"`
}

type LineReq struct {
	AccountID   int64  `json:"account_id"`
	AccountCode string `json:"account_code"`
	Type        string `json:"type" binding:"required,oneof=debit credit"`
	Amount      string `json:"amount" binding:"required"` // decimal as string
	Description string `json:"description"`
	Reference   string `json:"reference"`
}

// ReverseEntryReq is the optional body of POST /entries/:id/reverse.
type ReverseEntryReq struct {
	Description string `json:"description"`
}

// EventReq is the body of POST /events/:kind.
type EventReq struct {
	ID              string `json:"id" binding:"required"`
	RecordType      string `json:"record_type"`
	Amount          string `json:"amount" binding:"required"`
	Currency        string `json:"currency"`
	Description     string `json:"description"`
	Reference       string `json:"reference"`
	TransactionDate string `json:"transaction_date"`
}

type LineResp struct {
	ID          int64  `json:"id"`
	LineNumber  int    `json:"line_number"`
	AccountID   int64  `json:"account_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

type SourceResp struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type EntryResp struct {
	ID          int64       `json:"id"`
	UUID        string      `json:"uuid"`
	EntryNumber string      `json:"entry_number"`
	EntryDate   string      `json:"entry_date"`
	Type        string      `json:"type"`
	Status      string      `json:"status"`
	Description string      `json:"description"`
	Reference   string      `json:"reference,omitempty"`
	PeriodID    int64       `json:"period_id"`
	CreatedBy   string      `json:"created_by"`
	PostedBy    string      `json:"posted_by,omitempty"`
	PostedAt    *time.Time  `json:"posted_at,omitempty"`
	Source      *SourceResp `json:"source,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	TotalDebit  string      `json:"total_debit"`
	TotalCredit string      `json:"total_credit"`
	Lines       []LineResp  `json:"lines"`
}

type AccountResp struct {
	ID             int64  `json:"id"`
	UUID           string `json:"uuid"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	ParentID       int64  `json:"parent_id,omitempty"`
	Level          int    `json:"level"`
	IsActive       bool   `json:"is_active"`
	IsSystem       bool   `json:"is_system"`
	Balance        string `json:"balance"`
	OpeningBalance string `json:"opening_balance"`
	Currency       string `json:"currency"`
}

// NewEntryResp renders an entry with two-decimal amounts.
func NewEntryResp(e model.JournalEntry) EntryResp {
	debits, credits := e.Totals()
	out := EntryResp{
		ID:          e.ID,
		UUID:        e.UUID.String(),
		EntryNumber: e.EntryNumber,
		EntryDate:   e.EntryDate.Format(model.DateFormat),
		Type:        string(e.Type),
		Status:      string(e.Status),
		Description: e.Description,
		Reference:   e.Reference,
		PeriodID:    e.PeriodID,
		CreatedBy:   e.CreatedBy,
		PostedBy:    e.PostedBy,
		PostedAt:    e.PostedAt,
		Notes:       e.Notes,
		TotalDebit:  debits.StringFixed(2),
		TotalCredit: credits.StringFixed(2),
		Lines:       make([]LineResp, 0, len(e.Lines)),
	}
	if e.Source != nil {
		out.Source = &SourceResp{Kind: string(e.Source.Kind), ID: e.Source.ID}
	}
	for _, l := range e.Lines {
		out.Lines = append(out.Lines, LineResp{
			ID:          l.ID,
			LineNumber:  l.LineNumber,
			AccountID:   l.AccountID,
			Type:        string(l.Type),
			Amount:      l.Amount.StringFixed(2),
			Description: l.Description,
			Reference:   l.Reference,
		})
	}
	return out
}

func NewAccountResp(a model.Account) AccountResp {
	return AccountResp{
		ID:             a.ID,
		UUID:           a.UUID.String(),
		Code:           a.Code,
		Name:           a.Name,
		Type:           string(a.Type),
		ParentID:       a.ParentID,
		Level:          a.Level,
		IsActive:       a.IsActive,
		IsSystem:       a.IsSystem,
		Balance:        a.ReportedBalance().StringFixed(2),
		OpeningBalance: a.OpeningBalance.StringFixed(2),
		Currency:       a.Currency,
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// AccountTypes lists every account type in chart order.
var AccountTypes = [...]AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// normalBalances is indexed in the same order as AccountTypes.
var normalBalances = [...]LineType{
	LineDebit,  // asset
	LineCredit, // liability
	LineCredit, // equity
	LineCredit, // revenue
	LineDebit,  // expense
}

// Adding an account type without extending normalBalances fails to compile.
var _ = [1]struct{}{}[len(AccountTypes)-len(normalBalances)]

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	return t.index() >= 0
}

func (t AccountType) index() int {
	for i, at := range AccountTypes {
		if at == t {
			return i
		}
	}
	return -1
}

// NormalBalance returns the side on which the account type increases.
// It panics for an unknown type; callers validate types at the boundary.
func (t AccountType) NormalBalance() LineType {
	i := t.index()
	if i < 0 {
		panic("model: unknown account type " + string(t))
	}
	return normalBalances[i]
}

// IncreasesWithDebit reports whether debits raise the reported balance.
func (t AccountType) IncreasesWithDebit() bool {
	return t.NormalBalance() == LineDebit
}

// IncreasesWithCredit reports whether credits raise the reported balance.
func (t AccountType) IncreasesWithCredit() bool {
	return t.NormalBalance() == LineCredit
}

// Balance applies the normal-balance rule to debit and credit totals.
func (t AccountType) Balance(debits, credits decimal.Decimal) decimal.Decimal {
	if t.IncreasesWithDebit() {
		return debits.Sub(credits)
	}
	return credits.Sub(debits)
}

// Apply returns running moved by one line under the normal-balance rule.
func (t AccountType) Apply(running decimal.Decimal, side LineType, amount decimal.Decimal) decimal.Decimal {
	if side == t.NormalBalance() {
		return running.Add(amount)
	}
	return running.Sub(amount)
}

// Account is a node in the chart of accounts.
type Account struct {
	ID             int64
	UUID           uuid.UUID
	Code           string
	Name           string
	Description    string
	Type           AccountType
	ParentID       int64 // 0 = top-level
	Level          int
	IsActive       bool
	IsSystem       bool
	OpeningBalance decimal.Decimal
	// CurrentBalance holds the raw posted delta: +debits -credits, whatever the type.
	CurrentBalance decimal.Decimal
	Currency       string
	SortOrder      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsRoot reports whether the account has no parent.
func (a Account) IsRoot() bool {
	return a.ParentID == 0
}

// ReportedBalance interprets CurrentBalance through the normal-balance rule.
func (a Account) ReportedBalance() decimal.Decimal {
	if a.Type.IncreasesWithDebit() {
		return a.CurrentBalance
	}
	return a.CurrentBalance.Neg()
}

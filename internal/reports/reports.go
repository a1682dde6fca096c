// Package reports derives financial statements from the posted journal.
// Nothing here writes to the store.
package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

// Engine computes reports on demand.
type Engine struct {
	r   store.Reader
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for default date ranges.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a reporting Engine over r.
func NewEngine(r store.Reader, opts ...Option) *Engine {
	e := &Engine{r: r, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// window fills zero bounds: start defaults to 1 January of this year, end to today.
func (e *Engine) window(start, end time.Time) (time.Time, time.Time) {
	today := model.DateOf(e.now())
	if start.IsZero() {
		start = model.StartOfYear(today)
	}
	if end.IsZero() {
		end = today
	}
	return model.DateOf(start), model.DateOf(end)
}

type totals struct {
	debits  decimal.Decimal
	credits decimal.Decimal
}

func (t totals) balance(at model.AccountType) decimal.Decimal {
	return at.Balance(t.debits, t.credits)
}

func (t totals) isZero() bool {
	return t.debits.IsZero() && t.credits.IsZero()
}

// activity holds the POSTED entries of a range and their lines.
type activity struct {
	entries map[int64]model.JournalEntry
	lines   []model.JournalEntryLine
}

func (e *Engine) activity(ctx context.Context, start, end time.Time) (activity, error) {
	return e.accountActivity(ctx, 0, start, end)
}

// accountActivity is activity limited to one account's lines; zero means
// every account.
func (e *Engine) accountActivity(ctx context.Context, accountID int64, start, end time.Time) (activity, error) {
	act := activity{entries: make(map[int64]model.JournalEntry)}
	if end.Before(start) {
		return act, nil
	}

	entries, err := e.r.ListEntries(ctx, store.EntryFilter{Status: model.StatusPosted, From: start, To: end})
	if err != nil {
		return activity{}, fmt.Errorf("loading entries: %w", err)
	}
	var ids []int64
	for _, entry := range entries {
		ids = append(ids, entry.ID)
		act.entries[entry.ID] = entry
	}

	if accountID != 0 {
		act.lines, err = e.r.LinesForAccount(ctx, accountID, ids)
	} else {
		act.lines, err = e.r.LinesForEntries(ctx, ids)
	}
	if err != nil {
		return activity{}, fmt.Errorf("loading lines: %w", err)
	}
	return act, nil
}

func (a activity) byAccount() map[int64]totals {
	out := make(map[int64]totals)
	for _, l := range a.lines {
		t := out[l.AccountID]
		if l.IsDebit() {
			t.debits = t.debits.Add(l.Amount)
		} else {
			t.credits = t.credits.Add(l.Amount)
		}
		out[l.AccountID] = t
	}
	return out
}

// TrialBalance lists every active account with activity or a balance in
// start..end.
func (e *Engine) TrialBalance(ctx context.Context, start, end time.Time) (TrialBalance, error) {
	start, end = e.window(start, end)

	accts, err := e.r.ListAccounts(ctx, store.AccountFilter{ActiveOnly: true})
	if err != nil {
		return TrialBalance{}, err
	}
	act, err := e.activity(ctx, start, end)
	if err != nil {
		return TrialBalance{}, err
	}
	sums := act.byAccount()

	tb := TrialBalance{StartDate: start, EndDate: end, Accounts: []TrialBalanceRow{}}
	for _, a := range accts {
		t := sums[a.ID]
		bal := t.balance(a.Type)
		if !t.debits.IsPositive() && !t.credits.IsPositive() && !bal.Abs().GreaterThan(model.Tolerance) {
			continue
		}
		tb.Accounts = append(tb.Accounts, TrialBalanceRow{
			AccountID: a.ID,
			Code:      a.Code,
			Name:      a.Name,
			Type:      a.Type,
			Debits:    t.debits,
			Credits:   t.credits,
			Balance:   bal,
		})
		tb.TotalDebits = tb.TotalDebits.Add(t.debits)
		tb.TotalCredits = tb.TotalCredits.Add(t.credits)
	}
	tb.IsBalanced = model.WithinTolerance(tb.TotalDebits, tb.TotalCredits)
	return tb, nil
}

// ProfitAndLoss reports revenue, expenses and net income over start..end.
func (e *Engine) ProfitAndLoss(ctx context.Context, start, end time.Time) (ProfitAndLoss, error) {
	start, end = e.window(start, end)

	act, err := e.activity(ctx, start, end)
	if err != nil {
		return ProfitAndLoss{}, err
	}
	sums := act.byAccount()

	revenue, err := e.section(ctx, model.AccountTypeRevenue, sums)
	if err != nil {
		return ProfitAndLoss{}, err
	}
	expenses, err := e.section(ctx, model.AccountTypeExpense, sums)
	if err != nil {
		return ProfitAndLoss{}, err
	}

	return ProfitAndLoss{
		StartDate: start,
		EndDate:   end,
		Revenue:   revenue,
		Expenses:  expenses,
		NetIncome: revenue.Total.Sub(expenses.Total),
	}, nil
}

// BalanceSheet reports assets, liabilities and equity from 1 January of
// asOf's year through asOf. Net income over the same window is folded into
// equity as retained earnings.
func (e *Engine) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	_, asOf = e.window(time.Time{}, asOf)
	start := model.StartOfYear(asOf)

	act, err := e.activity(ctx, start, asOf)
	if err != nil {
		return BalanceSheet{}, err
	}
	sums := act.byAccount()

	assets, err := e.section(ctx, model.AccountTypeAsset, sums)
	if err != nil {
		return BalanceSheet{}, err
	}
	liabilities, err := e.section(ctx, model.AccountTypeLiability, sums)
	if err != nil {
		return BalanceSheet{}, err
	}
	equity, err := e.section(ctx, model.AccountTypeEquity, sums)
	if err != nil {
		return BalanceSheet{}, err
	}
	revenue, err := e.section(ctx, model.AccountTypeRevenue, sums)
	if err != nil {
		return BalanceSheet{}, err
	}
	expenses, err := e.section(ctx, model.AccountTypeExpense, sums)
	if err != nil {
		return BalanceSheet{}, err
	}
	retained := revenue.Total.Sub(expenses.Total)

	totalEquity := equity.Total.Add(retained)
	totalLE := liabilities.Total.Add(totalEquity)
	return BalanceSheet{
		AsOf:        asOf,
		Assets:      assets,
		Liabilities: liabilities,
		Equity: EquitySection{
			Accounts:         equity.Accounts,
			RetainedEarnings: retained,
			Total:            totalEquity,
		},
		TotalLiabilitiesAndEquity: totalLE,
		IsBalanced:                model.WithinTolerance(assets.Total, totalLE),
	}, nil
}

// section totals every account of a type and lists those whose balance
// exceeds the tolerance.
func (e *Engine) section(ctx context.Context, at model.AccountType, sums map[int64]totals) (Section, error) {
	accts, err := e.r.ListAccounts(ctx, store.AccountFilter{Type: at})
	if err != nil {
		return Section{}, err
	}

	s := Section{Accounts: []AccountBalance{}}
	for _, a := range accts {
		bal := sums[a.ID].balance(at)
		s.Total = s.Total.Add(bal)
		if bal.Abs().GreaterThan(model.Tolerance) {
			s.Accounts = append(s.Accounts, AccountBalance{AccountID: a.ID, Code: a.Code, Name: a.Name, Balance: bal})
		}
	}
	return s, nil
}

// AccountLedger walks the posted lines of one account in start..end with a
// running balance. The opening balance covers 1 January of start's year up
// to the day before start, plus the account's static opening balance.
func (e *Engine) AccountLedger(ctx context.Context, accountID int64, start, end time.Time) (AccountLedger, error) {
	acct, err := e.r.AccountByID(ctx, accountID)
	if errors.Is(err, errs.ErrNotFound) {
		return AccountLedger{}, fmt.Errorf("account %d: %w", accountID, errs.ErrAccountNotFound)
	}
	if err != nil {
		return AccountLedger{}, err
	}
	start, end = e.window(start, end)

	before, err := e.accountActivity(ctx, acct.ID, model.StartOfYear(start), start.AddDate(0, 0, -1))
	if err != nil {
		return AccountLedger{}, err
	}
	opening := before.byAccount()[acct.ID].balance(acct.Type).Add(acct.OpeningBalance)

	during, err := e.accountActivity(ctx, acct.ID, start, end)
	if err != nil {
		return AccountLedger{}, err
	}

	ledger := AccountLedger{
		Account:        LedgerAccount{ID: acct.ID, Code: acct.Code, Name: acct.Name, Type: acct.Type},
		StartDate:      start,
		EndDate:        end,
		OpeningBalance: opening,
		Entries:        []LedgerRow{},
	}

	running := opening
	for _, l := range during.lines {
		entry := during.entries[l.EntryID]
		running = acct.Type.Apply(running, l.Type, l.Amount)

		row := LedgerRow{
			Date:        entry.EntryDate,
			EntryID:     entry.ID,
			EntryNumber: entry.EntryNumber,
			Description: l.Description,
			Reference:   entry.Reference,
			Type:        l.Type,
			Balance:     running,
		}
		if row.Description == "" {
			row.Description = entry.Description
		}
		if l.IsDebit() {
			row.Debit = l.Amount
			ledger.PeriodDebits = ledger.PeriodDebits.Add(l.Amount)
		} else {
			row.Credit = l.Amount
			ledger.PeriodCredits = ledger.PeriodCredits.Add(l.Amount)
		}
		ledger.Entries = append(ledger.Entries, row)
	}

	ledger.ClosingBalance = opening.Add(acct.Type.Balance(ledger.PeriodDebits, ledger.PeriodCredits))
	return ledger, nil
}

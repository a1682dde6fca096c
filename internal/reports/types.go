package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
)

// TrialBalanceRow is one account line of a trial balance.
type TrialBalanceRow struct {
	AccountID int64             `json:"account_id"`
	Code      string            `json:"account_code"`
	Name      string            `json:"account_name"`
	Type      model.AccountType `json:"account_type"`
	Debits    decimal.Decimal   `json:"debits"`
	Credits   decimal.Decimal   `json:"credits"`
	Balance   decimal.Decimal   `json:"balance"`
}

// TrialBalance lists per-account debit and credit totals over a date range.
type TrialBalance struct {
	StartDate    time.Time         `json:"start_date"`
	EndDate      time.Time         `json:"end_date"`
	Accounts     []TrialBalanceRow `json:"accounts"`
	TotalDebits  decimal.Decimal   `json:"total_debits"`
	TotalCredits decimal.Decimal   `json:"total_credits"`
	IsBalanced   bool              `json:"is_balanced"`
}

// AccountBalance is an account with its normal-balance amount.
type AccountBalance struct {
	AccountID int64           `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
}

// Section groups the accounts of one type. Total covers every account of
// the type, including those too small to be listed.
type Section struct {
	Accounts []AccountBalance `json:"accounts"`
	Total    decimal.Decimal  `json:"total"`
}

// ProfitAndLoss is the income statement over a date range.
type ProfitAndLoss struct {
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	Revenue   Section         `json:"revenue"`
	Expenses  Section         `json:"expenses"`
	NetIncome decimal.Decimal `json:"net_income"`
}

// EquitySection is the equity block of a balance sheet. Total includes
// RetainedEarnings.
type EquitySection struct {
	Accounts         []AccountBalance `json:"accounts"`
	RetainedEarnings decimal.Decimal  `json:"retained_earnings"`
	Total            decimal.Decimal  `json:"total"`
}

// BalanceSheet is the statement of financial position at a date.
type BalanceSheet struct {
	AsOf                      time.Time       `json:"as_of_date"`
	Assets                    Section         `json:"assets"`
	Liabilities               Section         `json:"liabilities"`
	Equity                    EquitySection   `json:"equity"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
	IsBalanced                bool            `json:"is_balanced"`
}

// LedgerAccount identifies the account an AccountLedger is about.
type LedgerAccount struct {
	ID   int64             `json:"id"`
	Code string            `json:"code"`
	Name string            `json:"name"`
	Type model.AccountType `json:"type"`
}

// LedgerRow is one posted line with the running balance after it.
type LedgerRow struct {
	Date        time.Time       `json:"date"`
	EntryID     int64           `json:"entry_id"`
	EntryNumber string          `json:"entry_number"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Type        model.LineType  `json:"type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// AccountLedger is the line-by-line history of one account over a range.
type AccountLedger struct {
	Account        LedgerAccount   `json:"account"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	PeriodDebits   decimal.Decimal `json:"period_debits"`
	PeriodCredits  decimal.Decimal `json:"period_credits"`
	Entries        []LedgerRow     `json:"entries"`
}

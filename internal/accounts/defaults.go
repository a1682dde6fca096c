package accounts

import "github.com/cleared-dev/ledger/internal/model"

// Definition describes a chart account before it is stored. Parents are
// referenced by code so charts can be written by hand.
type Definition struct {
	Code        string
	Name        string
	Type        model.AccountType
	ParentCode  string
	Description string
	IsSystem    bool
}

// DefaultChart returns the default chart of accounts for an entity type.
func DefaultChart(entityType string) []Definition {
	switch entityType {
	case "llc_single_member":
		return standardChart()
	default:
		return standardChart()
	}
}

func standardChart() []Definition {
	const (
		asset     = model.AccountTypeAsset
		liability = model.AccountTypeLiability
		equity    = model.AccountTypeEquity
		revenue   = model.AccountTypeRevenue
		expense   = model.AccountTypeExpense
	)
	return []Definition{
		{Code: "1000", Name: "Assets", Type: asset, Description: "Total Assets", IsSystem: true},
		{Code: "1100", Name: "Current Assets", Type: asset, ParentCode: "1000", Description: "Current Assets", IsSystem: true},
		{Code: "1110", Name: "Cash", Type: asset, ParentCode: "1100", Description: "Cash and cash equivalents", IsSystem: true},
		{Code: "1120", Name: "Accounts Receivable", Type: asset, ParentCode: "1100", Description: "Amounts owed by customers", IsSystem: true},
		{Code: "1200", Name: "Fixed Assets", Type: asset, ParentCode: "1000", Description: "Fixed Assets", IsSystem: true},
		{Code: "1210", Name: "Equipment", Type: asset, ParentCode: "1200", Description: "Office equipment and machinery", IsSystem: true},

		{Code: "2000", Name: "Liabilities", Type: liability, Description: "Total Liabilities", IsSystem: true},
		{Code: "2100", Name: "Current Liabilities", Type: liability, ParentCode: "2000", Description: "Current Liabilities", IsSystem: true},
		{Code: "2110", Name: "Accounts Payable", Type: liability, ParentCode: "2100", Description: "Amounts owed to suppliers", IsSystem: true},
		{Code: "2120", Name: "Accrued Expenses", Type: liability, ParentCode: "2100", Description: "Accrued expenses", IsSystem: true},

		{Code: "3000", Name: "Equity", Type: equity, Description: "Total Equity", IsSystem: true},
		{Code: "3100", Name: "Capital", Type: equity, ParentCode: "3000", Description: "Owner's capital", IsSystem: true},
		{Code: "3200", Name: "Retained Earnings", Type: equity, ParentCode: "3000", Description: "Retained earnings", IsSystem: true},

		{Code: "4000", Name: "Revenue", Type: revenue, Description: "Total Revenue", IsSystem: true},
		{Code: "4100", Name: "Sales Revenue", Type: revenue, ParentCode: "4000", Description: "Revenue from sales", IsSystem: true},
		{Code: "4200", Name: "Service Revenue", Type: revenue, ParentCode: "4000", Description: "Revenue from services", IsSystem: true},

		{Code: "5000", Name: "Expenses", Type: expense, Description: "Total Expenses", IsSystem: true},
		{Code: "5100", Name: "Cost of Goods Sold", Type: expense, ParentCode: "5000", Description: "Cost of goods sold", IsSystem: true},
		{Code: "5200", Name: "Operating Expenses", Type: expense, ParentCode: "5000", Description: "Operating expenses", IsSystem: true},
		{Code: "5210", Name: "Salaries and Wages", Type: expense, ParentCode: "5200", Description: "Employee salaries and wages", IsSystem: true},
		{Code: "5220", Name: "Rent Expense", Type: expense, ParentCode: "5200", Description: "Office rent", IsSystem: true},
		{Code: "5230", Name: "Utilities", Type: expense, ParentCode: "5200", Description: "Utility expenses", IsSystem: true},
	}
}

package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Account represents a row in chart-of-accounts.csv.
type Account struct {
	Number       string // "1500", "2700", ...
	Name         string
	Type         AccountType
	ParentNumber string // empty = top-level
	VatCode      string // default VAT code when posting against this account
	Description  string
}

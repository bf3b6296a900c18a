package accounts

import "github.com/cleared-dev/tally/internal/model"

// Account numbers the posting builder uses out of the box.
const (
	Receivable      = "1500"
	Bank            = "1920"
	OutputVAT       = "2700"
	Revenue         = "3000"
	FallbackExpense = "7790"
)

// DefaultChart returns the default chart of accounts for an entity type.
// Unknown types get the limited company chart.
func DefaultChart(entityType string) []model.Account {
	chart := smallBusinessChart()
	if entityType == "sole_proprietorship" {
		chart = append(chart, model.Account{
			Number: "2090", Name: "Private Withdrawals", Type: model.AccountTypeEquity, ParentNumber: "2050",
			Description: "Owner drawings",
		})
	}
	return chart
}

func smallBusinessChart() []model.Account {
	return []model.Account{
		{Number: Receivable, Name: "Accounts Receivable", Type: model.AccountTypeAsset, Description: "Customer receivables"},
		{Number: Bank, Name: "Bank Deposits", Type: model.AccountTypeAsset, Description: "Operating bank account"},
		{Number: "2050", Name: "Other Equity", Type: model.AccountTypeEquity},
		{Number: "2400", Name: "Accounts Payable", Type: model.AccountTypeLiability, Description: "Supplier payables"},
		{Number: OutputVAT, Name: "Output VAT", Type: model.AccountTypeLiability, Description: "VAT collected on sales"},
		{Number: "2710", Name: "Input VAT", Type: model.AccountTypeLiability, Description: "VAT paid on purchases"},
		{Number: Revenue, Name: "Sales - Goods - High VAT Rate", Type: model.AccountTypeRevenue, VatCode: "3"},
		{Number: "3100", Name: "Sales - Goods - VAT Exempt", Type: model.AccountTypeRevenue, VatCode: "6"},
		{Number: "6200", Name: "Electricity and Utilities", Type: model.AccountTypeExpense},
		{Number: "6560", Name: "Office Supplies", Type: model.AccountTypeExpense},
		{Number: "6720", Name: "Professional Services", Type: model.AccountTypeExpense, Description: "Legal, accounting, consulting"},
		{Number: "7140", Name: "Travel", Type: model.AccountTypeExpense},
		{Number: "7320", Name: "Marketing", Type: model.AccountTypeExpense, Description: "Advertising costs"},
		{Number: "7350", Name: "Meals and Entertainment", Type: model.AccountTypeExpense},
		{Number: FallbackExpense, Name: "Other Operating Expenses", Type: model.AccountTypeExpense},
	}
}

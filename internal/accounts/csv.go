package accounts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

// Header is the first row of chart-of-accounts.csv.
const Header = "account_number,account_name,account_type,parent_number,vat_code,description"

const (
	numFields  = 6
	colNumber  = 0
	colName    = 1
	colType    = 2
	colParent  = 3
	colVatCode = 4
	colDesc    = 5
)

var accountTypes = []model.AccountType{
	model.AccountTypeAsset,
	model.AccountTypeLiability,
	model.AccountTypeEquity,
	model.AccountTypeRevenue,
	model.AccountTypeExpense,
}

// ReadAccounts parses a chart of accounts. Account numbers must be unique and
// every parent must be defined somewhere in the same chart.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != Header {
		return nil, fmt.Errorf("unexpected header %q", got)
	}

	chart := make([]model.Account, 0, len(records)-1)
	seen := make(map[string]int, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if first, dup := seen[acct.Number]; dup {
			return nil, fmt.Errorf("row %d: account %s already defined on row %d", line, acct.Number, first)
		}
		seen[acct.Number] = line
		chart = append(chart, acct)
	}

	var errs []error
	for _, acct := range chart {
		if acct.ParentNumber == "" {
			continue
		}
		if _, ok := seen[acct.ParentNumber]; !ok {
			errs = append(errs, fmt.Errorf("account %s: parent %s is not in the chart", acct.Number, acct.ParentNumber))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return chart, nil
}

// WriteAccounts writes a chart of accounts, header first.
func WriteAccounts(w io.Writer, chart []model.Account) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, acct := range chart {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing account %s (row %d): %w", acct.Number, i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colNumber] = acct.Number
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colParent] = acct.ParentNumber
	row[colVatCode] = acct.VatCode
	row[colDesc] = acct.Description
	return row
}

// UnmarshalAccount parses one CSV row. The account type is case-insensitive.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	number := strings.TrimSpace(record[colNumber])
	if number == "" {
		return model.Account{}, errors.New("empty account_number")
	}
	acctType := model.AccountType(strings.ToLower(strings.TrimSpace(record[colType])))
	if !slices.Contains(accountTypes, acctType) {
		return model.Account{}, fmt.Errorf("account %s: unknown account_type %q", number, record[colType])
	}
	if number == strings.TrimSpace(record[colParent]) {
		return model.Account{}, fmt.Errorf("account %s is its own parent", number)
	}

	return model.Account{
		Number:       number,
		Name:         record[colName],
		Type:         acctType,
		ParentNumber: strings.TrimSpace(record[colParent]),
		VatCode:      strings.TrimSpace(record[colVatCode]),
		Description:  record[colDesc],
	}, nil
}

package voucher

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// Header is the CSV header of a voucher export.
const Header = "voucher_id,date,row,account,description,debit,credit,currency,original_amount,original_currency,vat_code"

const (
	numFields       = 11
	dateFormat      = "2006-01-02"
	colVoucherID    = 0
	colDate         = 1
	colRow          = 2
	colAccount      = 3
	colDesc         = 4
	colDebit        = 5
	colCredit       = 6
	colCurrency     = 7
	colOrigAmount   = 8
	colOrigCurrency = 9
	colVatCode      = 10
)

// WriteVouchers writes one row per posting, header first.
func WriteVouchers(w io.Writer, vouchers []model.Voucher) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	line := 2
	for _, v := range vouchers {
		for _, p := range v.Postings {
			if err := cw.Write(MarshalPosting(v.ID, p)); err != nil {
				return fmt.Errorf("writing row %d: %w", line, err)
			}
			line++
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalPosting converts a posting to a CSV row. Positive amounts go in the
// debit column, negative amounts in the credit column as a positive figure.
func MarshalPosting(voucherID string, p model.Posting) []string {
	row := make([]string, numFields)
	row[colVoucherID] = voucherID
	row[colDate] = p.PostingDate.Format(dateFormat)
	row[colRow] = strconv.Itoa(p.RowNumber)
	row[colAccount] = p.AccountNumber
	row[colDesc] = p.Description

	switch {
	case p.Amount.IsPositive():
		row[colDebit] = formatAmount(p.Amount)
	case p.Amount.IsNegative():
		row[colCredit] = formatAmount(p.Amount.Neg())
	}

	row[colCurrency] = p.Currency
	row[colOrigAmount] = formatAmount(p.OriginalAmount)
	row[colOrigCurrency] = p.OriginalCurrency
	row[colVatCode] = p.VatCode
	return row
}

// formatAmount keeps two decimals but never hides the extra precision of an
// unrounded total.
func formatAmount(d decimal.Decimal) string {
	if money.HasAtMostPlaces(d, money.Places) {
		return money.Format(d)
	}
	return d.String()
}

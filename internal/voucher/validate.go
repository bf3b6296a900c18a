package voucher

import (
	"fmt"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// AccountChecker tests whether an account number exists in the chart of accounts.
type AccountChecker interface {
	Exists(number string) bool
}

// Validate checks a voucher before it is stored. An unbalanced voucher yields a
// ConsistencyError; every other violation is a ValidationError.
func Validate(v model.Voucher, accounts AccountChecker) []error {
	if len(v.Postings) == 0 {
		return []error{apperr.Validation("postings", "voucher %q has no postings", v.Description)}
	}

	var errs []error
	currency := v.Postings[0].Currency
	rows := make(map[int]bool, len(v.Postings))
	for _, p := range v.Postings {
		if !accounts.Exists(p.AccountNumber) {
			errs = append(errs, apperr.Validation("account", "row %d: unknown account %s", p.RowNumber, p.AccountNumber))
		}
		if p.Currency != currency {
			errs = append(errs, apperr.Validation("currency", "row %d: currency %s differs from %s", p.RowNumber, p.Currency, currency))
		}
		if rows[p.RowNumber] {
			errs = append(errs, apperr.Validation("row", "duplicate row number %d", p.RowNumber))
		}
		rows[p.RowNumber] = true
	}

	if sum := v.Sum(); !money.IsBalanced(sum) {
		errs = append(errs, apperr.Consistency("post voucher", fmt.Sprintf("%q does not balance: postings sum to %s", v.Description, sum), nil))
	}
	return errs
}

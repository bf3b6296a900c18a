package id

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatInvoiceNumber returns an invoice number like "2026-17".
func FormatInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("%d-%d", year, seq)
}

// ParseInvoiceNumber parses "2026-17" into year and sequence.
func ParseInvoiceNumber(number string) (year int, seq int64, err error) {
	yearPart, seqPart, ok := strings.Cut(number, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid invoice number format: %q", number)
	}

	year, err = strconv.Atoi(yearPart)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in invoice number %q: %w", number, err)
	}

	seq, err = strconv.ParseInt(seqPart, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid sequence in invoice number %q: %w", number, err)
	}
	if seq < 1 {
		return 0, 0, fmt.Errorf("invalid sequence in invoice number %q: must be positive", number)
	}

	return year, seq, nil
}

// FormatExpenseRef returns the audit reference for an expense, like "EXP-42".
func FormatExpenseRef(id int64) string {
	return "EXP-" + strconv.FormatInt(id, 10)
}

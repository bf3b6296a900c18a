package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// DateFormat is the layout of date columns.
const DateFormat = "2006-01-02"

// ParseCosts reads expense costs in the CostHeader layout. chargeable accepts
// any strconv.ParseBool value and defaults to false when empty.
func ParseCosts(r io.Reader) ([]model.Cost, error) {
	cols, rows, err := readTable(r, strings.Split(CostHeader, ","))
	if err != nil {
		return nil, fmt.Errorf("expense costs: %w", err)
	}

	costs := make([]model.Cost, 0, len(rows))
	for i, rec := range rows {
		c, err := parseCost(cols, rec)
		if err != nil {
			return nil, fmt.Errorf("expense costs row %d: %w", i+2, err)
		}
		costs = append(costs, c)
	}
	return costs, nil
}

func parseCost(cols columns, rec []string) (model.Cost, error) {
	date, err := time.Parse(DateFormat, cols.get(rec, "date"))
	if err != nil {
		return model.Cost{}, fmt.Errorf("parsing date %q: %w", cols.get(rec, "date"), err)
	}
	amount, err := decimal.NewFromString(cols.get(rec, "amount"))
	if err != nil {
		return model.Cost{}, fmt.Errorf("parsing amount %q: %w", cols.get(rec, "amount"), err)
	}

	var vat int
	if raw := cols.get(rec, "vat_percent"); raw != "" {
		if vat, err = strconv.Atoi(raw); err != nil {
			return model.Cost{}, fmt.Errorf("parsing vat_percent %q: %w", raw, err)
		}
	}
	var chargeable bool
	if raw := cols.get(rec, "chargeable"); raw != "" {
		if chargeable, err = strconv.ParseBool(raw); err != nil {
			return model.Cost{}, fmt.Errorf("parsing chargeable %q: %w", raw, err)
		}
	}
	payment, err := model.ParsePaymentType(cols.get(rec, "payment_type"))
	if err != nil {
		return model.Cost{}, err
	}

	return model.Cost{
		Title:       cols.get(rec, "title"),
		Date:        date,
		Amount:      amount,
		VatPercent:  vat,
		Currency:    strings.ToUpper(cols.get(rec, "currency")),
		PaymentType: payment,
		Chargeable:  chargeable,
	}, nil
}

package store

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// amount is a decimal column. Postgres stores it as numeric with the field's
// precision and scale. sqlite stores the decimal string as text, because its
// NUMERIC affinity would turn the value into a float.
type amount struct {
	decimal.Decimal
}

// nullAmount is a nullable amount.
type nullAmount struct {
	decimal.NullDecimal
}

func (amount) GormDataType() string { return "decimal" }
func (nullAmount) GormDataType() string { return "decimal" }

func (amount) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return decimalColumn(db, field)
}

func (nullAmount) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return decimalColumn(db, field)
}

func decimalColumn(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == DriverSQLite {
		return "text"
	}
	precision, scale := field.Precision, field.Scale
	if precision == 0 {
		precision, scale = 38, 4
	}
	return fmt.Sprintf("numeric(%d,%d)", precision, scale)
}

func toNullAmount(d *decimal.Decimal) nullAmount {
	if d == nil {
		return nullAmount{}
	}
	return nullAmount{decimal.NewNullDecimal(*d)}
}

func (n nullAmount) ptr() *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

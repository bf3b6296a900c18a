// Package validate runs struct-tag validation and reports violations as
// apperr.ValidationErrors.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cleared-dev/tally/internal/apperr"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Violations collects validation failures for one payload.
type Violations []error

// Add records a failure on field.
func (vs *Violations) Add(field, format string, args ...any) {
	*vs = append(*vs, apperr.Validation(field, format, args...))
}

// Struct checks the validate tags of s and records every failure.
func (vs *Violations) Struct(s any) {
	err := v.Struct(s)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		*vs = append(*vs, apperr.Validation("", "%v", err))
		return
	}
	for _, fe := range fieldErrs {
		*vs = append(*vs, apperr.Validation(fieldName(fe), "%s", describe(fe)))
	}
}

// Err returns nil when nothing was recorded, otherwise every failure joined.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	return errors.Join(vs...)
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s long", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be > %s", fe.Param())
	case "iso4217":
		return fmt.Sprintf("%v is not an ISO 4217 currency code", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

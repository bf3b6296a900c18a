package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := Validation("quantity", "must be >= 0, got %d", -1)
	assert.Equal(t, "validation: quantity: must be >= 0, got -1", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)

	wrapped := fmt.Errorf("creating invoice: %w", err)
	var ve *ValidationError
	assert.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "quantity", ve.Field)
}

func TestNotFoundError(t *testing.T) {
	err := NotFound("vat code", "99")
	assert.Equal(t, `vat code "99" not found`, err.Error())
	assert.ErrorIs(t, fmt.Errorf("line 1: %w", err), ErrNotFound)
}

func TestConsistencyError(t *testing.T) {
	inner := errors.New("boom")
	err := Consistency("create voucher", "postings sum to 0.01", inner)
	assert.ErrorIs(t, err, ErrConsistency)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "postings sum to 0.01")

	bare := Consistency("create voucher", "empty", nil)
	assert.Equal(t, "consistency: create voucher: empty", bare.Error())
}

func TestMessages(t *testing.T) {
	msgs := Messages([]error{errors.New("a"), errors.New("b")})
	assert.Equal(t, []string{"a", "b"}, msgs)
}

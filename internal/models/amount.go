package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Amounts are stored as DECIMAL(12,2) on MySQL and PostgreSQL; every
// backend accepts the same range.
const (
	AmountScale         = 2
	AmountIntegerDigits = 10
)

var (
	ErrAmountTooLarge = errors.New("amount exceeds 10 integer digits")
	ErrAmountScale    = errors.New("amount has more than 2 decimal places")
)

// ValidateAmount reports whether d fits the stored precision. It only looks
// at the coefficient and exponent, so huge exponents are rejected without
// expanding the number.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsZero() {
		return nil
	}

	digits := int64(d.NumDigits())
	exp := int64(d.Exponent())
	if digits+exp > AmountIntegerDigits {
		return ErrAmountTooLarge
	}
	if exp < -AmountScale {
		// Extra places are only allowed when they are trailing zeros.
		if -AmountScale-exp >= digits || !d.Equal(d.Truncate(AmountScale)) {
			return ErrAmountScale
		}
	}
	return nil
}

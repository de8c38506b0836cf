package domain

import "github.com/shopspring/decimal"

const (
	// MaxAmountScale is the number of fractional digits an amount may carry.
	MaxAmountScale = 4
	// MaxAmountIntegerDigits keeps integer and fractional digits within the 34 significant
	// digits of a BSON Decimal128.
	MaxAmountIntegerDigits = 30

	maxAmountDigits = MaxAmountScale + MaxAmountIntegerDigits
)

// validateAmount rejects amounts that cannot be stored exactly. The exponent is checked
// before any arithmetic so inputs like "1e-2000000" are refused without being expanded.
func validateAmount(field string, amount decimal.Decimal, allowZero bool) error {
	switch {
	case amount.IsNegative():
		if allowZero {
			return &ValidationError{Field: field, Reason: "amount can't be negative"}
		}
		return &ValidationError{Field: field, Reason: "amount must be greater than 0"}
	case amount.IsZero():
		if allowZero {
			return nil
		}
		return &ValidationError{Field: field, Reason: "amount must be greater than 0"}
	}

	exp := amount.Exponent()
	if exp < -maxAmountDigits || exp > MaxAmountIntegerDigits {
		return &ValidationError{Field: field, Reason: "amount is out of range"}
	}
	if amount.NumDigits()+int(exp) > MaxAmountIntegerDigits {
		return &ValidationError{Field: field, Reason: "amount is too large"}
	}
	if exp < -MaxAmountScale && !amount.Equal(amount.Truncate(MaxAmountScale)) {
		return &ValidationError{Field: field, Reason: "amount has too many decimal places"}
	}
	return nil
}

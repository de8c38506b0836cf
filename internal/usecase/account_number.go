package usecase

import (
	"fmt"
	"math/rand"
)

const (
	// MaxAccountNumberAttempts bounds the insert-and-retry loop in CreateAccount.
	MaxAccountNumberAttempts = 10

	accountNumberCountry  = "UA"
	accountNumberBankCode = "305299"
)

// AccountNumberGenerator produces candidate account numbers. Uniqueness is enforced
// by the store, not by the generator.
type AccountNumberGenerator interface {
	Next() string
}

type AccountNumberGeneratorFunc func() string

func (f AccountNumberGeneratorFunc) Next() string { return f() }

type randomAccountNumbers struct{}

// NewAccountNumberGenerator returns the default generator:
// "UA" + 2 random digits + bank code "305299" + 9 random digits.
func NewAccountNumberGenerator() AccountNumberGenerator {
	return randomAccountNumbers{}
}

func (randomAccountNumbers) Next() string {
	check := 10 + rand.Intn(90)                // [10, 99]
	serial := 100000000 + rand.Intn(900000000) // [100000000, 999999999]
	return fmt.Sprintf("%s%02d%s%09d", accountNumberCountry, check, accountNumberBankCode, serial)
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a customer account. AccountNumber is the external key and never
// changes after creation; Balance is only ever mutated by the transaction engine.
type Account struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"account_number"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Balance       decimal.Decimal `json:"balance"`
	Version       int64           `json:"-"` // optimistic concurrency guard
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Clone returns a copy that can be mutated without touching the original.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

// CreateAccountRequest is the input for opening a new account.
type CreateAccountRequest struct {
	FirstName      string
	LastName       string
	InitialBalance decimal.Decimal
}

func (r *CreateAccountRequest) Validate() error {
	if r.FirstName == "" {
		return &ValidationError{Field: "first_name", Reason: "first name is required"}
	}
	if r.LastName == "" {
		return &ValidationError{Field: "last_name", Reason: "last name is required"}
	}
	if r.InitialBalance.IsNegative() {
		return &ValidationError{Field: "balance", Reason: "balance can't be negative"}
	}
	return validateAmount("balance", r.InitialBalance, true)
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionTransfer   TransactionType = "transfer"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit, TransactionWithdrawal, TransactionTransfer:
		return true
	}
	return false
}

// Transaction is an immutable log entry written together with the balance change it
// describes. Accounts are referenced by account number, not by storage id.
//
// Sign convention: deposits are positive, withdrawals negative, transfers carry the
// positive amount moved from ExecutionAccount to CounterpartyAccount.
type Transaction struct {
	ID                  string          `json:"id"`
	ExecutionAccount    string          `json:"execution_account"`
	CounterpartyAccount *string         `json:"counterparty_account,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	Timestamp           time.Time       `json:"timestamp"`
	Type                TransactionType `json:"type"`
}

// TransactionResult pairs a committed transaction with the post-commit state of the
// execution account.
type TransactionResult struct {
	Transaction      *Transaction `json:"transaction"`
	ExecutionAccount *Account     `json:"execution_account_details"`
}

// TransactionRequest is a deposit or withdrawal against a single account.
type TransactionRequest struct {
	AccountNumber string
	Amount        decimal.Decimal
}

func (r *TransactionRequest) Validate() error {
	if r.AccountNumber == "" {
		return &ValidationError{Field: "account_number", Reason: "account number is required"}
	}
	return validateAmount("amount", r.Amount, false)
}

// TransferRequest moves Amount from FromAccount to ToAccount.
type TransferRequest struct {
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
}

func (r *TransferRequest) Validate() error {
	if r.FromAccount == "" {
		return &ValidationError{Field: "from_account", Reason: "sender account number is required"}
	}
	if r.ToAccount == "" {
		return &ValidationError{Field: "to_account", Reason: "recipient account number is required"}
	}
	if err := validateAmount("amount", r.Amount, false); err != nil {
		return err
	}
	if r.FromAccount == r.ToAccount {
		return &ValidationError{Field: "to_account", Reason: "sender and recipient accounts must be different"}
	}
	return nil
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionEvent is published after a transaction commits.
type TransactionEvent struct {
	EventType           string          `json:"event_type"` // deposit.completed, withdrawal.completed, transfer.completed
	TransactionID       string          `json:"transaction_id"`
	TransactionType     TransactionType `json:"transaction_type"`
	AccountNumber       string          `json:"account_number"`
	CounterpartyAccount string          `json:"counterparty_account,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	BalanceAfter        decimal.Decimal `json:"balance_after"`
	Timestamp           time.Time       `json:"timestamp"`
}

// NewTransactionEvent projects a committed result into its event.
func NewTransactionEvent(res *TransactionResult) *TransactionEvent {
	t := res.Transaction
	evt := &TransactionEvent{
		EventType:       string(t.Type) + ".completed",
		TransactionID:   t.ID,
		TransactionType: t.Type,
		AccountNumber:   t.ExecutionAccount,
		Amount:          t.Amount,
		Timestamp:       t.Timestamp,
	}
	if t.CounterpartyAccount != nil {
		evt.CounterpartyAccount = *t.CounterpartyAccount
	}
	if res.ExecutionAccount != nil {
		evt.BalanceAfter = res.ExecutionAccount.Balance
	}
	return evt
}

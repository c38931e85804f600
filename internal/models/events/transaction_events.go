package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicTransactionCompleted = "transaction_completed"
	TopicTransactionReversed  = "transaction_reversed"
)

type TransactionCompleted struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Description   string          `json:"description"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Key keeps all events of one user on the same partition.
func (e TransactionCompleted) Key() string { return e.UserID }

type TransactionReversed struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	// BalanceCorrected is false for status-only reversals.
	BalanceCorrected bool            `json:"balance_corrected"`
	BalanceAfter     decimal.Decimal `json:"balance_after"`
	OccurredAt       time.Time       `json:"occurred_at"`
}

func (e TransactionReversed) Key() string { return e.UserID }

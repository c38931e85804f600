package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount or balance a NUMERIC(15,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999999.99")

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// Opposite returns the direction that undoes t.
func (t TransactionType) Opposite() TransactionType {
	if t == TransactionTypeCredit {
		return TransactionTypeDebit
	}
	return TransactionTypeCredit
}

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusReversed  TransactionStatus = "reversed"
)

// Transaction is an immutable record of one balance change.
// Only Status moves after creation, and only from completed to reversed.
type Transaction struct {
	ID                     string            `json:"id"`
	UserID                 string            `json:"user_id"`
	Type                   TransactionType   `json:"type"`
	Amount                 decimal.Decimal   `json:"amount"` // always positive, scale 2
	Description            string            `json:"description"`
	Merchant               *string           `json:"merchant,omitempty"`
	Category               *string           `json:"category,omitempty"`
	RecipientAccountNumber *string           `json:"recipient_account_number,omitempty"`
	RoutingNumber          *string           `json:"routing_number,omitempty"`
	IdempotencyKey         *string           `json:"-"`
	Status                 TransactionStatus `json:"status"`
	BalanceAfter           decimal.Decimal   `json:"balance_after"` // balance right after this row was posted
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// SignedAmount is the effect of the transaction on the owner's balance.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// TransactionMetadata carries the descriptive fields of a posting.
type TransactionMetadata struct {
	Description            string
	Merchant               *string
	Category               *string
	RecipientAccountNumber *string
	RoutingNumber          *string
}

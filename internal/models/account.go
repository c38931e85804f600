package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a user's wallet. Balance is only ever changed by the ledger
// while the row is locked.
type Account struct {
	UserID        string          `json:"user_id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

package models

import "time"

type BankAccountType string

const (
	BankAccountTypeChecking BankAccountType = "checking"
	BankAccountTypeSavings  BankAccountType = "savings"
	BankAccountTypeBusiness BankAccountType = "business"
	BankAccountTypeWallet   BankAccountType = "wallet"
)

func (t BankAccountType) Valid() bool {
	switch t {
	case BankAccountTypeChecking, BankAccountTypeSavings, BankAccountTypeBusiness, BankAccountTypeWallet:
		return true
	}
	return false
}

type BankAccountStatus string

const (
	BankAccountStatusActive BankAccountStatus = "active"
	BankAccountStatusClosed BankAccountStatus = "closed"
	BankAccountStatusFrozen BankAccountStatus = "frozen"
)

func (s BankAccountStatus) Valid() bool {
	switch s {
	case BankAccountStatusActive, BankAccountStatusClosed, BankAccountStatusFrozen:
		return true
	}
	return false
}

// BankAccount is a named holding a user keeps alongside the wallet.
// Money never moves through it: the wallet Account carries the balance.
// Closing is a status change; rows are never deleted.
type BankAccount struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	Name          string            `json:"name"`
	Type          BankAccountType   `json:"type"`
	AccountNumber string            `json:"account_number"`
	Currency      string            `json:"currency"`
	Status        BankAccountStatus `json:"status"`
	IsPrimary     bool              `json:"is_primary"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

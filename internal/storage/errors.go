package storage

import "errors"

// Errors shared by every LedgerStore implementation.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrAccountNumberTaken  = errors.New("account number already in use")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNegativeBalance     = errors.New("balance cannot be negative")
	ErrValueOutOfRange     = errors.New("numeric value out of range")

	ErrBankAccountNotFound    = errors.New("bank account not found")
	ErrBankAccountNumberTaken = errors.New("bank account number already in use")

	// ErrTransient marks lock timeouts, deadlocks and similar failures the
	// caller may retry later.
	ErrTransient = errors.New("storage temporarily unavailable")
)

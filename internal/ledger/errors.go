package ledger

import (
	"errors"

	"github.com/sheikh-saqib/wallet-ledger-service/internal/storage"
)

var (
	ErrInvalidAmount          = errors.New("amount must be greater than zero with at most two decimal places")
	ErrInvalidTransactionType = errors.New("transaction type must be credit or debit")
	ErrInsufficientFunds      = errors.New("insufficient balance")
	ErrBalanceLimitExceeded   = errors.New("balance would exceed the maximum allowed")
	ErrAlreadyReversed        = errors.New("transaction already reversed")
	ErrMissingUser            = errors.New("user id is required")

	ErrAccountNotFound     = storage.ErrAccountNotFound
	ErrAccountExists       = storage.ErrAccountExists
	ErrTransactionNotFound = storage.ErrTransactionNotFound
	ErrTransient           = storage.ErrTransient
)

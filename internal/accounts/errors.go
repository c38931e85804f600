package accounts

import (
	"errors"

	"github.com/sheikh-saqib/wallet-ledger-service/internal/storage"
)

var (
	ErrInvalidAccount = errors.New("invalid bank account")
	ErrOnlyAccount    = errors.New("cannot close the only open account")
	ErrAccountClosed  = errors.New("bank account is closed")
	ErrMissingUser    = errors.New("user id is required")

	ErrAccountNotFound = storage.ErrBankAccountNotFound
	ErrWalletNotFound  = storage.ErrAccountNotFound
	ErrTransient       = storage.ErrTransient
)

package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/storage"
)

const (
	codeNumericOutOfRange    = "22003"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
)

const (
	constraintAccountsPkey       = "accounts_pkey"
	constraintAccountNumberKey   = "accounts_account_number_key"
	constraintBalanceNonNegative = "accounts_balance_non_negative"
	constraintBankAccountNumber  = "bank_accounts_account_number_key"
)

// classify wraps err with a storage sentinel when the Postgres error code
// carries domain meaning. Other errors are returned with the given context.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch string(pqErr.Code) {
	case codeDeadlockDetected, codeLockNotAvailable, codeSerializationFailure, codeQueryCanceled:
		return fmt.Errorf("%s: %w: %w", op, storage.ErrTransient, err)
	case codeNumericOutOfRange:
		return fmt.Errorf("%s: %w: %w", op, storage.ErrValueOutOfRange, err)
	case codeUniqueViolation:
		switch pqErr.Constraint {
		case constraintAccountsPkey:
			return storage.ErrAccountExists
		case constraintAccountNumberKey:
			return storage.ErrAccountNumberTaken
		case constraintBankAccountNumber:
			return storage.ErrBankAccountNumberTaken
		}
	case codeCheckViolation:
		if pqErr.Constraint == constraintBalanceNonNegative {
			return storage.ErrNegativeBalance
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

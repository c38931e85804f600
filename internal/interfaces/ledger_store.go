package interfaces

import (
	"context"

	"github.com/sheikh-saqib/wallet-ledger-service/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerStore is the transactional row store behind the ledger.
type LedgerStore interface {
	OpenAccount(ctx context.Context, account models.Account) (models.Account, error)
	GetAccount(ctx context.Context, userID string) (models.Account, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (models.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	ListBankAccounts(ctx context.Context, userID string) ([]models.BankAccount, error)
	GetBankAccount(ctx context.Context, userID, bankAccountID string) (models.BankAccount, error)

	// WithAccountLock begins a storage transaction, takes an exclusive lock on
	// the user's account row and runs fn. The transaction commits when fn
	// returns nil and rolls back otherwise; the lock is released either way.
	WithAccountLock(ctx context.Context, userID string, fn func(tx AccountTx) error) error
}

// AccountTx is the view of one locked account inside a storage transaction.
// It must not be used after the WithAccountLock callback returns.
type AccountTx interface {
	Account() models.Account
	UpdateBalance(ctx context.Context, balance decimal.Decimal) error
	SaveTransaction(ctx context.Context, transaction models.Transaction) error
	GetTransaction(ctx context.Context, transactionID string) (models.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (models.Transaction, bool, error)
	UpdateTransactionStatus(ctx context.Context, transactionID string, status models.TransactionStatus) error

	// BankAccounts returns the user's bank accounts in creation order.
	BankAccounts(ctx context.Context) ([]models.BankAccount, error)
	SaveBankAccount(ctx context.Context, account models.BankAccount) error
	UpdateBankAccount(ctx context.Context, account models.BankAccount) error
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	interfaces "github.com/sheikh-saqib/wallet-ledger-service/internal/interfaces"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/models"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/storage"
	"github.com/shopspring/decimal"
)

type PostgresLedgerStore struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// NewPostgresLedgerStore returns a store whose row locks give up after
// lockTimeout. Zero leaves the server default in place.
func NewPostgresLedgerStore(db *sql.DB, lockTimeout time.Duration) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db:          db,
		lockTimeout: lockTimeout,
	}
}

const transactionColumns = `id, user_id, type, amount, description, merchant, category,
	recipient_account_number, routing_number, idempotency_key, status, balance_after,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var (
		t              models.Transaction
		merchant       sql.NullString
		category       sql.NullString
		recipient      sql.NullString
		routing        sql.NullString
		idempotencyKey sql.NullString
	)
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Type,
		&t.Amount,
		&t.Description,
		&merchant,
		&category,
		&recipient,
		&routing,
		&idempotencyKey,
		&t.Status,
		&t.BalanceAfter,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return models.Transaction{}, err
	}

	t.Merchant = nullStringPtr(merchant)
	t.Category = nullStringPtr(category)
	t.RecipientAccountNumber = nullStringPtr(recipient)
	t.RoutingNumber = nullStringPtr(routing)
	t.IdempotencyKey = nullStringPtr(idempotencyKey)
	return t, nil
}

func (p *PostgresLedgerStore) OpenAccount(ctx context.Context, account models.Account) (models.Account, error) {
	const query = `INSERT INTO accounts (user_id, account_number, balance)
	VALUES ($1, $2, $3)
	RETURNING created_at, updated_at`

	err := p.db.QueryRowContext(ctx, query, account.UserID, account.AccountNumber, account.Balance).
		Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return models.Account{}, classify("open account", err)
	}
	return account, nil
}

func (p *PostgresLedgerStore) GetAccount(ctx context.Context, userID string) (models.Account, error) {
	const query = `SELECT user_id, account_number, balance, created_at, updated_at
	FROM accounts WHERE user_id = $1`

	var account models.Account
	err := p.db.QueryRowContext(ctx, query, userID).Scan(
		&account.UserID,
		&account.AccountNumber,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, storage.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, classify("get account", err)
	}
	return account, nil
}

func (p *PostgresLedgerStore) GetTransaction(ctx context.Context, userID, transactionID string) (models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND id::text = $2`

	t, err := scanTransaction(p.db.QueryRowContext(ctx, query, userID, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, storage.ErrTransactionNotFound
	}
	if err != nil {
		return models.Transaction{}, classify("get transaction", err)
	}
	return t, nil
}

func (p *PostgresLedgerStore) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
	WHERE user_id = $1
	ORDER BY created_at DESC, id DESC`

	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify("list transactions", err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, classify("scan transaction", err)
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("list transactions", err)
	}
	return transactions, nil
}

const bankAccountColumns = `id, user_id, name, type, account_number, currency, status, is_primary,
	created_at, updated_at`

func scanBankAccount(row rowScanner) (models.BankAccount, error) {
	var a models.BankAccount
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Name,
		&a.Type,
		&a.AccountNumber,
		&a.Currency,
		&a.Status,
		&a.IsPrimary,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

func queryBankAccounts(ctx context.Context, q queryer, query string, args ...any) ([]models.BankAccount, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list bank accounts", err)
	}
	defer rows.Close()

	accounts := make([]models.BankAccount, 0)
	for rows.Next() {
		a, err := scanBankAccount(rows)
		if err != nil {
			return nil, classify("scan bank account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list bank accounts", err)
	}
	return accounts, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ListBankAccounts returns the user's bank accounts, newest first.
func (p *PostgresLedgerStore) ListBankAccounts(ctx context.Context, userID string) ([]models.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts
	WHERE user_id = $1
	ORDER BY created_at DESC, id DESC`
	return queryBankAccounts(ctx, p.db, query, userID)
}

func (p *PostgresLedgerStore) GetBankAccount(ctx context.Context, userID, bankAccountID string) (models.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE user_id = $1 AND id::text = $2`

	a, err := scanBankAccount(p.db.QueryRowContext(ctx, query, userID, bankAccountID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.BankAccount{}, storage.ErrBankAccountNotFound
	}
	if err != nil {
		return models.BankAccount{}, classify("get bank account", err)
	}
	return a, nil
}

// WithAccountLock runs fn inside a database transaction holding
// SELECT ... FOR UPDATE on the account row.
//
// Only the lock wait observes ctx cancellation. The transaction itself is
// bound to a non-cancellable context so that, once the lock is held, the
// work runs to COMMIT or ROLLBACK instead of being torn down mid-way.
func (p *PostgresLedgerStore) WithAccountLock(ctx context.Context, userID string, fn func(tx interfaces.AccountTx) error) (err error) {
	txCtx := context.WithoutCancel(ctx)

	dbTx, err := p.db.BeginTx(txCtx, nil)
	if err != nil {
		return classify("begin ledger transaction", err)
	}

	// after Commit this is a no-op returning sql.ErrTxDone; it also covers a panicking fn
	defer func() { _ = dbTx.Rollback() }()

	if p.lockTimeout > 0 {
		timeout := fmt.Sprintf("%dms", p.lockTimeout.Milliseconds())
		if _, err = dbTx.ExecContext(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
			return classify("set lock timeout", err)
		}
	}

	const lockQuery = `SELECT user_id, account_number, balance, created_at, updated_at
	FROM accounts WHERE user_id = $1
	FOR UPDATE`

	var account models.Account
	err = dbTx.QueryRowContext(ctx, lockQuery, userID).Scan(
		&account.UserID,
		&account.AccountNumber,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrAccountNotFound
	}
	if err != nil {
		return classify("lock account", err)
	}

	accountTx := &postgresAccountTx{tx: dbTx, account: account}
	err = fn(accountTx)
	accountTx.done = true
	if err != nil {
		return err
	}

	if err = dbTx.Commit(); err != nil {
		return classify("commit ledger transaction", err)
	}
	return nil
}

type postgresAccountTx struct {
	tx      *sql.Tx
	account models.Account
	done    bool
}

var errTxClosed = errors.New("account transaction already finished")

func (t *postgresAccountTx) Account() models.Account {
	return t.account
}

func (t *postgresAccountTx) UpdateBalance(ctx context.Context, balance decimal.Decimal) error {
	if t.done {
		return errTxClosed
	}

	const query = `UPDATE accounts
	SET balance = $2::numeric, updated_at = NOW()
	WHERE user_id = $1`

	if _, err := t.tx.ExecContext(ctx, query, t.account.UserID, balance); err != nil {
		return classify("update balance", err)
	}
	t.account.Balance = balance
	return nil
}

func (t *postgresAccountTx) SaveTransaction(ctx context.Context, tr models.Transaction) error {
	if t.done {
		return errTxClosed
	}

	const query = `INSERT INTO transactions (
		id, user_id, type, amount, description, merchant, category,
		recipient_account_number, routing_number, idempotency_key, status,
		balance_after, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := t.tx.ExecContext(ctx, query,
		tr.ID,
		tr.UserID,
		tr.Type,
		tr.Amount,
		tr.Description,
		tr.Merchant,
		tr.Category,
		tr.RecipientAccountNumber,
		tr.RoutingNumber,
		tr.IdempotencyKey,
		tr.Status,
		tr.BalanceAfter,
		tr.CreatedAt,
		tr.UpdatedAt,
	)
	return classify("save transaction", err)
}

func (t *postgresAccountTx) GetTransaction(ctx context.Context, transactionID string) (models.Transaction, error) {
	if t.done {
		return models.Transaction{}, errTxClosed
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND id::text = $2`

	tr, err := scanTransaction(t.tx.QueryRowContext(ctx, query, t.account.UserID, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, storage.ErrTransactionNotFound
	}
	if err != nil {
		return models.Transaction{}, classify("get transaction", err)
	}
	return tr, nil
}

func (t *postgresAccountTx) FindByIdempotencyKey(ctx context.Context, key string) (models.Transaction, bool, error) {
	if t.done {
		return models.Transaction{}, false, errTxClosed
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND idempotency_key = $2`

	tr, err := scanTransaction(t.tx.QueryRowContext(ctx, query, t.account.UserID, key))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, false, nil
	}
	if err != nil {
		return models.Transaction{}, false, classify("find transaction by idempotency key", err)
	}
	return tr, true, nil
}

func (t *postgresAccountTx) UpdateTransactionStatus(ctx context.Context, transactionID string, status models.TransactionStatus) error {
	if t.done {
		return errTxClosed
	}

	const query = `UPDATE transactions
	SET status = $3, updated_at = NOW()
	WHERE user_id = $1 AND id::text = $2`

	result, err := t.tx.ExecContext(ctx, query, t.account.UserID, transactionID, status)
	if err != nil {
		return classify("update transaction status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction status rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrTransactionNotFound
	}
	return nil
}

func (t *postgresAccountTx) BankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	if t.done {
		return nil, errTxClosed
	}

	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts
	WHERE user_id = $1
	ORDER BY created_at, id`
	return queryBankAccounts(ctx, t.tx, query, t.account.UserID)
}

func (t *postgresAccountTx) SaveBankAccount(ctx context.Context, a models.BankAccount) error {
	if t.done {
		return errTxClosed
	}

	const query = `INSERT INTO bank_accounts (
		id, user_id, name, type, account_number, currency, status, is_primary, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := t.tx.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		a.Name,
		a.Type,
		a.AccountNumber,
		a.Currency,
		a.Status,
		a.IsPrimary,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return classify("save bank account", err)
}

func (t *postgresAccountTx) UpdateBankAccount(ctx context.Context, a models.BankAccount) error {
	if t.done {
		return errTxClosed
	}

	const query = `UPDATE bank_accounts
	SET name = $3, status = $4, is_primary = $5, updated_at = $6
	WHERE user_id = $1 AND id::text = $2`

	result, err := t.tx.ExecContext(ctx, query, t.account.UserID, a.ID, a.Name, a.Status, a.IsPrimary, a.UpdatedAt)
	if err != nil {
		return classify("update bank account", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update bank account rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrBankAccountNotFound
	}
	return nil
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)

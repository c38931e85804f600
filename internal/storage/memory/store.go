package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	interfaces "github.com/sheikh-saqib/wallet-ledger-service/internal/interfaces"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/models"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/storage"
	"github.com/shopspring/decimal"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// It emulates a row store: every account has its own exclusive lock, and the
// writes made inside WithAccountLock become visible only on commit.
type MemoryLedgerStore struct {
	mu           sync.Mutex                      // protects accounts and transactions
	accounts     map[string]models.Account       // keyed by user id
	transactions map[string][]models.Transaction // per user, in posting order
	bankAccounts map[string][]models.BankAccount // per user, in creation order

	lockMu   sync.Mutex               // protects rowLocks itself
	rowLocks map[string]chan struct{} // single-slot semaphore per account row
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		accounts:     make(map[string]models.Account),
		transactions: make(map[string][]models.Transaction),
		bankAccounts: make(map[string][]models.BankAccount),
		rowLocks:     make(map[string]chan struct{}),
	}
}

func (m *MemoryLedgerStore) rowLock(userID string) chan struct{} {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()

	if _, exists := m.rowLocks[userID]; !exists {
		m.rowLocks[userID] = make(chan struct{}, 1)
	}
	return m.rowLocks[userID]
}

func (m *MemoryLedgerStore) OpenAccount(ctx context.Context, account models.Account) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[account.UserID]; exists {
		return models.Account{}, storage.ErrAccountExists
	}
	for _, existing := range m.accounts {
		if existing.AccountNumber == account.AccountNumber {
			return models.Account{}, storage.ErrAccountNumberTaken
		}
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	m.accounts[account.UserID] = account
	return account, nil
}

func (m *MemoryLedgerStore) GetAccount(ctx context.Context, userID string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[userID]
	if !ok {
		return models.Account{}, storage.ErrAccountNotFound
	}
	return account, nil
}

func (m *MemoryLedgerStore) GetTransaction(ctx context.Context, userID, transactionID string) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.transactions[userID] {
		if t.ID == transactionID {
			return t, nil
		}
	}
	return models.Transaction{}, storage.ErrTransactionNotFound
}

// ListTransactions returns a copy of the user's transactions, newest first.
func (m *MemoryLedgerStore) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.transactions[userID]
	result := make([]models.Transaction, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		result = append(result, stored[i])
	}
	return result, nil
}

// ListBankAccounts returns a copy of the user's bank accounts, newest first.
func (m *MemoryLedgerStore) ListBankAccounts(ctx context.Context, userID string) ([]models.BankAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.bankAccounts[userID]
	result := make([]models.BankAccount, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		result = append(result, stored[i])
	}
	return result, nil
}

func (m *MemoryLedgerStore) GetBankAccount(ctx context.Context, userID, bankAccountID string) (models.BankAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.bankAccounts[userID] {
		if a.ID == bankAccountID {
			return a, nil
		}
	}
	return models.BankAccount{}, storage.ErrBankAccountNotFound
}

func (m *MemoryLedgerStore) WithAccountLock(ctx context.Context, userID string, fn func(tx interfaces.AccountTx) error) error {
	// accounts are never removed, so only existing rows get a lock entry
	if _, err := m.GetAccount(ctx, userID); err != nil {
		return err
	}

	lock := m.rowLock(userID)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("acquire account lock: %w: %w", storage.ErrTransient, ctx.Err())
	}
	defer func() { <-lock }()

	account, err := m.GetAccount(ctx, userID)
	if err != nil {
		return err
	}

	tx := &memoryAccountTx{
		store:    m,
		account:  account,
		statuses: make(map[string]models.TransactionStatus),
	}
	defer func() { tx.done = true }()

	// staged writes are simply dropped on error
	if err := fn(tx); err != nil {
		return err
	}
	return m.commit(tx)
}

func (m *MemoryLedgerStore) commit(tx *memoryAccountTx) error {
	if tx.account.Balance.IsNegative() {
		return storage.ErrNegativeBalance
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	userID := tx.account.UserID

	if tx.balanceChanged {
		account := m.accounts[userID]
		account.Balance = tx.account.Balance
		account.UpdatedAt = now
		m.accounts[userID] = account
	}

	stored := m.transactions[userID]
	for i := range stored {
		if status, ok := tx.statuses[stored[i].ID]; ok {
			stored[i].Status = status
			stored[i].UpdatedAt = now
		}
	}
	m.transactions[userID] = append(stored, tx.pending...)

	if tx.bankChanged {
		m.bankAccounts[userID] = tx.bankAccounts
	}
	return nil
}

type memoryAccountTx struct {
	store          *MemoryLedgerStore
	account        models.Account
	balanceChanged bool
	pending        []models.Transaction
	statuses       map[string]models.TransactionStatus // status changes to committed rows
	bankAccounts   []models.BankAccount                // staged copy, nil until first read
	bankChanged    bool
	done           bool
}

var errTxClosed = fmt.Errorf("account transaction already finished")

func (t *memoryAccountTx) Account() models.Account {
	return t.account
}

func (t *memoryAccountTx) UpdateBalance(ctx context.Context, balance decimal.Decimal) error {
	if t.done {
		return errTxClosed
	}
	if balance.IsNegative() {
		return storage.ErrNegativeBalance
	}
	if balance.GreaterThan(models.MaxAmount) {
		return fmt.Errorf("update balance: %w", storage.ErrValueOutOfRange)
	}
	t.account.Balance = balance
	t.balanceChanged = true
	return nil
}

func (t *memoryAccountTx) SaveTransaction(ctx context.Context, transaction models.Transaction) error {
	if t.done {
		return errTxClosed
	}
	if transaction.UserID != t.account.UserID {
		return fmt.Errorf("save transaction: owner %q does not match locked account %q", transaction.UserID, t.account.UserID)
	}
	if transaction.IdempotencyKey != nil {
		if _, found, _ := t.FindByIdempotencyKey(ctx, *transaction.IdempotencyKey); found {
			return fmt.Errorf("save transaction: duplicate idempotency key %q", *transaction.IdempotencyKey)
		}
	}
	t.pending = append(t.pending, transaction)
	return nil
}

func (t *memoryAccountTx) GetTransaction(ctx context.Context, transactionID string) (models.Transaction, error) {
	if t.done {
		return models.Transaction{}, errTxClosed
	}
	found, ok := t.find(func(tr models.Transaction) bool { return tr.ID == transactionID })
	if !ok {
		return models.Transaction{}, storage.ErrTransactionNotFound
	}
	return found, nil
}

func (t *memoryAccountTx) FindByIdempotencyKey(ctx context.Context, key string) (models.Transaction, bool, error) {
	if t.done {
		return models.Transaction{}, false, errTxClosed
	}
	found, ok := t.find(func(tr models.Transaction) bool {
		return tr.IdempotencyKey != nil && *tr.IdempotencyKey == key
	})
	return found, ok, nil
}

func (t *memoryAccountTx) UpdateTransactionStatus(ctx context.Context, transactionID string, status models.TransactionStatus) error {
	if t.done {
		return errTxClosed
	}
	for i := range t.pending {
		if t.pending[i].ID == transactionID {
			t.pending[i].Status = status
			return nil
		}
	}
	if _, ok := t.find(func(tr models.Transaction) bool { return tr.ID == transactionID }); !ok {
		return storage.ErrTransactionNotFound
	}
	t.statuses[transactionID] = status
	return nil
}

func (t *memoryAccountTx) BankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	if t.done {
		return nil, errTxClosed
	}
	t.loadBankAccounts()
	return append([]models.BankAccount(nil), t.bankAccounts...), nil
}

func (t *memoryAccountTx) SaveBankAccount(ctx context.Context, account models.BankAccount) error {
	if t.done {
		return errTxClosed
	}
	if account.UserID != t.account.UserID {
		return fmt.Errorf("save bank account: owner %q does not match locked account %q", account.UserID, t.account.UserID)
	}
	t.loadBankAccounts()

	for _, a := range t.bankAccounts {
		if a.AccountNumber == account.AccountNumber {
			return storage.ErrBankAccountNumberTaken
		}
	}
	if t.store.bankAccountNumberTaken(account.AccountNumber) {
		return storage.ErrBankAccountNumberTaken
	}

	t.bankAccounts = append(t.bankAccounts, account)
	t.bankChanged = true
	return nil
}

func (t *memoryAccountTx) UpdateBankAccount(ctx context.Context, account models.BankAccount) error {
	if t.done {
		return errTxClosed
	}
	t.loadBankAccounts()

	for i := range t.bankAccounts {
		if t.bankAccounts[i].ID == account.ID {
			t.bankAccounts[i] = account
			t.bankChanged = true
			return nil
		}
	}
	return storage.ErrBankAccountNotFound
}

func (t *memoryAccountTx) loadBankAccounts() {
	if t.bankAccounts != nil {
		return
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.bankAccounts = append(make([]models.BankAccount, 0), t.store.bankAccounts[t.account.UserID]...)
}

func (m *MemoryLedgerStore) bankAccountNumberTaken(number string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, accounts := range m.bankAccounts {
		for _, a := range accounts {
			if a.AccountNumber == number {
				return true
			}
		}
	}
	return false
}

// find looks at staged rows first, then committed rows with staged status
// changes applied.
func (t *memoryAccountTx) find(match func(models.Transaction) bool) (models.Transaction, bool) {
	for _, tr := range t.pending {
		if match(tr) {
			return tr, true
		}
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for _, tr := range t.store.transactions[t.account.UserID] {
		if match(tr) {
			if status, ok := t.statuses[tr.ID]; ok {
				tr.Status = status
			}
			return tr, true
		}
	}
	return models.Transaction{}, false
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)

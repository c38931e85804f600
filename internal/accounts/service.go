package accounts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/wallet-ledger-service/internal/interfaces"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/models"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/storage"
	"go.uber.org/zap"
)

const accountNumberAttempts = 5

// Service manages the named bank accounts a user keeps next to the wallet.
// Every change runs under the wallet row lock, so one user's account
// changes serialize with each other and with balance mutations.
type Service struct {
	store  interfaces.LedgerStore
	logger *zap.Logger
}

func NewService(store interfaces.LedgerStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

type CreateRequest struct {
	Name     string
	Type     models.BankAccountType
	Currency string
}

// UpdateRequest changes only the fields that are set.
type UpdateRequest struct {
	Name      *string
	Status    *models.BankAccountStatus
	IsPrimary *bool
}

// Create adds an active account. It becomes primary when the user has no
// primary account yet.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (models.BankAccount, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.BankAccount{}, ErrMissingUser
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || !req.Type.Valid() || strings.TrimSpace(req.Currency) == "" {
		return models.BankAccount{}, ErrInvalidAccount
	}

	var (
		created models.BankAccount
		err     error
	)
	for attempt := 0; attempt < accountNumberAttempts; attempt++ {
		err = s.store.WithAccountLock(ctx, userID, func(tx interfaces.AccountTx) error {
			work := context.WithoutCancel(ctx)

			existing, err := tx.BankAccounts(work)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			created = models.BankAccount{
				ID:            uuid.New().String(),
				UserID:        userID,
				Name:          name,
				Type:          req.Type,
				AccountNumber: generateAccountNumber(),
				Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
				Status:        models.BankAccountStatusActive,
				IsPrimary:     primaryIndex(existing) < 0,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			return tx.SaveBankAccount(work, created)
		})
		if !errors.Is(err, storage.ErrBankAccountNumberTaken) {
			break
		}
	}
	if err != nil {
		s.logFailure("bank account create failed", err, zap.String("user_id", userID))
		return models.BankAccount{}, err
	}

	s.logger.Info("bank account created",
		zap.String("user_id", userID),
		zap.String("account_id", created.ID),
		zap.Bool("primary", created.IsPrimary),
	)
	return created, nil
}

// List returns the user's bank accounts, newest first. Closed accounts are included.
func (s *Service) List(ctx context.Context, userID string) ([]models.BankAccount, error) {
	userID = strings.TrimSpace(userID)
	if _, err := s.store.GetAccount(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListBankAccounts(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, accountID string) (models.BankAccount, error) {
	return s.store.GetBankAccount(ctx, strings.TrimSpace(userID), strings.TrimSpace(accountID))
}

// Update renames an account, changes its status or its primary flag.
// Setting the status to closed follows the same rules as Close.
func (s *Service) Update(ctx context.Context, userID, accountID string, req UpdateRequest) (models.BankAccount, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return models.BankAccount{}, ErrInvalidAccount
	}
	if req.Status != nil && !req.Status.Valid() {
		return models.BankAccount{}, ErrInvalidAccount
	}

	account, err := s.mutate(ctx, userID, accountID, func(accounts []models.BankAccount, i int) error {
		if req.Name != nil {
			accounts[i].Name = strings.TrimSpace(*req.Name)
		}
		if req.Status != nil && *req.Status != accounts[i].Status {
			if *req.Status == models.BankAccountStatusClosed {
				if err := closeAccount(accounts, i); err != nil {
					return err
				}
			} else {
				accounts[i].Status = *req.Status
			}
		}
		if req.IsPrimary != nil {
			if *req.IsPrimary {
				return makePrimary(accounts, i)
			}
			accounts[i].IsPrimary = false
		}
		return nil
	})
	if err != nil {
		s.logFailure("bank account update failed", err, zap.String("user_id", userID), zap.String("account_id", accountID))
		return models.BankAccount{}, err
	}

	s.logger.Info("bank account updated", zap.String("user_id", userID), zap.String("account_id", account.ID))
	return account, nil
}

// Close marks the account closed. The last open account cannot be closed,
// and a closed primary hands the flag to the oldest remaining open account.
func (s *Service) Close(ctx context.Context, userID, accountID string) (models.BankAccount, error) {
	account, err := s.mutate(ctx, userID, accountID, func(accounts []models.BankAccount, i int) error {
		return closeAccount(accounts, i)
	})
	if err != nil {
		s.logFailure("bank account close failed", err, zap.String("user_id", userID), zap.String("account_id", accountID))
		return models.BankAccount{}, err
	}

	s.logger.Info("bank account closed", zap.String("user_id", userID), zap.String("account_id", account.ID))
	return account, nil
}

// SetPrimary moves the primary flag to the account.
func (s *Service) SetPrimary(ctx context.Context, userID, accountID string) (models.BankAccount, error) {
	account, err := s.mutate(ctx, userID, accountID, makePrimary)
	if err != nil {
		s.logFailure("bank account set primary failed", err, zap.String("user_id", userID), zap.String("account_id", accountID))
		return models.BankAccount{}, err
	}

	s.logger.Info("bank account set primary", zap.String("user_id", userID), zap.String("account_id", account.ID))
	return account, nil
}

// mutate loads the user's accounts under the wallet lock, lets change edit
// them in place and writes back every account that changed.
func (s *Service) mutate(ctx context.Context, userID, accountID string, change func(accounts []models.BankAccount, i int) error) (models.BankAccount, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.BankAccount{}, ErrMissingUser
	}
	accountID = strings.TrimSpace(accountID)

	var result models.BankAccount
	err := s.store.WithAccountLock(ctx, userID, func(tx interfaces.AccountTx) error {
		work := context.WithoutCancel(ctx)

		accounts, err := tx.BankAccounts(work)
		if err != nil {
			return err
		}
		i := indexOf(accounts, accountID)
		if i < 0 {
			return ErrAccountNotFound
		}

		before := append([]models.BankAccount(nil), accounts...)
		if err := change(accounts, i); err != nil {
			return err
		}

		now := time.Now().UTC()
		var changed []models.BankAccount
		for j := range accounts {
			if accounts[j] != before[j] {
				accounts[j].UpdatedAt = now
				changed = append(changed, accounts[j])
			}
		}

		// clear the old primary before setting the new one; at most one
		// primary per user is enforced on every statement
		sort.SliceStable(changed, func(a, b int) bool {
			return !changed[a].IsPrimary && changed[b].IsPrimary
		})
		for _, a := range changed {
			if err := tx.UpdateBankAccount(work, a); err != nil {
				return err
			}
		}

		result = accounts[i]
		return nil
	})
	if err != nil {
		return models.BankAccount{}, err
	}
	return result, nil
}

func closeAccount(accounts []models.BankAccount, i int) error {
	if accounts[i].Status == models.BankAccountStatusClosed {
		return ErrAccountClosed
	}

	next := -1
	for j, a := range accounts {
		if j != i && a.Status != models.BankAccountStatusClosed {
			next = j
			break
		}
	}
	if next < 0 {
		return ErrOnlyAccount
	}

	if accounts[i].IsPrimary {
		accounts[next].IsPrimary = true
	}
	accounts[i].Status = models.BankAccountStatusClosed
	accounts[i].IsPrimary = false
	return nil
}

func makePrimary(accounts []models.BankAccount, i int) error {
	if accounts[i].Status == models.BankAccountStatusClosed {
		return ErrAccountClosed
	}
	for j := range accounts {
		accounts[j].IsPrimary = j == i
	}
	return nil
}

func indexOf(accounts []models.BankAccount, id string) int {
	for i, a := range accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func primaryIndex(accounts []models.BankAccount) int {
	for i, a := range accounts {
		if a.IsPrimary {
			return i
		}
	}
	return -1
}

func (s *Service) logFailure(message string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if errors.Is(err, ErrTransient) || !isDomainError(err) {
		s.logger.Error(message, fields...)
		return
	}
	s.logger.Info(message, fields...)
}

func isDomainError(err error) bool {
	for _, target := range []error{ErrInvalidAccount, ErrOnlyAccount, ErrAccountClosed, ErrMissingUser, ErrAccountNotFound, ErrWalletNotFound} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// generateAccountNumber returns ACCT- followed by 13 upper-case hex digits.
func generateAccountNumber() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("ACCT-%s", strings.ToUpper(id[:13]))
}

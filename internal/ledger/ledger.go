package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/wallet-ledger-service/internal/interfaces"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/models"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/models/events"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	accountNumberAttempts = 5
	publishTimeout        = 5 * time.Second
)

// Ledger applies balance changes and records them as transactions.
// It holds no locks of its own: same-user serialization comes from the
// row lock taken by the store for the duration of each storage transaction.
type Ledger struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher
	logger    *zap.Logger
}

// NewLedger wires the ledger to a store and an event publisher.
// publisher and logger may be nil.
func NewLedger(store interfaces.LedgerStore, publisher interfaces.EventPublisher, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// TransactionRequest is a validated intent to move a user's balance.
type TransactionRequest struct {
	Type   models.TransactionType
	Amount decimal.Decimal
	// IdempotencyKey, when set, makes retries of the same request return the
	// originally recorded transaction instead of posting a second one.
	IdempotencyKey string
	Metadata       models.TransactionMetadata
}

// Result is the outcome of a successful mutation.
type Result struct {
	Transaction models.Transaction
	Balance     decimal.Decimal
	Replayed    bool
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) || amount.GreaterThan(models.MaxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// applyEffect returns the balance after moving amount in direction t.
func applyEffect(balance decimal.Decimal, t models.TransactionType, amount decimal.Decimal) (decimal.Decimal, error) {
	switch t {
	case models.TransactionTypeCredit:
		next := balance.Add(amount)
		if next.GreaterThan(models.MaxAmount) {
			return balance, ErrBalanceLimitExceeded
		}
		return next, nil
	case models.TransactionTypeDebit:
		if amount.GreaterThan(balance) {
			return balance, ErrInsufficientFunds
		}
		return balance.Sub(amount), nil
	default:
		return balance, ErrInvalidTransactionType
	}
}

// ApplyTransaction debits or credits the user's balance and appends one
// completed transaction row, as a single storage transaction.
func (l *Ledger) ApplyTransaction(ctx context.Context, userID string, req TransactionRequest) (Result, error) {
	start := time.Now()
	result, err := l.applyTransaction(ctx, userID, req)

	outcome := outcomeOf(err)
	if result.Replayed {
		outcome = "replayed"
	}
	observe(operationApply, start, outcome)

	if err != nil {
		l.logFailure("ledger apply transaction failed", err,
			zap.String("user_id", userID),
			zap.String("type", string(req.Type)),
			zap.String("amount", req.Amount.String()),
		)
		return Result{}, err
	}

	if result.Replayed {
		l.logger.Info("ledger apply transaction replayed",
			zap.String("user_id", userID),
			zap.String("transaction_id", result.Transaction.ID),
		)
		return result, nil
	}

	l.logger.Info("ledger apply transaction success",
		zap.String("user_id", userID),
		zap.String("transaction_id", result.Transaction.ID),
		zap.String("type", string(result.Transaction.Type)),
		zap.String("amount", result.Transaction.Amount.String()),
		zap.String("balance", result.Balance.String()),
	)

	l.publish(ctx, events.TopicTransactionCompleted, events.TransactionCompleted{
		TransactionID: result.Transaction.ID,
		UserID:        userID,
		Type:          string(result.Transaction.Type),
		Amount:        result.Transaction.Amount,
		BalanceAfter:  result.Balance,
		Description:   result.Transaction.Description,
		OccurredAt:    result.Transaction.CreatedAt,
	})
	return result, nil
}

func (l *Ledger) applyTransaction(ctx context.Context, userID string, req TransactionRequest) (Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Result{}, ErrMissingUser
	}
	if !req.Type.Valid() {
		return Result{}, ErrInvalidTransactionType
	}
	if err := validateAmount(req.Amount); err != nil {
		return Result{}, err
	}
	amount := req.Amount.Round(2)

	var result Result
	err := l.store.WithAccountLock(ctx, userID, func(tx interfaces.AccountTx) error {
		// The lock is held from here on; finish regardless of the caller.
		work := context.WithoutCancel(ctx)

		if req.IdempotencyKey != "" {
			existing, found, err := tx.FindByIdempotencyKey(work, req.IdempotencyKey)
			if err != nil {
				return err
			}
			if found {
				result = Result{Transaction: existing, Balance: tx.Account().Balance, Replayed: true}
				return nil
			}
		}

		newBalance, err := applyEffect(tx.Account().Balance, req.Type, amount)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		record := models.Transaction{
			ID:                     uuid.New().String(),
			UserID:                 userID,
			Type:                   req.Type,
			Amount:                 amount,
			Description:            req.Metadata.Description,
			Merchant:               req.Metadata.Merchant,
			Category:               req.Metadata.Category,
			RecipientAccountNumber: req.Metadata.RecipientAccountNumber,
			RoutingNumber:          req.Metadata.RoutingNumber,
			Status:                 models.TransactionStatusCompleted,
			BalanceAfter:           newBalance,
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			record.IdempotencyKey = &key
		}

		if err := tx.UpdateBalance(work, newBalance); err != nil {
			return err
		}
		if err := tx.SaveTransaction(work, record); err != nil {
			return err
		}

		result = Result{Transaction: record, Balance: newBalance}
		return nil
	})
	if err != nil {
		return Result{}, normalizeStoreError(err)
	}
	return result, nil
}

// ReverseTransaction marks a transaction reversed without touching the
// balance. Use CompensateTransaction to also undo its balance effect.
func (l *Ledger) ReverseTransaction(ctx context.Context, userID, transactionID string) (models.Transaction, error) {
	start := time.Now()
	result, err := l.reverse(ctx, userID, transactionID, false)
	observe(operationReverse, start, outcomeOf(err))
	if err != nil {
		l.logFailure("ledger reverse transaction failed", err,
			zap.String("user_id", userID),
			zap.String("transaction_id", transactionID),
		)
		return models.Transaction{}, err
	}

	l.logger.Info("ledger reverse transaction success",
		zap.String("user_id", userID),
		zap.String("transaction_id", transactionID),
	)
	l.publishReversed(ctx, result, false)
	return result.Transaction, nil
}

// CompensateTransaction reverses a transaction together with its balance
// effect: a credit is taken back out, a debit is paid back in.
func (l *Ledger) CompensateTransaction(ctx context.Context, userID, transactionID string) (Result, error) {
	start := time.Now()
	result, err := l.reverse(ctx, userID, transactionID, true)
	observe(operationCompensate, start, outcomeOf(err))
	if err != nil {
		l.logFailure("ledger compensate transaction failed", err,
			zap.String("user_id", userID),
			zap.String("transaction_id", transactionID),
		)
		return Result{}, err
	}

	l.logger.Info("ledger compensate transaction success",
		zap.String("user_id", userID),
		zap.String("transaction_id", transactionID),
		zap.String("balance", result.Balance.String()),
	)
	l.publishReversed(ctx, result, true)
	return result, nil
}

func (l *Ledger) reverse(ctx context.Context, userID, transactionID string, correctBalance bool) (Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Result{}, ErrMissingUser
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return Result{}, ErrTransactionNotFound
	}

	var result Result
	err := l.store.WithAccountLock(ctx, userID, func(tx interfaces.AccountTx) error {
		work := context.WithoutCancel(ctx)

		original, err := tx.GetTransaction(work, transactionID)
		if err != nil {
			return err
		}
		if original.Status == models.TransactionStatusReversed {
			return ErrAlreadyReversed
		}

		balance := tx.Account().Balance
		if correctBalance {
			balance, err = applyEffect(balance, original.Type.Opposite(), original.Amount)
			if err != nil {
				return err
			}
			if err := tx.UpdateBalance(work, balance); err != nil {
				return err
			}
		}

		if err := tx.UpdateTransactionStatus(work, original.ID, models.TransactionStatusReversed); err != nil {
			return err
		}

		original.Status = models.TransactionStatusReversed
		original.UpdatedAt = time.Now().UTC()
		result = Result{Transaction: original, Balance: balance}
		return nil
	})
	if err != nil {
		return Result{}, normalizeStoreError(err)
	}
	return result, nil
}

// OpenAccount creates a zero-balance wallet for the user.
func (l *Ledger) OpenAccount(ctx context.Context, userID string) (models.Account, error) {
	start := time.Now()
	account, err := l.openAccount(ctx, userID)
	observe(operationOpen, start, outcomeOf(err))
	if err != nil {
		l.logFailure("ledger open account failed", err, zap.String("user_id", userID))
		return models.Account{}, err
	}

	l.logger.Info("ledger open account success",
		zap.String("user_id", account.UserID),
		zap.String("account_number", account.AccountNumber),
	)
	return account, nil
}

func (l *Ledger) openAccount(ctx context.Context, userID string) (models.Account, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Account{}, ErrMissingUser
	}

	var err error
	for attempt := 0; attempt < accountNumberAttempts; attempt++ {
		var account models.Account
		account, err = l.store.OpenAccount(ctx, models.Account{
			UserID:        userID,
			AccountNumber: generateAccountNumber(),
			Balance:       decimal.Zero,
		})
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, storage.ErrAccountNumberTaken) {
			return models.Account{}, err
		}
	}
	return models.Account{}, fmt.Errorf("generate unique account number: %w", err)
}

func (l *Ledger) GetAccount(ctx context.Context, userID string) (models.Account, error) {
	return l.store.GetAccount(ctx, strings.TrimSpace(userID))
}

func (l *Ledger) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	account, err := l.GetAccount(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// ListTransactions returns the user's transactions, newest first.
func (l *Ledger) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	userID = strings.TrimSpace(userID)
	if _, err := l.store.GetAccount(ctx, userID); err != nil {
		return nil, err
	}
	return l.store.ListTransactions(ctx, userID)
}

func (l *Ledger) GetTransaction(ctx context.Context, userID, transactionID string) (models.Transaction, error) {
	return l.store.GetTransaction(ctx, strings.TrimSpace(userID), strings.TrimSpace(transactionID))
}

// normalizeStoreError turns the store's numeric guards into domain errors;
// they only fire if a check above was bypassed.
func normalizeStoreError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNegativeBalance):
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	case errors.Is(err, storage.ErrValueOutOfRange):
		return fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	return err
}

func (l *Ledger) publishReversed(ctx context.Context, result Result, corrected bool) {
	l.publish(ctx, events.TopicTransactionReversed, events.TransactionReversed{
		TransactionID:    result.Transaction.ID,
		UserID:           result.Transaction.UserID,
		Type:             string(result.Transaction.Type),
		Amount:           result.Transaction.Amount,
		BalanceCorrected: corrected,
		BalanceAfter:     result.Balance,
		OccurredAt:       result.Transaction.UpdatedAt,
	})
}

// publish runs after commit, so a failure here is logged and counted but
// never reported to the caller.
func (l *Ledger) publish(ctx context.Context, topic string, event any) {
	if l.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := l.publisher.Publish(pubCtx, topic, event); err != nil {
		eventPublishErrors.WithLabelValues(topic).Inc()
		l.logger.Error("ledger event publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

func (l *Ledger) logFailure(message string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch outcomeOf(err) {
	case "error", "transient":
		l.logger.Error(message, fields...)
	default:
		l.logger.Info(message, fields...)
	}
}

func generateAccountNumber() string {
	return fmt.Sprintf("AC%08d", rand.Intn(90000000)+10000000)
}

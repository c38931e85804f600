package accounts_test

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/sheikh-saqib/wallet-ledger-service/internal/accounts"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/models"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userID = "user-1"

func newService(t *testing.T) *accounts.Service {
	t.Helper()
	store := memory.NewMemoryLedgerStore()
	_, err := store.OpenAccount(context.Background(), models.Account{
		UserID:        userID,
		AccountNumber: "AC10000001",
		Balance:       decimal.Zero,
	})
	require.NoError(t, err)
	return accounts.NewService(store, nil)
}

func create(t *testing.T, s *accounts.Service, name string) models.BankAccount {
	t.Helper()
	account, err := s.Create(context.Background(), userID, accounts.CreateRequest{
		Name:     name,
		Type:     models.BankAccountTypeChecking,
		Currency: "usd",
	})
	require.NoError(t, err)
	return account
}

func primaries(t *testing.T, s *accounts.Service) []string {
	t.Helper()
	list, err := s.List(context.Background(), userID)
	require.NoError(t, err)

	var ids []string
	for _, a := range list {
		if a.IsPrimary {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func TestService_Create(t *testing.T) {
	s := newService(t)

	first := create(t, s, "Everyday")
	assert.True(t, first.IsPrimary)
	assert.Equal(t, models.BankAccountStatusActive, first.Status)
	assert.Equal(t, "USD", first.Currency)
	assert.Regexp(t, regexp.MustCompile(`^ACCT-[0-9A-F]{13}$`), first.AccountNumber)

	second := create(t, s, "Savings")
	assert.False(t, second.IsPrimary)
	assert.NotEqual(t, first.AccountNumber, second.AccountNumber)

	list, err := s.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestService_Create_Invalid(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, userID, accounts.CreateRequest{Name: " ", Type: models.BankAccountTypeSavings, Currency: "USD"})
	assert.ErrorIs(t, err, accounts.ErrInvalidAccount)

	_, err = s.Create(ctx, userID, accounts.CreateRequest{Name: "x", Type: "loan", Currency: "USD"})
	assert.ErrorIs(t, err, accounts.ErrInvalidAccount)

	_, err = s.Create(ctx, "nobody", accounts.CreateRequest{Name: "x", Type: models.BankAccountTypeSavings, Currency: "USD"})
	assert.ErrorIs(t, err, accounts.ErrWalletNotFound)

	_, err = s.Create(ctx, "", accounts.CreateRequest{Name: "x", Type: models.BankAccountTypeSavings, Currency: "USD"})
	assert.ErrorIs(t, err, accounts.ErrMissingUser)
}

func TestService_Create_ConcurrentFirstAccounts(t *testing.T) {
	s := newService(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(context.Background(), userID, accounts.CreateRequest{
				Name:     "Pot",
				Type:     models.BankAccountTypeSavings,
				Currency: "USD",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, primaries(t, s), 1)
}

func TestService_SetPrimary(t *testing.T) {
	s := newService(t)
	first := create(t, s, "Everyday")
	second := create(t, s, "Savings")

	updated, err := s.SetPrimary(context.Background(), userID, second.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsPrimary)
	assert.Equal(t, []string{second.ID}, primaries(t, s))

	got, err := s.Get(context.Background(), userID, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPrimary)

	_, err = s.SetPrimary(context.Background(), userID, "missing")
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	first := create(t, s, "Everyday")
	second := create(t, s, "Savings")

	name := "  Rainy day "
	frozen := models.BankAccountStatusFrozen
	updated, err := s.Update(ctx, userID, second.ID, accounts.UpdateRequest{Name: &name, Status: &frozen})
	require.NoError(t, err)
	assert.Equal(t, "Rainy day", updated.Name)
	assert.Equal(t, models.BankAccountStatusFrozen, updated.Status)
	assert.False(t, updated.UpdatedAt.Before(second.UpdatedAt))

	primary := true
	updated, err = s.Update(ctx, userID, second.ID, accounts.UpdateRequest{IsPrimary: &primary})
	require.NoError(t, err)
	assert.True(t, updated.IsPrimary)
	assert.Equal(t, []string{second.ID}, primaries(t, s))

	// closing through update hands the primary flag back
	closed := models.BankAccountStatusClosed
	updated, err = s.Update(ctx, userID, second.ID, accounts.UpdateRequest{Status: &closed})
	require.NoError(t, err)
	assert.Equal(t, models.BankAccountStatusClosed, updated.Status)
	assert.False(t, updated.IsPrimary)
	assert.Equal(t, []string{first.ID}, primaries(t, s))

	empty := " "
	_, err = s.Update(ctx, userID, first.ID, accounts.UpdateRequest{Name: &empty})
	assert.ErrorIs(t, err, accounts.ErrInvalidAccount)

	_, err = s.Update(ctx, userID, second.ID, accounts.UpdateRequest{IsPrimary: &primary})
	assert.ErrorIs(t, err, accounts.ErrAccountClosed)
}

func TestService_Close(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	first := create(t, s, "Everyday")

	_, err := s.Close(ctx, userID, first.ID)
	assert.ErrorIs(t, err, accounts.ErrOnlyAccount)

	second := create(t, s, "Savings")
	third := create(t, s, "Business")

	closed, err := s.Close(ctx, userID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BankAccountStatusClosed, closed.Status)
	assert.False(t, closed.IsPrimary)

	// the oldest remaining open account takes over as primary
	assert.Equal(t, []string{second.ID}, primaries(t, s))

	_, err = s.Close(ctx, userID, first.ID)
	assert.ErrorIs(t, err, accounts.ErrAccountClosed)

	_, err = s.Close(ctx, userID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID}, primaries(t, s))

	// closed accounts do not count: third is now the only open one
	_, err = s.Close(ctx, userID, third.ID)
	assert.ErrorIs(t, err, accounts.ErrOnlyAccount)

	list, err := s.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestService_AccountsAreScopedToUser(t *testing.T) {
	s := newService(t)
	first := create(t, s, "Everyday")

	_, err := s.Get(context.Background(), "user-2", first.ID)
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)

	_, err = s.List(context.Background(), "user-2")
	assert.ErrorIs(t, err, accounts.ErrWalletNotFound)
}

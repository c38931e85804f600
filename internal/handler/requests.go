package handler

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/sheikh-saqib/wallet-ledger-service/internal/ledger"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/models"
	"github.com/shopspring/decimal"
)

const (
	maxDescriptionLength   = 255
	maxMerchantLength      = 255
	maxCategoryLength      = 100
	maxAccountNumberLength = 50

	defaultFundDescription = "Wallet funding"
	defaultSendDescription = "Money transfer"
)

var minAmount = decimal.New(1, -2)

type CreateTransactionRequest struct {
	Type                   string          `json:"type"`
	Amount                 decimal.Decimal `json:"amount"`
	Description            string          `json:"description"`
	Merchant               *string         `json:"merchant"`
	Category               *string         `json:"category"`
	RecipientAccountNumber *string         `json:"recipient_account_number"`
	RoutingNumber          *string         `json:"routing_number"`
}

func (r CreateTransactionRequest) Validate() error {
	var errs []string

	switch models.TransactionType(strings.ToLower(strings.TrimSpace(r.Type))) {
	case models.TransactionTypeCredit, models.TransactionTypeDebit:
	default:
		errs = append(errs, "type must be one of credit, debit")
	}

	errs = append(errs, validateAmount(r.Amount)...)

	description := strings.TrimSpace(r.Description)
	if description == "" {
		errs = append(errs, "description is required")
	}
	if charLen(description) > maxDescriptionLength {
		errs = append(errs, "description must not exceed 255 characters")
	}
	if tooLong(r.Merchant, maxMerchantLength) {
		errs = append(errs, "merchant must not exceed 255 characters")
	}
	if tooLong(r.Category, maxCategoryLength) {
		errs = append(errs, "category must not exceed 100 characters")
	}
	if tooLong(r.RecipientAccountNumber, maxAccountNumberLength) {
		errs = append(errs, "recipient_account_number must not exceed 50 characters")
	}
	if tooLong(r.RoutingNumber, maxAccountNumberLength) {
		errs = append(errs, "routing_number must not exceed 50 characters")
	}

	return joinErrors(errs)
}

func (r CreateTransactionRequest) toLedgerRequest(idempotencyKey string) ledger.TransactionRequest {
	return ledger.TransactionRequest{
		Type:           models.TransactionType(strings.ToLower(strings.TrimSpace(r.Type))),
		Amount:         r.Amount,
		IdempotencyKey: idempotencyKey,
		Metadata: models.TransactionMetadata{
			Description:            strings.TrimSpace(r.Description),
			Merchant:               trimmed(r.Merchant),
			Category:               trimmed(r.Category),
			RecipientAccountNumber: trimmed(r.RecipientAccountNumber),
			RoutingNumber:          trimmed(r.RoutingNumber),
		},
	}
}

type FundWalletRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (r FundWalletRequest) Validate() error {
	errs := validateAmount(r.Amount)
	if charLen(r.Description) > maxDescriptionLength {
		errs = append(errs, "description must not exceed 255 characters")
	}
	return joinErrors(errs)
}

func (r FundWalletRequest) toLedgerRequest(idempotencyKey string) ledger.TransactionRequest {
	return ledger.TransactionRequest{
		Type:           models.TransactionTypeCredit,
		Amount:         r.Amount,
		IdempotencyKey: idempotencyKey,
		Metadata: models.TransactionMetadata{
			Description: withDefault(r.Description, defaultFundDescription),
		},
	}
}

type SendMoneyRequest struct {
	Amount                 decimal.Decimal `json:"amount"`
	RecipientAccountNumber string          `json:"recipient_account_number"`
	RoutingNumber          *string         `json:"routing_number"`
	Description            string          `json:"description"`
}

func (r SendMoneyRequest) Validate() error {
	errs := validateAmount(r.Amount)

	recipient := strings.TrimSpace(r.RecipientAccountNumber)
	if recipient == "" {
		errs = append(errs, "recipient_account_number is required")
	}
	if charLen(recipient) > maxAccountNumberLength {
		errs = append(errs, "recipient_account_number must not exceed 50 characters")
	}
	if tooLong(r.RoutingNumber, maxAccountNumberLength) {
		errs = append(errs, "routing_number must not exceed 50 characters")
	}
	if charLen(r.Description) > maxDescriptionLength {
		errs = append(errs, "description must not exceed 255 characters")
	}
	return joinErrors(errs)
}

func (r SendMoneyRequest) toLedgerRequest(idempotencyKey string) ledger.TransactionRequest {
	recipient := strings.TrimSpace(r.RecipientAccountNumber)
	return ledger.TransactionRequest{
		Type:           models.TransactionTypeDebit,
		Amount:         r.Amount,
		IdempotencyKey: idempotencyKey,
		Metadata: models.TransactionMetadata{
			Description:            withDefault(r.Description, defaultSendDescription),
			RecipientAccountNumber: &recipient,
			RoutingNumber:          trimmed(r.RoutingNumber),
		},
	}
}

func validateAmount(amount decimal.Decimal) []string {
	var errs []string
	if amount.LessThan(minAmount) {
		errs = append(errs, "amount must be at least 0.01")
	}
	if amount.GreaterThan(models.MaxAmount) {
		errs = append(errs, "amount must not exceed "+models.MaxAmount.StringFixed(2))
	}
	if !amount.Equal(amount.Round(2)) {
		errs = append(errs, "amount must have at most two decimal places")
	}
	return errs
}

// charLen counts characters, not bytes, to match VARCHAR(n) limits.
func charLen(value string) int {
	return utf8.RuneCountInString(strings.TrimSpace(value))
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func tooLong(value *string, max int) bool {
	return value != nil && charLen(*value) > max
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func withDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

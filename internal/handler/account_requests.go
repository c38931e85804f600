package handler

import (
	"strings"

	"github.com/sheikh-saqib/wallet-ledger-service/internal/accounts"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/models"
)

const (
	maxAccountNameLength = 100
	maxCurrencyLength    = 10
)

type CreateAccountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
}

func (r CreateAccountRequest) Validate() error {
	var errs []string

	name := strings.TrimSpace(r.Name)
	if name == "" {
		errs = append(errs, "name is required")
	}
	if charLen(name) > maxAccountNameLength {
		errs = append(errs, "name must not exceed 100 characters")
	}
	if !models.BankAccountType(strings.ToLower(strings.TrimSpace(r.Type))).Valid() {
		errs = append(errs, "type must be one of checking, savings, business, wallet")
	}
	currency := strings.TrimSpace(r.Currency)
	if currency == "" {
		errs = append(errs, "currency is required")
	}
	if charLen(currency) > maxCurrencyLength {
		errs = append(errs, "currency must not exceed 10 characters")
	}

	return joinErrors(errs)
}

func (r CreateAccountRequest) toServiceRequest() accounts.CreateRequest {
	return accounts.CreateRequest{
		Name:     strings.TrimSpace(r.Name),
		Type:     models.BankAccountType(strings.ToLower(strings.TrimSpace(r.Type))),
		Currency: strings.TrimSpace(r.Currency),
	}
}

type UpdateAccountRequest struct {
	Name      *string `json:"name"`
	Status    *string `json:"status"`
	IsPrimary *bool   `json:"is_primary"`
}

func (r UpdateAccountRequest) Validate() error {
	var errs []string

	if r.Name != nil {
		if strings.TrimSpace(*r.Name) == "" {
			errs = append(errs, "name must not be empty")
		}
		if tooLong(r.Name, maxAccountNameLength) {
			errs = append(errs, "name must not exceed 100 characters")
		}
	}
	if r.Status != nil && !models.BankAccountStatus(strings.ToLower(strings.TrimSpace(*r.Status))).Valid() {
		errs = append(errs, "status must be one of active, closed, frozen")
	}

	return joinErrors(errs)
}

func (r UpdateAccountRequest) toServiceRequest() accounts.UpdateRequest {
	req := accounts.UpdateRequest{
		Name:      trimmed(r.Name),
		IsPrimary: r.IsPrimary,
	}
	if r.Status != nil {
		status := models.BankAccountStatus(strings.ToLower(strings.TrimSpace(*r.Status)))
		req.Status = &status
	}
	return req
}

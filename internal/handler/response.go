package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sheikh-saqib/wallet-ledger-service/internal/accounts"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/ledger"
)

type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// errorStatus maps ledger errors onto HTTP status codes and the message shown
// to the caller. Unknown errors are reported without their details.
func errorStatus(err error) (int, string, []string) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidTransactionType):
		return http.StatusBadRequest, "invalid transaction", []string{err.Error()}
	case errors.Is(err, ledger.ErrMissingUser), errors.Is(err, accounts.ErrMissingUser):
		return http.StatusUnauthorized, "unauthorized", nil
	case errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound, "Wallet not found", []string{"Open a wallet with POST /wallet first"}
	case errors.Is(err, accounts.ErrAccountNotFound):
		return http.StatusNotFound, "Account not found", []string{err.Error()}
	case errors.Is(err, ledger.ErrTransactionNotFound):
		return http.StatusNotFound, "Transaction not found", []string{err.Error()}
	case errors.Is(err, ledger.ErrAlreadyReversed):
		return http.StatusConflict, "Transaction already reversed", nil
	case errors.Is(err, ledger.ErrAccountExists):
		return http.StatusConflict, "Wallet already exists", nil
	case errors.Is(err, accounts.ErrAccountClosed):
		return http.StatusConflict, "Account is closed", []string{err.Error()}
	case errors.Is(err, accounts.ErrOnlyAccount):
		return http.StatusUnprocessableEntity, "You cannot close your only account.", nil
	case errors.Is(err, accounts.ErrInvalidAccount):
		return http.StatusBadRequest, "invalid account", []string{err.Error()}
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "Insufficient balance", []string{"The amount exceeds the available balance"}
	case errors.Is(err, ledger.ErrBalanceLimitExceeded):
		return http.StatusUnprocessableEntity, "Balance limit exceeded", []string{err.Error()}
	case errors.Is(err, ledger.ErrTransient):
		return http.StatusServiceUnavailable, "service temporarily unavailable", []string{"Please retry the request later"}
	default:
		return http.StatusInternalServerError, "failed to process request", []string{"Unable to process request right now"}
	}
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/ledger"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	maxBodyBytes         = 1 << 20
	maxIdempotencyKeyLen = 255
)

type LedgerService interface {
	OpenAccount(ctx context.Context, userID string) (models.Account, error)
	GetAccount(ctx context.Context, userID string) (models.Account, error)
	ApplyTransaction(ctx context.Context, userID string, req ledger.TransactionRequest) (ledger.Result, error)
	ReverseTransaction(ctx context.Context, userID, transactionID string) (models.Transaction, error)
	CompensateTransaction(ctx context.Context, userID, transactionID string) (ledger.Result, error)
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (models.Transaction, error)
}

type TransactionResult struct {
	Transaction models.Transaction `json:"transaction"`
	Balance     decimal.Decimal    `json:"balance"`
}

type BalanceResult struct {
	UserID        string          `json:"user_id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
}

type TransactionHandler struct {
	ledger LedgerService
	logger *zap.Logger
}

func NewTransactionHandler(ledger LedgerService, logger *zap.Logger) *TransactionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionHandler{ledger: ledger, logger: logger}
}

// RegisterRoutes mounts the wallet endpoints. Every route needs a caller identity.
func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequireUser)

		r.Post("/wallet", h.openWallet)
		r.Get("/balance", h.getBalance)

		r.Get("/transactions", h.listTransactions)
		r.Post("/transactions", h.createTransaction)
		r.Get("/transactions/{id}", h.getTransaction)
		r.Delete("/transactions/{id}", h.reverseTransaction)
		r.Post("/transactions/{id}/reverse", h.compensateTransaction)

		r.Post("/fund-wallet", h.fundWallet)
		r.Post("/send-money", h.sendMoney)
	})
}

func (h *TransactionHandler) openWallet(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.OpenAccount(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SuccessResponse("Wallet opened", account))
}

func (h *TransactionHandler) getBalance(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.GetAccount(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Balance retrieved", BalanceResult{
		UserID:        account.UserID,
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance,
	}))
}

func (h *TransactionHandler) listTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.ledger.ListTransactions(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Transactions retrieved", transactions))
}

func (h *TransactionHandler) getTransaction(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.ledger.GetTransaction(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Transaction retrieved", transaction))
}

func (h *TransactionHandler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse[TransactionResult]("validation failed", err.Error()))
		return
	}
	h.apply(w, r, req.toLedgerRequest(idempotencyKey(r)))
}

func (h *TransactionHandler) fundWallet(w http.ResponseWriter, r *http.Request) {
	var req FundWalletRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse[TransactionResult]("validation failed", err.Error()))
		return
	}
	h.apply(w, r, req.toLedgerRequest(idempotencyKey(r)))
}

func (h *TransactionHandler) sendMoney(w http.ResponseWriter, r *http.Request) {
	var req SendMoneyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse[TransactionResult]("validation failed", err.Error()))
		return
	}
	h.apply(w, r, req.toLedgerRequest(idempotencyKey(r)))
}

func (h *TransactionHandler) apply(w http.ResponseWriter, r *http.Request, req ledger.TransactionRequest) {
	if utf8.RuneCountInString(req.IdempotencyKey) > maxIdempotencyKeyLen {
		writeJSON(w, http.StatusBadRequest, ErrorResponse[TransactionResult]("validation failed", IdempotencyKeyHeader+" must not exceed 255 characters"))
		return
	}

	result, err := h.ledger.ApplyTransaction(r.Context(), UserIDFromContext(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, SuccessResponse("Transaction successful", TransactionResult{
		Transaction: result.Transaction,
		Balance:     result.Balance,
	}))
}

func (h *TransactionHandler) reverseTransaction(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.ledger.ReverseTransaction(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Transaction reversed successfully", transaction))
}

func (h *TransactionHandler) compensateTransaction(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledger.CompensateTransaction(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Transaction reversed and balance restored", TransactionResult{
		Transaction: result.Transaction,
		Balance:     result.Balance,
	}))
}

func (h *TransactionHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeBody(w, r, dst)
}

func (h *TransactionHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(h.logger, w, r, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse[struct{}]("invalid request body", err.Error()))
		return false
	}
	return true
}

func writeError(logger *zap.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status, message, details := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("http handler error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, ErrorResponse[struct{}](message, details...))
}

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
}

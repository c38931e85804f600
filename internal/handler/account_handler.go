package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/accounts"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/models"
	"go.uber.org/zap"
)

type AccountService interface {
	Create(ctx context.Context, userID string, req accounts.CreateRequest) (models.BankAccount, error)
	List(ctx context.Context, userID string) ([]models.BankAccount, error)
	Get(ctx context.Context, userID, accountID string) (models.BankAccount, error)
	Update(ctx context.Context, userID, accountID string, req accounts.UpdateRequest) (models.BankAccount, error)
	Close(ctx context.Context, userID, accountID string) (models.BankAccount, error)
	SetPrimary(ctx context.Context, userID, accountID string) (models.BankAccount, error)
}

type AccountHandler struct {
	accounts AccountService
	logger   *zap.Logger
}

func NewAccountHandler(accounts AccountService, logger *zap.Logger) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountHandler{accounts: accounts, logger: logger}
}

func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequireUser)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.list)
			r.Post("/", h.create)
			r.Get("/{id}", h.get)
			r.Put("/{id}", h.update)
			r.Patch("/{id}", h.update)
			r.Delete("/{id}", h.close)
			r.Post("/{id}/primary", h.setPrimary)
		})
	})
}

func (h *AccountHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.accounts.List(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Accounts retrieved", list))
}

func (h *AccountHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse[models.BankAccount]("validation failed", err.Error()))
		return
	}

	account, err := h.accounts.Create(r.Context(), UserIDFromContext(r.Context()), req.toServiceRequest())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	message := "Account created successfully"
	if account.IsPrimary {
		message = "Primary account created successfully"
	}
	writeJSON(w, http.StatusCreated, SuccessResponse(message, account))
}

func (h *AccountHandler) get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Get(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Account retrieved", account))
}

func (h *AccountHandler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse[models.BankAccount]("validation failed", err.Error()))
		return
	}

	account, err := h.accounts.Update(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.toServiceRequest())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Account updated successfully", account))
}

func (h *AccountHandler) close(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Close(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Account closed successfully", account))
}

func (h *AccountHandler) setPrimary(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.SetPrimary(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Primary account updated successfully", account))
}

func (h *AccountHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(h.logger, w, r, err)
}

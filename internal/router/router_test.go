package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sheikh-saqib/wallet-ledger-service/internal/accounts"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/handler"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/ledger"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newRouter(t *testing.T) (http.Handler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	store := memory.NewMemoryLedgerStore()
	th := handler.NewTransactionHandler(ledger.NewLedger(store, nil, logger), logger)
	ah := handler.NewAccountHandler(accounts.NewService(store, logger), logger)
	return SetupRoutes(th, ah, logger), logs
}

func TestSetupRoutes_Health(t *testing.T) {
	r, logs := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	entries := logs.FilterMessage("http request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "/health", fields["path"])
		assert.EqualValues(t, http.StatusOK, fields["status"])
		assert.NotEmpty(t, fields["request_id"])
	}
}

func TestSetupRoutes_Metrics(t *testing.T) {
	r, _ := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSetupRoutes_WalletRoutesNeedUser(t *testing.T) {
	r, _ := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/balance", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/balance", nil)
	req.Header.Set(handler.UserIDHeader, "user-1")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

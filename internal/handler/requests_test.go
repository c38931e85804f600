package handler

import (
	"strings"
	"testing"

	"github.com/sheikh-saqib/wallet-ledger-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateTransactionRequest_Validate(t *testing.T) {
	valid := CreateTransactionRequest{
		Type:        "credit",
		Amount:      decimal.RequireFromString("10.50"),
		Description: "Salary",
	}

	tests := []struct {
		name    string
		mutate  func(r *CreateTransactionRequest)
		wantErr string
	}{
		{name: "valid", mutate: func(r *CreateTransactionRequest) {}},
		{name: "upper case type", mutate: func(r *CreateTransactionRequest) { r.Type = " DEBIT " }},
		{name: "multibyte description within limit", mutate: func(r *CreateTransactionRequest) { r.Description = strings.Repeat("é", 200) }},
		{name: "multibyte description at limit", mutate: func(r *CreateTransactionRequest) { r.Description = strings.Repeat("日", 255) }},
		{name: "multibyte description over limit", mutate: func(r *CreateTransactionRequest) { r.Description = strings.Repeat("é", 256) }, wantErr: "description must not exceed"},
		{name: "multibyte merchant within limit", mutate: func(r *CreateTransactionRequest) { r.Merchant = strPtr(strings.Repeat("ü", 255)) }},
		{name: "largest amount", mutate: func(r *CreateTransactionRequest) { r.Amount = decimal.RequireFromString("9999999999999.99") }},
		{name: "amount over column range", mutate: func(r *CreateTransactionRequest) { r.Amount = decimal.RequireFromString("10000000000000.00") }, wantErr: "amount must not exceed 9999999999999.99"},
		{name: "bad type", mutate: func(r *CreateTransactionRequest) { r.Type = "refund" }, wantErr: "type must be one of"},
		{name: "below minimum", mutate: func(r *CreateTransactionRequest) { r.Amount = decimal.RequireFromString("0.001") }, wantErr: "at least 0.01"},
		{name: "three decimals", mutate: func(r *CreateTransactionRequest) { r.Amount = decimal.RequireFromString("2.345") }, wantErr: "two decimal places"},
		{name: "blank description", mutate: func(r *CreateTransactionRequest) { r.Description = "   " }, wantErr: "description is required"},
		{name: "long description", mutate: func(r *CreateTransactionRequest) { r.Description = strings.Repeat("d", 256) }, wantErr: "description must not exceed"},
		{name: "long merchant", mutate: func(r *CreateTransactionRequest) { r.Merchant = strPtr(strings.Repeat("m", 256)) }, wantErr: "merchant"},
		{name: "long category", mutate: func(r *CreateTransactionRequest) { r.Category = strPtr(strings.Repeat("c", 101)) }, wantErr: "category"},
		{name: "long recipient", mutate: func(r *CreateTransactionRequest) { r.RecipientAccountNumber = strPtr(strings.Repeat("1", 51)) }, wantErr: "recipient_account_number"},
		{name: "long routing", mutate: func(r *CreateTransactionRequest) { r.RoutingNumber = strPtr(strings.Repeat("1", 51)) }, wantErr: "routing_number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateTransactionRequest_ValidateJoinsErrors(t *testing.T) {
	err := CreateTransactionRequest{Type: "x"}.Validate()
	require.Error(t, err)
	assert.Equal(t, "type must be one of credit, debit; amount must be at least 0.01; description is required", err.Error())
}

func TestCreateTransactionRequest_ToLedgerRequest(t *testing.T) {
	req := CreateTransactionRequest{
		Type:        " Debit ",
		Amount:      decimal.RequireFromString("5"),
		Description: "  Lunch ",
		Merchant:    strPtr(" Deli "),
		Category:    strPtr("   "),
	}

	out := req.toLedgerRequest("key-1")
	assert.Equal(t, models.TransactionTypeDebit, out.Type)
	assert.Equal(t, "key-1", out.IdempotencyKey)
	assert.Equal(t, "Lunch", out.Metadata.Description)
	require.NotNil(t, out.Metadata.Merchant)
	assert.Equal(t, "Deli", *out.Metadata.Merchant)
	assert.Nil(t, out.Metadata.Category)
}

func TestWrapperRequests(t *testing.T) {
	fund := FundWalletRequest{Amount: decimal.NewFromInt(20)}
	require.NoError(t, fund.Validate())
	assert.Equal(t, models.TransactionTypeCredit, fund.toLedgerRequest("").Type)
	assert.Equal(t, "Wallet funding", fund.toLedgerRequest("").Metadata.Description)

	send := SendMoneyRequest{Amount: decimal.NewFromInt(20), RecipientAccountNumber: " AC12345678 ", Description: "Rent"}
	require.NoError(t, send.Validate())
	out := send.toLedgerRequest("")
	assert.Equal(t, models.TransactionTypeDebit, out.Type)
	assert.Equal(t, "Rent", out.Metadata.Description)
	assert.Equal(t, "AC12345678", *out.Metadata.RecipientAccountNumber)

	assert.Error(t, SendMoneyRequest{Amount: decimal.NewFromInt(1)}.Validate())
	assert.Error(t, FundWalletRequest{}.Validate())
	assert.Error(t, FundWalletRequest{Amount: decimal.RequireFromString("99999999999999999999999.99")}.Validate())
	assert.NoError(t, SendMoneyRequest{Amount: decimal.NewFromInt(1), RecipientAccountNumber: strings.Repeat("ñ", 50)}.Validate())
}

func TestCreateAccountRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateAccountRequest
		wantErr string
	}{
		{name: "valid", req: CreateAccountRequest{Name: "Holiday fund", Type: "savings", Currency: "USD"}},
		{name: "upper case type", req: CreateAccountRequest{Name: "Main", Type: "CHECKING", Currency: "eur"}},
		{name: "multibyte name at limit", req: CreateAccountRequest{Name: strings.Repeat("é", 100), Type: "wallet", Currency: "USD"}},
		{name: "missing name", req: CreateAccountRequest{Type: "savings", Currency: "USD"}, wantErr: "name is required"},
		{name: "long name", req: CreateAccountRequest{Name: strings.Repeat("n", 101), Type: "savings", Currency: "USD"}, wantErr: "name must not exceed"},
		{name: "bad type", req: CreateAccountRequest{Name: "x", Type: "loan", Currency: "USD"}, wantErr: "type must be one of"},
		{name: "missing currency", req: CreateAccountRequest{Name: "x", Type: "savings"}, wantErr: "currency is required"},
		{name: "long currency", req: CreateAccountRequest{Name: "x", Type: "savings", Currency: "DOLLARS-USD"}, wantErr: "currency must not exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUpdateAccountRequest_Validate(t *testing.T) {
	assert.NoError(t, UpdateAccountRequest{}.Validate())
	assert.NoError(t, UpdateAccountRequest{Name: strPtr("Renamed"), Status: strPtr("Frozen")}.Validate())
	assert.Error(t, UpdateAccountRequest{Name: strPtr("  ")}.Validate())
	assert.Error(t, UpdateAccountRequest{Status: strPtr("deleted")}.Validate())

	out := UpdateAccountRequest{Status: strPtr(" CLOSED ")}.toServiceRequest()
	require.NotNil(t, out.Status)
	assert.Equal(t, models.BankAccountStatusClosed, *out.Status)
}

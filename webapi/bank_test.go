package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/coinedge/bitcard/pkg/auth"
	"github.com/coinedge/bitcard/pkg/provider"
	banklinksvc "github.com/coinedge/bitcard/pkg/service/banklink"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAggregator struct {
	configured bool
	accounts   []provider.LinkedAccount
}

func (f *fakeAggregator) Configured() bool { return f.configured }

func (f *fakeAggregator) CreateLinkToken(ctx context.Context, userToken string) (string, error) {
	return "link-token-1", nil
}

func (f *fakeAggregator) ExchangePublicToken(ctx context.Context, publicToken string) ([]provider.LinkedAccount, error) {
	return f.accounts, nil
}

type memBankRepo struct {
	mu       sync.Mutex
	accounts map[string]banklinksvc.Account
}

func newMemBankRepo() *memBankRepo {
	return &memBankRepo{accounts: make(map[string]banklinksvc.Account)}
}

func (r *memBankRepo) Upsert(ctx context.Context, account banklinksvc.Account) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := account.UserID.String() + "/" + account.Fingerprint()
	if _, ok := r.accounts[key]; ok {
		return false, nil
	}
	r.accounts[key] = account
	return true, nil
}

func (r *memBankRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]banklinksvc.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []banklinksvc.Account
	for _, a := range r.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func walletChain(token string) *auth.Chain {
	return auth.NewChain(testLogger(), &auth.WalletTokenProvider{
		GetToken: func(ctx context.Context) (string, bool) {
			return token, token != ""
		},
	})
}

func bankApp(agg provider.BankAggregator, creds *auth.Chain) *fiber.App {
	svc := banklinksvc.New(agg, creds, newMemBankRepo(), testLogger())
	app := fiber.New()
	BankRoutes(app, svc)
	return app
}

func TestCreateLinkToken(t *testing.T) {
	app := bankApp(&fakeAggregator{configured: true}, walletChain("wallet-token"))

	resp, err := app.Test(httptest.NewRequest("POST", "/api/bank/link-token", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	data := out.Data.(map[string]any)
	assert.Equal(t, "link-token-1", data["link_token"])
}

func TestCreateLinkToken_NotConfigured(t *testing.T) {
	app := bankApp(&fakeAggregator{configured: false}, walletChain("wallet-token"))

	resp, err := app.Test(httptest.NewRequest("POST", "/api/bank/link-token", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestCreateLinkToken_NoCredential(t *testing.T) {
	app := bankApp(&fakeAggregator{configured: true}, walletChain(""))

	resp, err := app.Test(httptest.NewRequest("POST", "/api/bank/link-token", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestExchangePublicToken(t *testing.T) {
	agg := &fakeAggregator{
		configured: true,
		accounts: []provider.LinkedAccount{
			{BankName: "Chase", Mask: "4321"},
		},
	}
	app := bankApp(agg, walletChain("wallet-token"))

	userID := uuid.New()
	body := bytes.NewBufferString(`{"user_id":"` + userID.String() + `","public_token":"public-1"}`)
	req := httptest.NewRequest("POST", "/api/bank/exchange", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Accounts listing returns what was linked.
	resp, err = app.Test(httptest.NewRequest("GET", "/api/bank/accounts/"+userID.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	accounts := out.Data.([]any)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Chase", accounts[0].(map[string]any)["bank_name"])
}

func TestExchangePublicToken_MissingFields(t *testing.T) {
	app := bankApp(&fakeAggregator{configured: true}, walletChain("wallet-token"))

	body := bytes.NewBufferString(`{"public_token":"public-1"}`)
	req := httptest.NewRequest("POST", "/api/bank/exchange", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

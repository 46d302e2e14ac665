package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/coinedge/bitcard/config"
	pkgprovider "github.com/coinedge/bitcard/pkg/provider"
)

// PlaidAggregator implements the BankAggregator interface against the Plaid
// API. An instance with empty credentials reports itself unconfigured;
// callers surface that distinctly from transient failures.
type PlaidAggregator struct {
	clientID   string
	secret     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPlaidAggregator creates a Plaid aggregator from config.
func NewPlaidAggregator(cfg config.PlaidConfig, logger *slog.Logger) *PlaidAggregator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://sandbox.plaid.com"
	}
	return &PlaidAggregator{
		clientID:   cfg.ClientID,
		secret:     cfg.Secret,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logger,
	}
}

// Configured implements provider.BankAggregator.
func (p *PlaidAggregator) Configured() bool {
	return p.clientID != "" && p.secret != ""
}

type plaidLinkTokenRequest struct {
	ClientID     string        `json:"client_id"`
	Secret       string        `json:"secret"`
	ClientName   string        `json:"client_name"`
	Language     string        `json:"language"`
	CountryCodes []string      `json:"country_codes"`
	User         plaidLinkUser `json:"user"`
	Products     []string      `json:"products"`
}

type plaidLinkUser struct {
	ClientUserID string `json:"client_user_id"`
}

type plaidLinkTokenResponse struct {
	LinkToken string `json:"link_token"`
}

// CreateLinkToken implements provider.BankAggregator. userToken identifies
// the authenticated caller to the aggregator.
func (p *PlaidAggregator) CreateLinkToken(ctx context.Context, userToken string) (string, error) {
	req := plaidLinkTokenRequest{
		ClientID:     p.clientID,
		Secret:       p.secret,
		ClientName:   "CoinEdge BitCard",
		Language:     "en",
		CountryCodes: []string{"US"},
		User:         plaidLinkUser{ClientUserID: userToken},
		Products:     []string{"auth"},
	}
	var resp plaidLinkTokenResponse
	if err := p.post(ctx, "/link/token/create", req, &resp); err != nil {
		return "", err
	}
	return resp.LinkToken, nil
}

type plaidExchangeRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	PublicToken string `json:"public_token"`
}

type plaidExchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

type plaidAccountsRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
}

type plaidAccountsResponse struct {
	Accounts []plaidAccount `json:"accounts"`
	Item     plaidItem      `json:"item"`
}

type plaidAccount struct {
	Name         string `json:"name"`
	OfficialName string `json:"official_name"`
	Mask         string `json:"mask"`
}

type plaidItem struct {
	InstitutionName string `json:"institution_name"`
}

// ExchangePublicToken implements provider.BankAggregator: swaps the public
// token for an access token, then reads the selected accounts' metadata.
func (p *PlaidAggregator) ExchangePublicToken(ctx context.Context, publicToken string) ([]pkgprovider.LinkedAccount, error) {
	var exchange plaidExchangeResponse
	err := p.post(ctx, "/item/public_token/exchange", plaidExchangeRequest{
		ClientID:    p.clientID,
		Secret:      p.secret,
		PublicToken: publicToken,
	}, &exchange)
	if err != nil {
		return nil, err
	}

	var accounts plaidAccountsResponse
	err = p.post(ctx, "/accounts/get", plaidAccountsRequest{
		ClientID:    p.clientID,
		Secret:      p.secret,
		AccessToken: exchange.AccessToken,
	}, &accounts)
	if err != nil {
		return nil, err
	}

	linked := make([]pkgprovider.LinkedAccount, 0, len(accounts.Accounts))
	for _, a := range accounts.Accounts {
		bankName := accounts.Item.InstitutionName
		if bankName == "" {
			bankName = a.Name
		}
		linked = append(linked, pkgprovider.LinkedAccount{
			BankName: bankName,
			Mask:     a.Mask,
		})
	}
	p.logger.Info("plaid token exchanged", "accounts", len(linked))
	return linked, nil
}

func (p *PlaidAggregator) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("plaid request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		rawBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("plaid returned status %d: %s", resp.StatusCode, string(rawBody))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

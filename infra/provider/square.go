package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coinedge/bitcard/config"
	pkgprovider "github.com/coinedge/bitcard/pkg/provider"
	"github.com/google/uuid"
)

// SquareTerminalGateway implements the TerminalGateway interface against the
// Square Terminal API.
type SquareTerminalGateway struct {
	accessToken string
	deviceID    string
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewSquareTerminalGateway creates a Square terminal gateway from config.
func NewSquareTerminalGateway(cfg config.SquareConfig, logger *slog.Logger) *SquareTerminalGateway {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://connect.squareup.com"
	}
	return &SquareTerminalGateway{
		accessToken: cfg.AccessToken,
		deviceID:    cfg.DeviceID,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		logger:      logger,
	}
}

type squareCheckoutRequest struct {
	IdempotencyKey string         `json:"idempotency_key"`
	Checkout       squareCheckout `json:"checkout"`
}

type squareCheckout struct {
	ID            string             `json:"id,omitempty"`
	AmountMoney   squareMoney        `json:"amount_money"`
	ReferenceID   string             `json:"reference_id,omitempty"`
	DeviceOptions squareDeviceOption `json:"device_options"`
	DeadlineAt    string             `json:"deadline_duration,omitempty"`
	Status        string             `json:"status,omitempty"`
	PaymentIDs    []string           `json:"payment_ids,omitempty"`
}

type squareMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type squareDeviceOption struct {
	DeviceID string `json:"device_id"`
}

type squareCheckoutResponse struct {
	Checkout squareCheckout `json:"checkout"`
	Errors   []squareError  `json:"errors,omitempty"`
}

type squareError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

// CreateCheckout implements provider.TerminalGateway.
func (g *SquareTerminalGateway) CreateCheckout(ctx context.Context, req pkgprovider.CheckoutRequest) (*pkgprovider.Checkout, error) {
	body := squareCheckoutRequest{
		IdempotencyKey: uuid.NewString(),
		Checkout: squareCheckout{
			AmountMoney: squareMoney{Amount: req.AmountMinor, Currency: req.Currency},
			ReferenceID: req.ReferenceID,
			DeviceOptions: squareDeviceOption{
				DeviceID: g.deviceID,
			},
			DeadlineAt: formatDeadline(req.Deadline),
		},
	}

	var resp squareCheckoutResponse
	if err := g.do(ctx, http.MethodPost, "/v2/terminals/checkouts", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("square rejected checkout: %s (%s)", resp.Errors[0].Detail, resp.Errors[0].Code)
	}

	g.logger.Info("square checkout created",
		"checkout_id", resp.Checkout.ID,
		"reference_id", req.ReferenceID,
		"amount_minor", req.AmountMinor,
	)
	return &pkgprovider.Checkout{CheckoutID: resp.Checkout.ID}, nil
}

// GetCheckoutStatus implements provider.TerminalGateway.
func (g *SquareTerminalGateway) GetCheckoutStatus(ctx context.Context, checkoutID string) (*pkgprovider.CheckoutStatus, error) {
	var resp squareCheckoutResponse
	path := fmt.Sprintf("/v2/terminals/checkouts/%s", checkoutID)
	if err := g.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("square status lookup failed: %s (%s)", resp.Errors[0].Detail, resp.Errors[0].Code)
	}
	return &pkgprovider.CheckoutStatus{
		Status:     resp.Checkout.Status,
		PaymentIDs: resp.Checkout.PaymentIDs,
	}, nil
}

func (g *SquareTerminalGateway) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("square request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("square returned status %d: %s", resp.StatusCode, string(raw))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// formatDeadline renders the remaining time budget as an RFC 3339 duration
// accepted by the terminal API.
func formatDeadline(deadline time.Time) string {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return ""
	}
	return fmt.Sprintf("PT%dS", int(remaining.Seconds()))
}

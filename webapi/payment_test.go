package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coinedge/bitcard/pkg/provider"
	"github.com/coinedge/bitcard/pkg/service/payment"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	createErr error
	status    provider.CheckoutStatus
}

func (g *fakeGateway) CreateCheckout(ctx context.Context, req provider.CheckoutRequest) (*provider.Checkout, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &provider.Checkout{CheckoutID: "chk_web_1"}, nil
}

func (g *fakeGateway) GetCheckoutStatus(ctx context.Context, checkoutID string) (*provider.CheckoutStatus, error) {
	st := g.status
	return &st, nil
}

func paymentApp(gw provider.TerminalGateway) (*fiber.App, *payment.Flow) {
	flow := payment.NewFlow(gw, nil, testLogger(), payment.WithPollInterval(time.Millisecond))
	app := fiber.New()
	PaymentRoutes(app, flow)
	return app, flow
}

func TestCreatePayment(t *testing.T) {
	app, flow := paymentApp(&fakeGateway{status: provider.CheckoutStatus{Status: "PENDING"}})
	defer flow.Reset()

	body := bytes.NewBufferString(`{"amount":100,"currency":"USD","activation_event_id":"evt_1"}`)
	req := httptest.NewRequest("POST", "/api/payments", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	data := out.Data.(map[string]any)
	assert.Equal(t, "chk_web_1", data["checkout_id"])
	assert.Equal(t, "evt_1", data["reference_id"])
	assert.Equal(t, string(payment.StatusPolling), data["status"])
}

func TestCreatePayment_InvalidBody(t *testing.T) {
	app, _ := paymentApp(&fakeGateway{})

	body := bytes.NewBufferString(`{"amount":-5,"currency":"USD"}`)
	req := httptest.NewRequest("POST", "/api/payments", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreatePayment_GatewayFailure(t *testing.T) {
	app, _ := paymentApp(&fakeGateway{createErr: errors.New("gateway down")})

	body := bytes.NewBufferString(`{"amount":100,"currency":"USD"}`)
	req := httptest.NewRequest("POST", "/api/payments", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestCancelPayment(t *testing.T) {
	app, flow := paymentApp(&fakeGateway{status: provider.CheckoutStatus{Status: "PENDING"}})
	defer flow.Reset()

	body := bytes.NewBufferString(`{"amount":50,"currency":"USD"}`)
	req := httptest.NewRequest("POST", "/api/payments", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/api/payments/cancel", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	data := out.Data.(map[string]any)
	assert.Equal(t, string(payment.StatusCanceled), data["status"])
}

func TestGetPaymentSession_Idle(t *testing.T) {
	app, _ := paymentApp(&fakeGateway{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/payments/session", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	data := out.Data.(map[string]any)
	assert.Equal(t, string(payment.StatusIdle), data["status"])
}

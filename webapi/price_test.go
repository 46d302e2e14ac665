package webapi

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coinedge/bitcard/pkg/domain"
	"github.com/coinedge/bitcard/pkg/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPrice_Headers(t *testing.T) {
	app := fiber.New()
	PriceRoutes(app, fixedPrice(64000), ratelimit.New(3, time.Minute))

	req := httptest.NewRequest("GET", "/api/price", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Reset"))
}

func TestGetPrice_RateLimited(t *testing.T) {
	app := fiber.New()
	PriceRoutes(app, fixedPrice(64000), ratelimit.New(1, time.Minute))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/price", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/price", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")
}

func TestGetPrice_OracleDown(t *testing.T) {
	app := fiber.New()
	PriceRoutes(app, &fakePrices{err: domain.ErrAllSourcesUnavailable}, ratelimit.New(10, time.Minute))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/price", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

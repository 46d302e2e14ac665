package webapi

import (
	"strconv"

	"github.com/coinedge/bitcard/pkg/domain"
	"github.com/coinedge/bitcard/pkg/ratelimit"
	quotesvc "github.com/coinedge/bitcard/pkg/service/quote"
	"github.com/gofiber/fiber/v2"
)

// PriceRoutes sets up the public ticker route
func PriceRoutes(app *fiber.App, prices quotesvc.PriceGetter, limiter *ratelimit.Limiter) {
	app.Get("/api/price", GetPrice(prices, limiter))
}

// GetPrice returns the current BTC/USD price from the ticker oracle. Every
// response carries the caller's remaining budget in X-RateLimit headers.
func GetPrice(prices quotesvc.PriceGetter, limiter *ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := limiter.Allow(c.IP())
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		if !decision.Allowed {
			return ErrorResponseJSON(c,
				ErrorToStatusCode(domain.ErrRateLimited),
				"Too Many Requests",
				domain.ErrRateLimited.Error(),
			)
		}

		price, err := prices.GetPrice(c.Context())
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to fetch price", err.Error())
		}

		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Price fetched successfully",
			Data:    price,
		})
	}
}

// Package webapi exposes the HTTP surface: quotes, the public ticker,
// terminal payments, bank linking, and reconciliation operations.
package webapi

import (
	"strings"

	"github.com/coinedge/bitcard/app"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp builds the Fiber app with all routes and middleware.
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return ErrorResponseJSON(c, fiber.StatusInternalServerError, "Internal Server Error", err.Error())
		},
	})

	// Coarse per-client backstop only. The quota sits above the price
	// endpoint's own limiter so over-quota ticker traffic is denied there,
	// where the rate-limit headers are set.
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        a.Config.GlobalLimit.MaxRequests,
		Expiration: a.Config.GlobalLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Use X-Forwarded-For header if available (for load balancers/proxies)
			// Fall back to X-Real-IP, then to direct IP
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				// Take the first IP in the chain
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return ErrorResponseJSON(c, fiber.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
		},
	}))
	fiberApp.Use(recover.New())

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("App is working! 🚀")
	})

	QuoteRoutes(fiberApp, a.QuoteService)
	PriceRoutes(fiberApp, a.TickerOracle, a.TickerLimiter)
	PaymentRoutes(fiberApp, a.PaymentFlow)
	BankRoutes(fiberApp, a.BankLinkService)
	ReconciliationRoutes(fiberApp, a.Reconciliation)
	return fiberApp
}

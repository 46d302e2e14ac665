package webapi

import (
	"github.com/coinedge/bitcard/pkg/money"
	quotesvc "github.com/coinedge/bitcard/pkg/service/quote"
	"github.com/gofiber/fiber/v2"
)

// QuoteRoutes sets up quote-related routes
func QuoteRoutes(app *fiber.App, quoteSvc *quotesvc.Service) {
	quoteGroup := app.Group("/api/quotes")
	quoteGroup.Post("/", CreateQuote(quoteSvc))
}

// CreateQuoteRequest represents the request body for creating a quote
type CreateQuoteRequest struct {
	Type     string  `json:"type" validate:"required,oneof=BUY_BTC SELL_BTC CASHOUT REDEEM"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"required,oneof=USD USDC BTC"`
}

// CreateQuote returns a price-locked conversion offer
func CreateQuote(quoteSvc *quotesvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[CreateQuoteRequest](c)
		if err != nil {
			return nil // Error already written by helper
		}

		amount, err := money.New(input.Amount, money.Code(input.Currency))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid amount", err.Error())
		}

		q, err := quoteSvc.CreateQuote(c.Context(), quotesvc.Type(input.Type), amount)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to create quote", err.Error())
		}

		return c.Status(fiber.StatusCreated).JSON(Response{
			Status:  fiber.StatusCreated,
			Message: "Quote created successfully",
			Data:    q,
		})
	}
}

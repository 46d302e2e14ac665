package webapi

import (
	"github.com/coinedge/bitcard/pkg/money"
	"github.com/coinedge/bitcard/pkg/service/payment"
	"github.com/gofiber/fiber/v2"
)

// PaymentRoutes sets up card-terminal payment routes
func PaymentRoutes(app *fiber.App, flow *payment.Flow) {
	group := app.Group("/api/payments")
	group.Post("/", CreatePayment(flow))
	group.Post("/cancel", CancelPayment(flow))
	group.Get("/session", GetPaymentSession(flow))
}

// CreatePaymentRequest represents the request body for starting a terminal
// checkout
type CreatePaymentRequest struct {
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	Currency          string  `json:"currency" validate:"required,oneof=USD USDC BTC"`
	ActivationEventID string  `json:"activation_event_id"`
}

// CreatePayment starts a terminal checkout and begins polling its status
func CreatePayment(flow *payment.Flow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[CreatePaymentRequest](c)
		if err != nil {
			return nil // Error already written by helper
		}

		amount, err := money.New(input.Amount, money.Code(input.Currency))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid amount", err.Error())
		}

		session, err := flow.CreatePayment(c.Context(), amount, input.ActivationEventID, payment.Callbacks{})
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to create payment", err.Error())
		}

		return c.Status(fiber.StatusCreated).JSON(Response{
			Status:  fiber.StatusCreated,
			Message: "Payment created successfully",
			Data:    session,
		})
	}
}

// CancelPayment cancels the in-flight payment, if any
func CancelPayment(flow *payment.Flow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		flow.CancelPayment()
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Payment canceled",
			Data:    flow.Session(),
		})
	}
}

// GetPaymentSession returns a snapshot of the current payment session
func GetPaymentSession(flow *payment.Flow) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Payment session fetched successfully",
			Data:    flow.Session(),
		})
	}
}

package webapi

import (
	banklinksvc "github.com/coinedge/bitcard/pkg/service/banklink"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// BankRoutes sets up bank account linking routes
func BankRoutes(app *fiber.App, bankSvc *banklinksvc.Service) {
	group := app.Group("/api/bank")
	group.Post("/link-token", CreateLinkToken(bankSvc))
	group.Post("/exchange", ExchangePublicToken(bankSvc))
	group.Get("/accounts/:userID", ListBankAccounts(bankSvc))
}

// CreateLinkToken starts a bank account linking session
func CreateLinkToken(bankSvc *banklinksvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		linkToken, err := bankSvc.CreateLinkToken(c.Context())
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to create link token", err.Error())
		}

		return c.Status(fiber.StatusCreated).JSON(Response{
			Status:  fiber.StatusCreated,
			Message: "Link token created successfully",
			Data:    fiber.Map{"link_token": linkToken},
		})
	}
}

// ExchangePublicTokenRequest represents the request body for completing a
// bank link
type ExchangePublicTokenRequest struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	PublicToken string `json:"public_token" validate:"required"`
}

// ExchangePublicToken completes a bank link by exchanging the public token
func ExchangePublicToken(bankSvc *banklinksvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[ExchangePublicTokenRequest](c)
		if err != nil {
			return nil // Error already written by helper
		}

		userID, err := uuid.Parse(input.UserID)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid user id", err.Error())
		}

		accounts, err := bankSvc.ExchangeToken(c.Context(), userID, input.PublicToken)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to exchange public token", err.Error())
		}

		return c.Status(fiber.StatusCreated).JSON(Response{
			Status:  fiber.StatusCreated,
			Message: "Bank account linked successfully",
			Data:    accounts,
		})
	}
}

// ListBankAccounts returns the linked accounts for a user
func ListBankAccounts(bankSvc *banklinksvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := uuid.Parse(c.Params("userID"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid user id", err.Error())
		}

		accounts, err := bankSvc.Accounts(c.Context(), userID)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusInternalServerError, "Failed to list bank accounts", err.Error())
		}

		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Bank accounts fetched successfully",
			Data:    accounts,
		})
	}
}

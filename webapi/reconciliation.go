package webapi

import (
	reconsvc "github.com/coinedge/bitcard/pkg/service/reconciliation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationRoutes sets up reconciliation routes
func ReconciliationRoutes(app *fiber.App, engine *reconsvc.Engine) {
	group := app.Group("/api/reconciliation")
	group.Post("/", RecordReconciliation(engine))
	group.Post("/:id/resolve", ResolveDiscrepancy(engine))
	group.Get("/latest", LatestReconciliation(engine))
}

// RecordReconciliationRequest represents the request body for recording a
// balance comparison. Balances arrive as strings so no precision is lost in
// transit.
type RecordReconciliationRequest struct {
	AssetType       string `json:"asset_type" validate:"required,oneof=BTC USDC COMPANY_USDC"`
	OnchainBalance  string `json:"onchain_balance" validate:"required"`
	DatabaseBalance string `json:"database_balance" validate:"required"`
	Notes           string `json:"notes,omitempty"`
}

// RecordReconciliation compares an on-chain balance against the ledger
// balance and persists the outcome
func RecordReconciliation(engine *reconsvc.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[RecordReconciliationRequest](c)
		if err != nil {
			return nil // Error already written by helper
		}

		onchain, err := decimal.NewFromString(input.OnchainBalance)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid onchain balance", err.Error())
		}
		database, err := decimal.NewFromString(input.DatabaseBalance)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid database balance", err.Error())
		}

		record, err := engine.Record(c.Context(),
			reconsvc.AssetType(input.AssetType), onchain, database, input.Notes)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to record reconciliation", err.Error())
		}

		return c.Status(fiber.StatusCreated).JSON(Response{
			Status:  fiber.StatusCreated,
			Message: "Reconciliation recorded successfully",
			Data:    record,
		})
	}
}

// ResolveDiscrepancyRequest represents the request body for resolving a
// discrepancy
type ResolveDiscrepancyRequest struct {
	ResolvedBy string `json:"resolved_by" validate:"required"`
	Notes      string `json:"notes,omitempty"`
}

// ResolveDiscrepancy closes an open discrepancy record
func ResolveDiscrepancy(engine *reconsvc.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid record id", err.Error())
		}

		input, err := BindAndValidate[ResolveDiscrepancyRequest](c)
		if err != nil {
			return nil // Error already written by helper
		}

		record, err := engine.Resolve(c.Context(), id, input.ResolvedBy, input.Notes)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to resolve discrepancy", err.Error())
		}

		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Discrepancy resolved successfully",
			Data:    record,
		})
	}
}

// LatestReconciliation returns the most recent record per asset type
func LatestReconciliation(engine *reconsvc.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		latest, err := engine.LatestByAsset(c.Context())
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusInternalServerError, "Failed to fetch reconciliation state", err.Error())
		}

		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Latest reconciliation state fetched successfully",
			Data:    latest,
		})
	}
}

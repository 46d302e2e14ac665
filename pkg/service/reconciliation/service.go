// Package reconciliation compares custodial/on-chain balances against
// ledger-derived balances per asset and tracks the open/resolved lifecycle
// of any discrepancy found.
package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coinedge/bitcard/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType is a reconciled balance bucket.
type AssetType string

const (
	AssetBTC         AssetType = "BTC"
	AssetUSDC        AssetType = "USDC"
	AssetCompanyUSDC AssetType = "COMPANY_USDC"
)

// IsValid reports whether the asset type is known.
func (a AssetType) IsValid() bool {
	switch a {
	case AssetBTC, AssetUSDC, AssetCompanyUSDC:
		return true
	}
	return false
}

// Status is the lifecycle state of a reconciliation record. Status is
// derived at creation and the only legal transition afterwards is
// DISCREPANCY -> RESOLVED.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusMatched     Status = "MATCHED"
	StatusDiscrepancy Status = "DISCREPANCY"
	StatusResolved    Status = "RESOLVED"
)

// MatchThresholdPct is the discrepancy percentage below which balances are
// considered matched.
var MatchThresholdPct = decimal.NewFromFloat(0.01)

// Record is one balance comparison.
type Record struct {
	ID              uuid.UUID       `json:"id"`
	AssetType       AssetType       `json:"asset_type"`
	OnchainBalance  decimal.Decimal `json:"onchain_balance"`
	DatabaseBalance decimal.Decimal `json:"database_balance"`
	Discrepancy     decimal.Decimal `json:"discrepancy"`
	DiscrepancyPct  decimal.Decimal `json:"discrepancy_pct"`
	Status          Status          `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
	ResolvedBy      string          `json:"resolved_by,omitempty"`
}

// Repository persists reconciliation records.
type Repository interface {
	Insert(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, r *Record) error
	// LatestByAsset returns only the most recent record per asset type.
	LatestByAsset(ctx context.Context) (map[AssetType]*Record, error)
}

// Alerter surfaces discrepancies as high-visibility alerts, distinct from
// routine match logging.
type Alerter interface {
	DiscrepancyDetected(ctx context.Context, r *Record)
}

// SlogAlerter raises discrepancy alerts on the error log stream with an
// alert marker. Deployments wire a pager here instead.
type SlogAlerter struct {
	Logger *slog.Logger
}

// DiscrepancyDetected implements Alerter.
func (a *SlogAlerter) DiscrepancyDetected(ctx context.Context, r *Record) {
	a.Logger.Error("balance discrepancy detected",
		"alert", true,
		"record_id", r.ID,
		"asset", r.AssetType,
		"onchain", r.OnchainBalance,
		"database", r.DatabaseBalance,
		"discrepancy", r.Discrepancy,
		"discrepancy_pct", r.DiscrepancyPct,
	)
}

// Engine derives, persists, and transitions reconciliation records.
type Engine struct {
	repo    Repository
	alerter Alerter
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a reconciliation engine.
func New(repo Repository, alerter Alerter, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{repo: repo, alerter: alerter, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Record compares an on-chain balance against the ledger-derived balance
// and persists the outcome. A discrepancy at or above the threshold raises
// an alert through the Alerter.
func (e *Engine) Record(ctx context.Context, asset AssetType, onchain, database decimal.Decimal, notes string) (*Record, error) {
	if !asset.IsValid() {
		return nil, fmt.Errorf("unknown asset type %q: %w", asset, domain.ErrInvalidStateTransition)
	}

	discrepancy := onchain.Sub(database)
	pct := decimal.Zero
	if !database.IsZero() {
		pct = discrepancy.Div(database).Abs().Mul(decimal.NewFromInt(100))
	}

	status := StatusMatched
	if pct.GreaterThanOrEqual(MatchThresholdPct) {
		status = StatusDiscrepancy
	}

	r := &Record{
		ID:              uuid.New(),
		AssetType:       asset,
		OnchainBalance:  onchain,
		DatabaseBalance: database,
		Discrepancy:     discrepancy,
		DiscrepancyPct:  pct,
		Status:          status,
		Notes:           notes,
		CreatedAt:       e.now().UTC(),
	}
	if err := e.repo.Insert(ctx, r); err != nil {
		return nil, fmt.Errorf("persisting reconciliation record: %w", err)
	}

	if status == StatusDiscrepancy {
		e.alerter.DiscrepancyDetected(ctx, r)
	} else {
		e.logger.Info("balances reconciled",
			"record_id", r.ID,
			"asset", r.AssetType,
			"discrepancy_pct", r.DiscrepancyPct,
		)
	}
	return r, nil
}

// Resolve closes an open discrepancy. Only DISCREPANCY -> RESOLVED is a
// legal transition; resolving a matched or already-resolved record fails
// with domain.ErrInvalidStateTransition.
func (e *Engine) Resolve(ctx context.Context, id uuid.UUID, resolvedBy, notes string) (*Record, error) {
	r, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading reconciliation record: %w", err)
	}
	if r.Status != StatusDiscrepancy {
		return nil, fmt.Errorf("cannot resolve record in status %s: %w",
			r.Status, domain.ErrInvalidStateTransition)
	}

	resolvedAt := e.now().UTC()
	r.Status = StatusResolved
	r.ResolvedAt = &resolvedAt
	r.ResolvedBy = resolvedBy
	if notes != "" {
		r.Notes = notes
	}
	if err := e.repo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("updating reconciliation record: %w", err)
	}

	e.logger.Info("discrepancy resolved",
		"record_id", r.ID,
		"asset", r.AssetType,
		"resolved_by", resolvedBy,
	)
	return r, nil
}

// LatestByAsset returns the most recent record per asset type for dashboard
// current-state views. Historical records are never averaged or merged.
func (e *Engine) LatestByAsset(ctx context.Context) (map[AssetType]*Record, error) {
	return e.repo.LatestByAsset(ctx)
}

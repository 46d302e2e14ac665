// Package reconciliation persists balance reconciliation records.
package reconciliation

import (
	"context"
	"time"

	svc "github.com/coinedge/bitcard/pkg/service/reconciliation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReconciliationRecord is the reconciliation row. Balances are stored as
// numeric columns so no precision is lost between runs.
type ReconciliationRecord struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AssetType       string          `gorm:"type:varchar(32);index"`
	OnchainBalance  decimal.Decimal `gorm:"type:numeric(30,8)"`
	DatabaseBalance decimal.Decimal `gorm:"type:numeric(30,8)"`
	Discrepancy     decimal.Decimal `gorm:"type:numeric(30,8)"`
	DiscrepancyPct  decimal.Decimal `gorm:"type:numeric(12,6)"`
	Status          string          `gorm:"type:varchar(16)"`
	Notes           string          `gorm:"type:text"`
	CreatedAt       time.Time       `gorm:"index"`
	ResolvedAt      *time.Time
	ResolvedBy      string `gorm:"type:varchar(255)"`
}

// TableName specifies the table name for the ReconciliationRecord model.
func (ReconciliationRecord) TableName() string {
	return "reconciliation_records"
}

type repository struct {
	db *gorm.DB
}

// New creates a reconciliation repository using the provided *gorm.DB.
func New(db *gorm.DB) svc.Repository {
	return &repository{db: db}
}

// Insert implements reconciliation.Repository.
func (r *repository) Insert(ctx context.Context, rec *svc.Record) error {
	return r.db.WithContext(ctx).Create(toModel(rec)).Error
}

// GetByID implements reconciliation.Repository.
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*svc.Record, error) {
	var row ReconciliationRecord
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return toDomain(&row), nil
}

// Update implements reconciliation.Repository.
func (r *repository) Update(ctx context.Context, rec *svc.Record) error {
	return r.db.WithContext(ctx).Save(toModel(rec)).Error
}

// LatestByAsset implements reconciliation.Repository using Postgres
// DISTINCT ON to pick the newest row per asset type.
func (r *repository) LatestByAsset(ctx context.Context) (map[svc.AssetType]*svc.Record, error) {
	var rows []ReconciliationRecord
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (asset_type) * FROM reconciliation_records
		     ORDER BY asset_type, created_at DESC`).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	latest := make(map[svc.AssetType]*svc.Record, len(rows))
	for i := range rows {
		rec := toDomain(&rows[i])
		latest[rec.AssetType] = rec
	}
	return latest, nil
}

func toModel(rec *svc.Record) *ReconciliationRecord {
	return &ReconciliationRecord{
		ID:              rec.ID,
		AssetType:       string(rec.AssetType),
		OnchainBalance:  rec.OnchainBalance,
		DatabaseBalance: rec.DatabaseBalance,
		Discrepancy:     rec.Discrepancy,
		DiscrepancyPct:  rec.DiscrepancyPct,
		Status:          string(rec.Status),
		Notes:           rec.Notes,
		CreatedAt:       rec.CreatedAt,
		ResolvedAt:      rec.ResolvedAt,
		ResolvedBy:      rec.ResolvedBy,
	}
}

func toDomain(row *ReconciliationRecord) *svc.Record {
	return &svc.Record{
		ID:              row.ID,
		AssetType:       svc.AssetType(row.AssetType),
		OnchainBalance:  row.OnchainBalance,
		DatabaseBalance: row.DatabaseBalance,
		Discrepancy:     row.Discrepancy,
		DiscrepancyPct:  row.DiscrepancyPct,
		Status:          svc.Status(row.Status),
		Notes:           row.Notes,
		CreatedAt:       row.CreatedAt,
		ResolvedAt:      row.ResolvedAt,
		ResolvedBy:      row.ResolvedBy,
	}
}

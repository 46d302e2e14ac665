// Package checkout persists the ledger-side audit trail of terminal
// checkout sessions.
package checkout

import (
	"context"
	"time"

	"github.com/coinedge/bitcard/pkg/service/payment"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckoutSession is the audit row for one terminal checkout. A session is
// written once per state change keyed by checkout ID, so the row always
// reflects the latest observed state.
type CheckoutSession struct {
	CheckoutID        string `gorm:"primaryKey;type:varchar(64)"`
	ReferenceID       string `gorm:"type:varchar(64);index"`
	Status            string `gorm:"type:varchar(16)"`
	BaseAmountMinor   int64
	CustomerPaysMinor int64
	Currency          string `gorm:"type:varchar(8)"`
	AttemptCount      int
	Message           string `gorm:"type:text"`
	SettlementRef     string `gorm:"type:varchar(64)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName specifies the table name for the CheckoutSession model.
func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}

type repository struct {
	db *gorm.DB
}

// New creates a checkout audit repository using the provided *gorm.DB.
func New(db *gorm.DB) payment.Recorder {
	return &repository{db: db}
}

// Record implements payment.Recorder: upserts the session row on its
// checkout ID so every state change overwrites the previous snapshot.
func (r *repository) Record(ctx context.Context, s payment.Session) error {
	row := CheckoutSession{
		CheckoutID:        s.CheckoutID,
		ReferenceID:       s.ReferenceID,
		Status:            string(s.Status),
		BaseAmountMinor:   s.BaseAmount.Amount(),
		CustomerPaysMinor: s.CustomerPays.Amount(),
		Currency:          string(s.BaseAmount.Code()),
		AttemptCount:      s.AttemptCount,
		Message:           s.Message,
		SettlementRef:     s.SettlementRef,
		CreatedAt:         s.CreatedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "checkout_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "attempt_count", "message", "settlement_ref", "updated_at",
			}),
		}).
		Create(&row).Error
}

// Package banklink persists linked bank accounts.
package banklink

import (
	"context"
	"time"

	svc "github.com/coinedge/bitcard/pkg/service/banklink"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BankAccount is the bank account row. The unique index on (user_id,
// bank_name, account_mask) is the account fingerprint that makes repeated
// token exchanges idempotent.
type BankAccount struct {
	AccountID   string    `gorm:"primaryKey;type:varchar(64)"`
	UserID      uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_bank_fingerprint"`
	BankName    string    `gorm:"type:varchar(255);uniqueIndex:idx_bank_fingerprint"`
	AccountMask string    `gorm:"type:varchar(16);uniqueIndex:idx_bank_fingerprint"`
	LinkedAt    time.Time
}

// TableName specifies the table name for the BankAccount model.
func (BankAccount) TableName() string {
	return "bank_accounts"
}

type repository struct {
	db *gorm.DB
}

// New creates a bank-accounts repository using the provided *gorm.DB.
func New(db *gorm.DB) svc.Repository {
	return &repository{db: db}
}

// Upsert implements banklink.Repository. The fingerprint conflict is
// resolved by doing nothing, so re-linking the same account never creates a
// duplicate row.
func (r *repository) Upsert(ctx context.Context, account svc.Account) (bool, error) {
	row := BankAccount{
		AccountID:   account.AccountID,
		UserID:      account.UserID,
		BankName:    account.BankName,
		AccountMask: account.AccountMask,
		LinkedAt:    account.LinkedAt,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "bank_name"}, {Name: "account_mask"}},
			DoNothing: true,
		}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListByUser implements banklink.Repository.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]svc.Account, error) {
	var rows []BankAccount
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("linked_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	accounts := make([]svc.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, svc.Account{
			AccountID:   row.AccountID,
			UserID:      row.UserID,
			BankName:    row.BankName,
			AccountMask: row.AccountMask,
			LinkedAt:    row.LinkedAt,
		})
	}
	return accounts, nil
}

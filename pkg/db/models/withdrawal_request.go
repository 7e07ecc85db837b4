package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
)

// WithdrawalRequest reserves wallet funds until an admin approves or rejects
// the payout. LedgerEntryID links the reserving debit.
type WithdrawalRequest struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID              `gorm:"column:user_id;type:uuid;not null"`
	AmountCents     int64                  `gorm:"column:amount_cents;not null;check:amount_cents > 0"`
	Status          enums.WithdrawalStatus `gorm:"column:status;type:withdrawal_status_enum;not null"`
	LedgerEntryID   uuid.UUID              `gorm:"column:ledger_entry_id;type:uuid;not null;uniqueIndex"`
	RefundEntryID   *uuid.UUID             `gorm:"column:refund_entry_id;type:uuid"`
	ProcessedAt     *time.Time             `gorm:"column:processed_at"`
	ProcessedBy     *uuid.UUID             `gorm:"column:processed_by;type:uuid"`
	RejectionReason *string                `gorm:"column:rejection_reason"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *WithdrawalRequest) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

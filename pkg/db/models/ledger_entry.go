package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
)

// LedgerEntry is an append-only wallet movement. Only Status and ResolvedAt
// change after insert.
type LedgerEntry struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	WalletID       uuid.UUID               `gorm:"column:wallet_id;type:uuid;not null"`
	UserID         uuid.UUID               `gorm:"column:user_id;type:uuid;not null"`
	Type           enums.LedgerEntryType   `gorm:"column:type;type:ledger_entry_type_enum;not null"`
	AmountCents    int64                   `gorm:"column:amount_cents;not null;check:amount_cents > 0"`
	Description    string                  `gorm:"column:description;not null"`
	RelatedOrderID *uuid.UUID              `gorm:"column:related_order_id;type:uuid"`
	Reference      *string                 `gorm:"column:reference;uniqueIndex"`
	Memo           bool                    `gorm:"column:memo;not null"`
	Status         enums.LedgerEntryStatus `gorm:"column:status;type:ledger_entry_status_enum;not null"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	ResolvedAt     *time.Time              `gorm:"column:resolved_at"`
}

func (e *LedgerEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// SignedCents returns the entry's contribution to the wallet balance. Memo
// entries contribute nothing.
func (e LedgerEntry) SignedCents() int64 {
	switch {
	case e.Memo:
		return 0
	case e.Type == enums.LedgerEntryCredit && e.Status == enums.LedgerEntryCompleted:
		return e.AmountCents
	case e.Type == enums.LedgerEntryDebit && e.Status != enums.LedgerEntryFailed:
		return -e.AmountCents
	default:
		return 0
	}
}

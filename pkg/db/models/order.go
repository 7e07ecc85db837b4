package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
)

// Order is a booking of a worker's listing by a customer. Orders are never deleted.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID          uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID         uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	ListingID        uuid.UUID           `gorm:"column:listing_id;type:uuid;not null"`
	ListingTitle     string              `gorm:"column:listing_title;not null"`
	AmountCents      int64               `gorm:"column:amount_cents;not null"`
	TaxCents         int64               `gorm:"column:tax_cents;not null"`
	TotalAmountCents int64               `gorm:"column:total_amount_cents;not null"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:payment_method_enum;not null"`
	IsPaid           bool                `gorm:"column:is_paid;not null"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`
	Status           enums.OrderStatus   `gorm:"column:status;type:order_status_enum;not null"`
	Rating           *int                `gorm:"column:rating"`
	Review           *string             `gorm:"column:review"`
	Rated            bool                `gorm:"column:rated;not null"`
	CancelReason     *string             `gorm:"column:cancel_reason"`
	CancelledAt      *time.Time          `gorm:"column:cancelled_at"`
	CompletedAt      *time.Time          `gorm:"column:completed_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Review is the single buyer review attached to a completed order.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	BuyerID   uuid.UUID `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID  uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   *string   `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *Review) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SellerRating is the aggregate recomputed from all reviews of a seller.
type SellerRating struct {
	SellerID   uuid.UUID       `gorm:"column:seller_id;type:uuid;primaryKey"`
	Rating     decimal.Decimal `gorm:"column:rating;type:numeric(3,2);not null"`
	NumReviews int64           `gorm:"column:num_reviews;not null"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

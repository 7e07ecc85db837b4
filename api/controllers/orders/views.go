package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/types"
)

type orderView struct {
	ID            uuid.UUID           `json:"id"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	SellerID      uuid.UUID           `json:"seller_id"`
	ListingID     uuid.UUID           `json:"listing_id"`
	ListingTitle  string              `json:"listing_title"`
	Amount        types.Money         `json:"amount"`
	Tax           types.Money         `json:"tax"`
	TotalAmount   types.Money         `json:"total_amount"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	IsPaid        bool                `json:"is_paid"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	Status        enums.OrderStatus   `json:"status"`
	Rated         bool                `json:"rated"`
	Rating        *int                `json:"rating,omitempty"`
	Review        *string             `json:"review,omitempty"`
	CancelReason  *string             `json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type orderListView struct {
	Orders     []orderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func newOrderView(o models.Order) orderView {
	return orderView{
		ID:            o.ID,
		BuyerID:       o.BuyerID,
		SellerID:      o.SellerID,
		ListingID:     o.ListingID,
		ListingTitle:  o.ListingTitle,
		Amount:        types.Money(o.AmountCents),
		Tax:           types.Money(o.TaxCents),
		TotalAmount:   types.Money(o.TotalAmountCents),
		PaymentMethod: o.PaymentMethod,
		IsPaid:        o.IsPaid,
		PaidAt:        o.PaidAt,
		Status:        o.Status,
		Rated:         o.Rated,
		Rating:        o.Rating,
		Review:        o.Review,
		CancelReason:  o.CancelReason,
		CancelledAt:   o.CancelledAt,
		CompletedAt:   o.CompletedAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func newOrderListView(orders []models.Order, next string) orderListView {
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, newOrderView(o))
	}
	return orderListView{Orders: views, NextCursor: next}
}

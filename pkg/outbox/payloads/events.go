package payloads

import (
	"time"

	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderEvent describes a lifecycle change of a single order.
type OrderEvent struct {
	OrderID          uuid.UUID           `json:"order_id"`
	BuyerID          uuid.UUID           `json:"buyer_id"`
	SellerID         uuid.UUID           `json:"seller_id"`
	ListingTitle     string              `json:"listing_title"`
	Status           enums.OrderStatus   `json:"status"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	TotalAmountCents int64               `json:"total_amount_cents"`
	Reason           string              `json:"reason,omitempty"`
	RefundEntryID    *uuid.UUID          `json:"refund_entry_id,omitempty"`
}

// OrderCompletedEvent carries the settlement split recorded on completion.
type OrderCompletedEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	BuyerID         uuid.UUID `json:"buyer_id"`
	SellerID        uuid.UUID `json:"seller_id"`
	ListingTitle    string    `json:"listing_title"`
	GrossCents      int64     `json:"gross_cents"`
	CommissionCents int64     `json:"commission_cents"`
	NetCents        int64     `json:"net_cents"`
	CommissionRate  string    `json:"commission_rate"`
	LedgerEntryID   uuid.UUID `json:"ledger_entry_id"`
	CompletedAt     time.Time `json:"completed_at"`
}

// ReviewSubmittedEvent is emitted once per order when the buyer rates it.
type ReviewSubmittedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	BuyerID      uuid.UUID `json:"buyer_id"`
	SellerID     uuid.UUID `json:"seller_id"`
	Rating       int       `json:"rating"`
	SellerRating string    `json:"seller_rating"`
	NumReviews   int64     `json:"num_reviews"`
}

// WithdrawalEvent describes a withdrawal request transition.
type WithdrawalEvent struct {
	WithdrawalID  uuid.UUID              `json:"withdrawal_id"`
	UserID        uuid.UUID              `json:"user_id"`
	AmountCents   int64                  `json:"amount_cents"`
	Status        enums.WithdrawalStatus `json:"status"`
	LedgerEntryID uuid.UUID              `json:"ledger_entry_id"`
	RefundEntryID *uuid.UUID             `json:"refund_entry_id,omitempty"`
	ProcessedBy   *uuid.UUID             `json:"processed_by,omitempty"`
	Reason        string                 `json:"reason,omitempty"`
}

package orders

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/outbox"
	"github.com/angelmondragon/gigmarket-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/gigmarket-backend/pkg/pagination"
)

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsAdmin reports whether the caller holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

func (a Actor) ref() *outbox.ActorRef {
	return &outbox.ActorRef{UserID: a.UserID, Role: string(a.Role)}
}

// CreateOrderInput books a listing. AmountCents defaults to the listing price
// and TotalAmountCents to AmountCents + TaxCents.
type CreateOrderInput struct {
	Actor            Actor
	ListingID        uuid.UUID
	SellerID         uuid.UUID
	PaymentMethod    enums.PaymentMethod
	AmountCents      int64
	TaxCents         int64
	TotalAmountCents int64
}

// DecisionInput addresses an order transition that carries no payload.
type DecisionInput struct {
	OrderID uuid.UUID
	Actor   Actor
}

// CancelInput cancels an order on behalf of its buyer.
type CancelInput struct {
	OrderID uuid.UUID
	Actor   Actor
	Reason  string
}

// DisputeInput escalates an order to dispute resolution.
type DisputeInput struct {
	OrderID uuid.UUID
	Actor   Actor
	Reason  string
}

// ReviewInput rates a completed order.
type ReviewInput struct {
	OrderID uuid.UUID
	Actor   Actor
	Rating  int
	Comment string
}

// ListOrdersInput scopes the order listing to the caller.
type ListOrdersInput struct {
	Actor  Actor
	Status *enums.OrderStatus
	Params pagination.Params
}

// ListFilter is the repository-level listing filter. A nil ParticipantID lists
// every order.
type ListFilter struct {
	ParticipantID *uuid.UUID
	Status        *enums.OrderStatus
}

// OrderList is one page of orders, newest first.
type OrderList struct {
	Orders     []models.Order
	NextCursor string
}

func trimmedPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func orderEvent(order models.Order) payloads.OrderEvent {
	return payloads.OrderEvent{
		OrderID:          order.ID,
		BuyerID:          order.BuyerID,
		SellerID:         order.SellerID,
		ListingTitle:     order.ListingTitle,
		Status:           order.Status,
		PaymentMethod:    order.PaymentMethod,
		TotalAmountCents: order.TotalAmountCents,
	}
}

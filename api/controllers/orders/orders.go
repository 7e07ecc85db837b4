package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigmarket-backend/api/middleware"
	"github.com/angelmondragon/gigmarket-backend/api/responses"
	"github.com/angelmondragon/gigmarket-backend/api/validators"
	internalorders "github.com/angelmondragon/gigmarket-backend/internal/orders"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigmarket-backend/pkg/errors"
	"github.com/angelmondragon/gigmarket-backend/pkg/logger"
	"github.com/angelmondragon/gigmarket-backend/pkg/types"
)

const maxReasonLength = 1000

type createOrderRequest struct {
	ListingID     uuid.UUID    `json:"listing_id"`
	SellerID      *uuid.UUID   `json:"seller_id"`
	PaymentMethod string       `json:"payment_method" validate:"required"`
	Amount        *types.Money `json:"amount"`
	Tax           *types.Money `json:"tax"`
	TotalAmount   *types.Money `json:"total_amount"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// Create books a listing for the calling customer.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.ListingID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"listing_id": "is required"}))
			return
		}
		method, err := enums.ParsePaymentMethod(strings.ToLower(strings.TrimSpace(body.PaymentMethod)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		input := internalorders.CreateOrderInput{
			Actor:            actor,
			ListingID:        body.ListingID,
			PaymentMethod:    method,
			AmountCents:      moneyCents(body.Amount),
			TaxCents:         moneyCents(body.Tax),
			TotalAmountCents: moneyCents(body.TotalAmount),
		}
		if body.SellerID != nil {
			input.SellerID = *body.SellerID
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(*order))
	}
}

// List returns orders where the caller is buyer or seller. Admins see every
// order.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := internalorders.ListOrdersInput{Actor: actor, Params: params}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}

		list, err := svc.ListForUser(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListView(list.Orders, list.NextCursor))
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(*order))
	}
}

func Pay(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return decision(logg, svc.Pay)
}

func Accept(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return decision(logg, svc.Accept)
}

func Reject(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return decision(logg, svc.Reject)
}

func Submit(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return decision(logg, svc.Submit)
}

func Complete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return decision(logg, svc.Complete)
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withReason(logg, func(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor, reason string) (*models.Order, error) {
		return svc.Cancel(ctx, internalorders.CancelInput{OrderID: orderID, Actor: actor, Reason: reason})
	})
}

func Dispute(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withReason(logg, func(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor, reason string) (*models.Order, error) {
		return svc.Dispute(ctx, internalorders.DisputeInput{OrderID: orderID, Actor: actor, Reason: reason})
	})
}

// Review rates a completed order on behalf of its buyer.
func Review(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := orderRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body reviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.SubmitReview(r.Context(), internalorders.ReviewInput{
			OrderID: orderID,
			Actor:   actor,
			Rating:  body.Rating,
			Comment: validators.SanitizeString(body.Comment, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(*order))
	}
}

func decision(logg *logger.Logger, fn func(context.Context, internalorders.DecisionInput) (*models.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := orderRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := fn(r.Context(), internalorders.DecisionInput{OrderID: orderID, Actor: actor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(*order))
	}
}

type reasonFunc func(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor, reason string) (*models.Order, error)

// withReason accepts an optional {"reason": "..."} body; the service decides
// whether a blank reason is acceptable.
func withReason(logg *logger.Logger, fn reasonFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := orderRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body reasonRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		order, err := fn(r.Context(), orderID, actor, validators.SanitizeString(body.Reason, maxReasonLength))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(*order))
	}
}

func orderRequest(r *http.Request) (internalorders.Actor, uuid.UUID, error) {
	actor, err := actorFromRequest(r)
	if err != nil {
		return internalorders.Actor{}, uuid.Nil, err
	}
	orderID, err := validators.ParseURLUUID(r, "orderId")
	if err != nil {
		return internalorders.Actor{}, uuid.Nil, err
	}
	return actor, orderID, nil
}

func actorFromRequest(r *http.Request) (internalorders.Actor, error) {
	userID, role, err := middleware.RequireCaller(r.Context())
	if err != nil {
		return internalorders.Actor{}, err
	}
	return internalorders.Actor{UserID: userID, Role: role}, nil
}

func moneyCents(m *types.Money) int64 {
	if m == nil {
		return 0
	}
	return m.Cents()
}

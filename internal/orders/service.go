package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigmarket-backend/internal/ledger"
	"github.com/angelmondragon/gigmarket-backend/internal/settlement"
	"github.com/angelmondragon/gigmarket-backend/pkg/db"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigmarket-backend/pkg/errors"
	"github.com/angelmondragon/gigmarket-backend/pkg/logger"
	"github.com/angelmondragon/gigmarket-backend/pkg/metrics"
	"github.com/angelmondragon/gigmarket-backend/pkg/outbox"
	"github.com/angelmondragon/gigmarket-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/gigmarket-backend/pkg/pagination"
)

const (
	paymentReferencePrefix = "order_payment"
	refundReferencePrefix  = "order_refund"
)

var payableStatuses = []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusInProgress}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type listingFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type walletLedger interface {
	Append(ctx context.Context, tx *gorm.DB, input ledger.AppendEntryInput) (*models.LedgerEntry, error)
}

type settler interface {
	Settle(ctx context.Context, tx *gorm.DB, order models.Order) (*settlement.Result, error)
}

type ratingRecomputer interface {
	Recompute(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*models.SellerRating, error)
}

// Service is the order state machine. Every transition runs in one
// transaction together with its ledger writes and outbox event.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Pay(ctx context.Context, input DecisionInput) (*models.Order, error)
	Accept(ctx context.Context, input DecisionInput) (*models.Order, error)
	Reject(ctx context.Context, input DecisionInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	Submit(ctx context.Context, input DecisionInput) (*models.Order, error)
	Complete(ctx context.Context, input DecisionInput) (*models.Order, error)
	Dispute(ctx context.Context, input DisputeInput) (*models.Order, error)
	SubmitReview(ctx context.Context, input ReviewInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	ListForUser(ctx context.Context, input ListOrdersInput) (*OrderList, error)
}

// Deps groups the collaborators of the order service.
type Deps struct {
	Repo       Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Listings   listingFinder
	Ledger     walletLedger
	Settlement settler
	Ratings    ratingRecomputer
	Metrics    *metrics.LedgerMetrics
	Logger     *logger.Logger
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	listings   listingFinder
	ledger     walletLedger
	settlement settler
	ratings    ratingRecomputer
	metrics    *metrics.LedgerMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case deps.Listings == nil:
		return nil, fmt.Errorf("listing lookup required")
	case deps.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case deps.Settlement == nil:
		return nil, fmt.Errorf("settlement engine required")
	case deps.Ratings == nil:
		return nil, fmt.Errorf("ratings service required")
	}
	return &service{
		repo:       deps.Repo,
		tx:         deps.Tx,
		outbox:     deps.Outbox,
		listings:   deps.Listings,
		ledger:     deps.Ledger,
		settlement: deps.Settlement,
		ratings:    deps.Ratings,
		metrics:    deps.Metrics,
		logg:       deps.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"payment_method": input.PaymentMethod})
	}
	if input.AmountCents < 0 || input.TaxCents < 0 || input.TotalAmountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}

	listing, err := s.listings.FindByID(ctx, input.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing not found").
				WithDetails(map[string]any{"listing_id": input.ListingID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if !listing.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing is not active")
	}
	if input.SellerID != uuid.Nil && input.SellerID != listing.SellerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller does not own listing")
	}
	if listing.SellerID == input.Actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot book your own listing")
	}

	amount := input.AmountCents
	if amount == 0 {
		amount = listing.PriceCents
	}
	total := input.TotalAmountCents
	if total == 0 {
		total = amount + input.TaxCents
	}

	order := &models.Order{
		BuyerID:          input.Actor.UserID,
		SellerID:         listing.SellerID,
		ListingID:        listing.ID,
		ListingTitle:     listing.Title,
		AmountCents:      amount,
		TaxCents:         input.TaxCents,
		TotalAmountCents: total,
		PaymentMethod:    input.PaymentMethod,
		Status:           enums.OrderStatusPending,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.emitOrder(ctx, tx, enums.EventOrderCreated, *order, input.Actor, orderEvent(*order))
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Pay marks the order paid. Wallet payments debit the buyer's wallet in the
// same transaction; other methods are settled outside this system. Paying an
// already paid order returns it unchanged.
func (s *service) Pay(ctx context.Context, input DecisionInput) (*models.Order, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.BuyerID != input.Actor.UserID {
			return forbidden("only the buyer can pay for this order")
		}
		result = order
		if order.IsPaid {
			return nil
		}
		if !containsStatus(payableStatuses, order.Status) {
			return invalidTransition(order.Status, "paid")
		}
		if order.TotalAmountCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "order total must be positive to pay")
		}

		if order.PaymentMethod == enums.PaymentMethodWallet {
			orderID := order.ID
			_, err := s.ledger.Append(ctx, tx, ledger.AppendEntryInput{
				UserID:         order.BuyerID,
				Type:           enums.LedgerEntryDebit,
				AmountCents:    order.TotalAmountCents,
				Description:    fmt.Sprintf("Payment for order #%s (%s)", shortID(order.ID), order.ListingTitle),
				RelatedOrderID: &orderID,
				Reference:      ledger.Reference(paymentReferencePrefix, order.ID),
				Status:         enums.LedgerEntryCompleted,
			})
			if err != nil {
				return err
			}
		}

		paidAt := s.now()
		ok, err := repo.MarkPaid(ctx, order.ID, payableStatuses, map[string]any{"is_paid": true, "paid_at": paidAt})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if !ok {
			current, err := s.load(ctx, repo, order.ID)
			if err != nil {
				return err
			}
			if !containsStatus(payableStatuses, current.Status) {
				return invalidTransition(current.Status, "paid")
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "order payment changed concurrently")
		}
		order.IsPaid = true
		order.PaidAt = &paidAt
		return s.emitOrder(ctx, tx, enums.EventOrderPaid, *order, input.Actor, orderEvent(*order))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Accept(ctx context.Context, input DecisionInput) (*models.Order, error) {
	return s.transition(ctx, transitionPlan{
		orderID:   input.OrderID,
		actor:     input.Actor,
		target:    enums.OrderStatusInProgress,
		from:      []enums.OrderStatus{enums.OrderStatusPending},
		authorize: sellerOrAdmin,
		event:     enums.EventOrderAccepted,
	})
}

func (s *service) Reject(ctx context.Context, input DecisionInput) (*models.Order, error) {
	return s.transition(ctx, transitionPlan{
		orderID:   input.OrderID,
		actor:     input.Actor,
		target:    enums.OrderStatusCancelled,
		from:      []enums.OrderStatus{enums.OrderStatusPending},
		authorize: sellerOrAdmin,
		event:     enums.EventOrderCancelled,
		reason:    "rejected by seller",
		refund:    true,
	})
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = "cancelled by buyer"
	}
	return s.transition(ctx, transitionPlan{
		orderID:   input.OrderID,
		actor:     input.Actor,
		target:    enums.OrderStatusCancelled,
		from:      []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusInProgress},
		authorize: buyerOnly,
		event:     enums.EventOrderCancelled,
		reason:    reason,
		refund:    true,
	})
}

func (s *service) Submit(ctx context.Context, input DecisionInput) (*models.Order, error) {
	return s.transition(ctx, transitionPlan{
		orderID:   input.OrderID,
		actor:     input.Actor,
		target:    enums.OrderStatusSubmitted,
		from:      []enums.OrderStatus{enums.OrderStatusInProgress},
		authorize: sellerOnly,
		event:     enums.EventOrderSubmitted,
	})
}

func (s *service) Dispute(ctx context.Context, input DisputeInput) (*models.Order, error) {
	return s.transition(ctx, transitionPlan{
		orderID:   input.OrderID,
		actor:     input.Actor,
		target:    enums.OrderStatusDisputed,
		from:      enums.SourcesFor(enums.OrderStatusDisputed),
		authorize: participant,
		event:     enums.EventOrderDisputed,
		reason:    strings.TrimSpace(input.Reason),
	})
}

// Complete moves the order to completed and settles it in the same
// transaction. A repeated call on a completed order returns it without
// settling again.
func (s *service) Complete(ctx context.Context, input DecisionInput) (*models.Order, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}

	var (
		result  *models.Order
		settled *settlement.Result
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := sellerOrAdmin(*order, input.Actor); err != nil {
			return err
		}
		result = order
		if order.Status == enums.OrderStatusCompleted {
			return nil
		}
		if !order.Status.CanTransitionTo(enums.OrderStatusCompleted) {
			return invalidTransition(order.Status, enums.OrderStatusCompleted)
		}
		if order.TotalAmountCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "order total must be positive to complete").
				WithDetails(map[string]any{"total_amount_cents": order.TotalAmountCents})
		}
		// wallet orders settle only against a completed buyer debit
		if order.PaymentMethod == enums.PaymentMethodWallet && !order.IsPaid {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "wallet order must be paid before completion").
				WithDetails(map[string]any{"payment_method": order.PaymentMethod, "is_paid": order.IsPaid})
		}

		completedAt := s.now()
		ok, err := repo.TransitionStatus(ctx, order.ID, StatusGuard{From: enums.SourcesFor(enums.OrderStatusCompleted)}, map[string]any{
			"status":       enums.OrderStatusCompleted,
			"completed_at": completedAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
		}
		if !ok {
			current, err := s.load(ctx, repo, order.ID)
			if err != nil {
				return err
			}
			result = current
			if current.Status == enums.OrderStatusCompleted {
				return nil
			}
			return invalidTransition(current.Status, enums.OrderStatusCompleted)
		}
		order.Status = enums.OrderStatusCompleted
		order.CompletedAt = &completedAt

		settled, err = s.settlement.Settle(ctx, tx, *order)
		if err != nil {
			return err
		}

		event := payloads.OrderCompletedEvent{
			OrderID:         order.ID,
			BuyerID:         order.BuyerID,
			SellerID:        order.SellerID,
			ListingTitle:    order.ListingTitle,
			GrossCents:      settled.GrossCents,
			CommissionCents: settled.CommissionCents,
			NetCents:        settled.NetCents,
			CommissionRate:  settled.Rate.String(),
			CompletedAt:     completedAt,
		}
		if settled.Entry != nil {
			event.LedgerEntryID = settled.Entry.ID
		}
		return s.emitOrder(ctx, tx, enums.EventOrderCompleted, *order, input.Actor, event)
	})
	if err != nil {
		return nil, err
	}

	if settled != nil {
		s.metrics.ObserveSettlement(settled.CommissionCents, settled.NetCents)
		if s.logg != nil {
			logCtx := s.logg.WithOrder(ctx, result.ID)
			logCtx = s.logg.WithFields(logCtx, map[string]any{
				"seller_id":        result.SellerID.String(),
				"gross_cents":      settled.GrossCents,
				"commission_cents": settled.CommissionCents,
				"net_cents":        settled.NetCents,
			})
			s.logg.Info(logCtx, "order settled")
		}
	}
	return result, nil
}

// SubmitReview stores the buyer's rating once and recomputes the seller
// aggregate from every review.
func (s *service) SubmitReview(ctx context.Context, input ReviewInput) (*models.Order, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5").
			WithDetails(map[string]any{"rating": input.Rating})
	}
	comment := trimmedPtr(input.Comment)

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.BuyerID != input.Actor.UserID {
			return forbidden("only the buyer can review this order")
		}
		if order.Status != enums.OrderStatusCompleted || order.Rated {
			return alreadyReviewed(order)
		}

		ok, err := repo.MarkRated(ctx, order.ID, input.Rating, comment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order rating")
		}
		if !ok {
			return alreadyReviewed(order)
		}
		rating := input.Rating
		order.Rating = &rating
		order.Review = comment
		order.Rated = true

		review := &models.Review{
			OrderID:  order.ID,
			BuyerID:  order.BuyerID,
			SellerID: order.SellerID,
			Rating:   input.Rating,
			Comment:  comment,
		}
		if err := repo.CreateReview(ctx, review); err != nil {
			if db.IsUniqueViolation(err, "") {
				return alreadyReviewed(order)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert review")
		}

		aggregate, err := s.ratings.Recompute(ctx, tx, order.SellerID)
		if err != nil {
			return err
		}
		result = order

		event := outbox.DomainEvent{
			EventType:     enums.EventReviewSubmitted,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Actor:         input.Actor.ref(),
			Data: payloads.ReviewSubmittedEvent{
				OrderID:      order.ID,
				BuyerID:      order.BuyerID,
				SellerID:     order.SellerID,
				Rating:       input.Rating,
				SellerRating: aggregate.Rating.StringFixed(2),
				NumReviews:   aggregate.NumReviews,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := participant(*order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, input ListOrdersInput) (*OrderList, error) {
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if _, err := pagination.ParseCursor(input.Params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	filter := ListFilter{Status: input.Status}
	if !input.Actor.IsAdmin() {
		userID := input.Actor.UserID
		filter.ParticipantID = &userID
	}
	rows, err := s.repo.List(ctx, filter, input.Params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := pagination.BuildPage(rows, input.Params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &OrderList{Orders: page.Items, NextCursor: page.NextCursor}, nil
}

type transitionPlan struct {
	orderID   uuid.UUID
	actor     Actor
	target    enums.OrderStatus
	from      []enums.OrderStatus
	authorize func(models.Order, Actor) error
	event     enums.OutboxEventType
	reason    string
	refund    bool
}

// transition applies one compare-and-set edge of the state machine. Edges
// not declared in the transition table fail with INVALID_TRANSITION.
func (s *service) transition(ctx context.Context, plan transitionPlan) (*models.Order, error) {
	if err := requireActor(plan.actor); err != nil {
		return nil, err
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, plan.orderID)
		if err != nil {
			return err
		}
		if err := plan.authorize(*order, plan.actor); err != nil {
			return err
		}
		if !containsStatus(plan.from, order.Status) || !order.Status.CanTransitionTo(plan.target) {
			return invalidTransition(order.Status, plan.target)
		}

		updates := map[string]any{"status": plan.target}
		if plan.target == enums.OrderStatusCancelled {
			cancelledAt := s.now()
			updates["cancelled_at"] = cancelledAt
			updates["cancel_reason"] = trimmedPtr(plan.reason)
			order.CancelledAt = &cancelledAt
			order.CancelReason = trimmedPtr(plan.reason)
		}
		guard := StatusGuard{From: []enums.OrderStatus{order.Status}}
		if plan.refund {
			paid := order.IsPaid
			guard.IsPaid = &paid
		}
		ok, err := repo.TransitionStatus(ctx, order.ID, guard, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			current, err := s.load(ctx, repo, order.ID)
			if err != nil {
				return err
			}
			if current.Status == order.Status {
				return pkgerrors.New(pkgerrors.CodeConflict, "order payment changed concurrently")
			}
			return invalidTransition(current.Status, plan.target)
		}
		order.Status = plan.target

		payload := orderEvent(*order)
		payload.Reason = plan.reason
		if plan.refund {
			refundID, err := s.refund(ctx, tx, *order)
			if err != nil {
				return err
			}
			payload.RefundEntryID = refundID
		}
		result = order
		return s.emitOrder(ctx, tx, plan.event, *order, plan.actor, payload)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// refund returns a wallet payment to the buyer when a paid order is cancelled.
func (s *service) refund(ctx context.Context, tx *gorm.DB, order models.Order) (*uuid.UUID, error) {
	if !order.IsPaid || order.PaymentMethod != enums.PaymentMethodWallet || order.TotalAmountCents <= 0 {
		return nil, nil
	}
	orderID := order.ID
	entry, err := s.ledger.Append(ctx, tx, ledger.AppendEntryInput{
		UserID:         order.BuyerID,
		Type:           enums.LedgerEntryCredit,
		AmountCents:    order.TotalAmountCents,
		Description:    fmt.Sprintf("Refund for cancelled order #%s (%s)", shortID(order.ID), order.ListingTitle),
		RelatedOrderID: &orderID,
		Reference:      ledger.Reference(refundReferencePrefix, order.ID),
		Status:         enums.LedgerEntryCompleted,
	})
	if err != nil {
		return nil, err
	}
	return &entry.ID, nil
}

func (s *service) load(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) emitOrder(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, order models.Order, actor Actor, data any) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		Data:          data,
	})
}

func requireActor(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return nil
}

func buyerOnly(order models.Order, actor Actor) error {
	if order.BuyerID != actor.UserID {
		return forbidden("only the buyer can perform this action")
	}
	return nil
}

func sellerOnly(order models.Order, actor Actor) error {
	if order.SellerID != actor.UserID {
		return forbidden("only the seller can perform this action")
	}
	return nil
}

func sellerOrAdmin(order models.Order, actor Actor) error {
	if actor.IsAdmin() || order.SellerID == actor.UserID {
		return nil
	}
	return forbidden("only the seller or an admin can perform this action")
}

func participant(order models.Order, actor Actor) error {
	if actor.IsAdmin() || order.BuyerID == actor.UserID || order.SellerID == actor.UserID {
		return nil
	}
	return forbidden("order does not belong to user")
}

func forbidden(msg string) error {
	return pkgerrors.New(pkgerrors.CodeForbidden, msg)
}

func invalidTransition(from enums.OrderStatus, to any) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("order cannot move from %s to %v", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

func alreadyReviewed(order *models.Order) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order cannot be reviewed").
		WithDetails(map[string]any{"status": order.Status, "rated": order.Rated})
}

func containsStatus(statuses []enums.OrderStatus, status enums.OrderStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}


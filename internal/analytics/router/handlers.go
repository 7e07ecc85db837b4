package router

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigmarket-backend/internal/analytics/types"
	"github.com/angelmondragon/gigmarket-backend/internal/analytics/writer"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/logger"
	"github.com/angelmondragon/gigmarket-backend/pkg/outbox/payloads"
)

type paymentHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *paymentHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row, err := baseRow(envelope, types.LedgerFactPayment, event.BuyerID, event)
	if err != nil {
		return err
	}
	row.OrderID = idPtr(event.OrderID)
	row.CounterpartyID = idPtr(event.SellerID)
	row.PaymentMethod = stringPtr(string(event.PaymentMethod))
	row.AmountCents = int64Ptr(event.TotalAmountCents)
	return insert(ctx, h.writer, h.logg, row)
}

// refundHandler records wallet refunds; cancellations without one carry no
// ledger movement and are skipped.
type refundHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *refundHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	if event.RefundEntryID == nil {
		h.logg.Debug(h.logg.WithField(ctx, "order_id", event.OrderID.String()), "cancellation without refund")
		return nil
	}
	row, err := baseRow(envelope, types.LedgerFactRefund, event.BuyerID, event)
	if err != nil {
		return err
	}
	row.OrderID = idPtr(event.OrderID)
	row.CounterpartyID = idPtr(event.SellerID)
	row.PaymentMethod = stringPtr(string(event.PaymentMethod))
	row.AmountCents = int64Ptr(event.TotalAmountCents)
	row.LedgerEntryID = idPtr(*event.RefundEntryID)
	return insert(ctx, h.writer, h.logg, row)
}

type settlementHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *settlementHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderCompletedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row, err := baseRow(envelope, types.LedgerFactSettlement, event.SellerID, event)
	if err != nil {
		return err
	}
	if !event.CompletedAt.IsZero() {
		row.OccurredAt = event.CompletedAt.UTC()
	}
	row.OrderID = idPtr(event.OrderID)
	row.CounterpartyID = idPtr(event.BuyerID)
	row.GrossCents = int64Ptr(event.GrossCents)
	row.CommissionCents = int64Ptr(event.CommissionCents)
	row.NetCents = int64Ptr(event.NetCents)
	row.CommissionRate = stringPtr(event.CommissionRate)
	if event.LedgerEntryID != uuid.Nil {
		row.LedgerEntryID = idPtr(event.LedgerEntryID)
	}
	return insert(ctx, h.writer, h.logg, row)
}

type withdrawalHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *withdrawalHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.WithdrawalEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	fact := types.LedgerFactPayout
	if envelope.EventType == enums.EventWithdrawalRejected {
		fact = types.LedgerFactPayoutRejected
	}
	row, err := baseRow(envelope, fact, event.UserID, event)
	if err != nil {
		return err
	}
	row.WithdrawalID = idPtr(event.WithdrawalID)
	row.AmountCents = int64Ptr(event.AmountCents)
	row.LedgerEntryID = idPtr(event.LedgerEntryID)
	if event.ProcessedBy != nil {
		row.CounterpartyID = idPtr(*event.ProcessedBy)
	}
	return insert(ctx, h.writer, h.logg, row)
}

func baseRow(envelope types.Envelope, fact types.LedgerFact, userID uuid.UUID, payload any) (types.LedgerEventRow, error) {
	encoded, err := writer.EncodeJSON(payload)
	if err != nil {
		return types.LedgerEventRow{}, err
	}
	return types.LedgerEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		FactType:   string(fact),
		OccurredAt: envelope.OccurredAt.UTC(),
		UserID:     userID.String(),
		Payload:    encoded,
	}, nil
}

func insert(ctx context.Context, w Writer, logg *logger.Logger, row types.LedgerEventRow) error {
	logCtx := logg.WithFields(ctx, map[string]any{
		"fact_type": row.FactType,
		"user_id":   row.UserID,
	})
	if err := w.InsertLedgerEvent(logCtx, row); err != nil {
		logg.Error(logCtx, "failed to insert ledger event row", err)
		return err
	}
	logg.Info(logCtx, "ledger event row inserted")
	return nil
}

func idPtr(id uuid.UUID) *string {
	value := id.String()
	return &value
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

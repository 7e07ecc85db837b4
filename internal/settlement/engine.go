// Package settlement splits a completed order's total into marketplace
// commission and seller earnings and books the earnings to the seller wallet.
package settlement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigmarket-backend/internal/ledger"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigmarket-backend/pkg/errors"
	"github.com/angelmondragon/gigmarket-backend/pkg/types"
)

// ReferencePrefix namespaces settlement credits so an order is settled at most once.
const ReferencePrefix = "settlement"

type ledgerAppender interface {
	Append(ctx context.Context, tx *gorm.DB, input ledger.AppendEntryInput) (*models.LedgerEntry, error)
}

// Split is the commission breakdown of an order total.
type Split struct {
	GrossCents      int64
	CommissionCents int64
	NetCents        int64
	Rate            decimal.Decimal
}

// Result is what Settle booked.
type Result struct {
	Split
	// Entry is nil when the net amount rounds to zero.
	Entry *models.LedgerEntry
}

// Engine applies the configured commission rate.
type Engine struct {
	ledger ledgerAppender
	rate   decimal.Decimal
}

// NewEngine validates rate is within [0, 1).
func NewEngine(ledger ledgerAppender, rate decimal.Decimal) (*Engine, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("commission rate must be in [0, 1), got %s", rate.String())
	}
	return &Engine{ledger: ledger, rate: rate}, nil
}

// Rate returns the commission rate in use.
func (e *Engine) Rate() decimal.Decimal {
	return e.rate
}

// Split computes commission = round_half_up(total * rate) and net = total - commission.
func (e *Engine) Split(totalCents int64) (Split, error) {
	if totalCents <= 0 {
		return Split{}, pkgerrors.New(pkgerrors.CodeInvalidState, "order total must be positive to settle").
			WithDetails(map[string]any{"total_amount_cents": totalCents})
	}
	commission := decimal.NewFromInt(totalCents).Mul(e.rate).Round(0).IntPart()
	return Split{
		GrossCents:      totalCents,
		CommissionCents: commission,
		NetCents:        totalCents - commission,
		Rate:            e.rate,
	}, nil
}

// Settle credits the seller's net earnings inside tx. The entry reference is
// unique per order, so a repeated settlement fails with CONFLICT instead of
// paying twice.
func (e *Engine) Settle(ctx context.Context, tx *gorm.DB, order models.Order) (*Result, error) {
	split, err := e.Split(order.TotalAmountCents)
	if err != nil {
		return nil, err
	}
	result := &Result{Split: split}
	if split.NetCents == 0 {
		return result, nil
	}

	orderID := order.ID
	entry, err := e.ledger.Append(ctx, tx, ledger.AppendEntryInput{
		UserID:         order.SellerID,
		Type:           enums.LedgerEntryCredit,
		AmountCents:    split.NetCents,
		Description:    Description(order, split),
		RelatedOrderID: &orderID,
		Reference:      ledger.Reference(ReferencePrefix, order.ID),
		Status:         enums.LedgerEntryCompleted,
	})
	if err != nil {
		return nil, err
	}
	result.Entry = entry
	return result, nil
}

// Description renders the seller-facing ledger text for a settlement.
func Description(order models.Order, split Split) string {
	short := order.ID.String()[:8]
	return fmt.Sprintf("Earnings for order #%s (%s): %s less %s commission",
		short,
		order.ListingTitle,
		types.Money(split.GrossCents).String(),
		types.Money(split.CommissionCents).String(),
	)
}

package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// LedgerFact classifies a row in the ledger_events table.
type LedgerFact string

const (
	LedgerFactPayment        LedgerFact = "payment"
	LedgerFactSettlement     LedgerFact = "settlement"
	LedgerFactRefund         LedgerFact = "refund"
	LedgerFactPayout         LedgerFact = "payout"
	LedgerFactPayoutRejected LedgerFact = "payout_rejected"
)

// LedgerEventRow mirrors the ledger_events BigQuery schema. Amount columns are
// minor units; columns that do not apply to a fact type stay NULL.
type LedgerEventRow struct {
	EventID         string             `bigquery:"event_id"`
	EventType       string             `bigquery:"event_type"`
	FactType        string             `bigquery:"fact_type"`
	OccurredAt      time.Time          `bigquery:"occurred_at"`
	OrderID         *string            `bigquery:"order_id"`
	WithdrawalID    *string            `bigquery:"withdrawal_id"`
	UserID          string             `bigquery:"user_id"`
	CounterpartyID  *string            `bigquery:"counterparty_id"`
	PaymentMethod   *string            `bigquery:"payment_method"`
	GrossCents      *int64             `bigquery:"gross_cents"`
	CommissionCents *int64             `bigquery:"commission_cents"`
	NetCents        *int64             `bigquery:"net_cents"`
	AmountCents     *int64             `bigquery:"amount_cents"`
	CommissionRate  *string            `bigquery:"commission_rate"`
	LedgerEntryID   *string            `bigquery:"ledger_entry_id"`
	Payload         cbigquery.NullJSON `bigquery:"payload"`
}

// InsertID lets BigQuery drop a redelivered fact inside its dedupe window.
func (r LedgerEventRow) InsertID() string {
	if r.EventID == "" {
		return ""
	}
	return r.EventID + ":" + r.FactType
}

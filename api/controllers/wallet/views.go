package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/types"
)

type walletView struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Balance   types.Money `json:"balance"`
	Currency  string      `json:"currency"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type entryView struct {
	ID             uuid.UUID               `json:"id"`
	Type           enums.LedgerEntryType   `json:"type"`
	Amount         types.Money             `json:"amount"`
	Description    string                  `json:"description"`
	RelatedOrderID *uuid.UUID              `json:"related_order_id,omitempty"`
	Reference      *string                 `json:"reference,omitempty"`
	Memo           bool                    `json:"memo"`
	Status         enums.LedgerEntryStatus `json:"status"`
	CreatedAt      time.Time               `json:"created_at"`
	ResolvedAt     *time.Time              `json:"resolved_at,omitempty"`
}

type entryListView struct {
	Entries    []entryView `json:"entries"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// WithdrawalView is shared with the admin controllers.
type WithdrawalView struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"user_id"`
	Amount          types.Money            `json:"amount"`
	Status          enums.WithdrawalStatus `json:"status"`
	LedgerEntryID   uuid.UUID              `json:"ledger_entry_id"`
	RefundEntryID   *uuid.UUID             `json:"refund_entry_id,omitempty"`
	ProcessedAt     *time.Time             `json:"processed_at,omitempty"`
	ProcessedBy     *uuid.UUID             `json:"processed_by,omitempty"`
	RejectionReason *string                `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// WithdrawalListView is one page of withdrawal requests.
type WithdrawalListView struct {
	Requests   []WithdrawalView `json:"requests"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func newWalletView(w models.Wallet) walletView {
	return walletView{
		ID:        w.ID,
		UserID:    w.UserID,
		Balance:   types.Money(w.BalanceCents),
		Currency:  w.Currency,
		UpdatedAt: w.UpdatedAt,
	}
}

func newEntryListView(entries []models.LedgerEntry, next string) entryListView {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			ID:             e.ID,
			Type:           e.Type,
			Amount:         types.Money(e.AmountCents),
			Description:    e.Description,
			RelatedOrderID: e.RelatedOrderID,
			Reference:      e.Reference,
			Memo:           e.Memo,
			Status:         e.Status,
			CreatedAt:      e.CreatedAt,
			ResolvedAt:     e.ResolvedAt,
		})
	}
	return entryListView{Entries: views, NextCursor: next}
}

// NewWithdrawalView renders a withdrawal request.
func NewWithdrawalView(req models.WithdrawalRequest) WithdrawalView {
	return WithdrawalView{
		ID:              req.ID,
		UserID:          req.UserID,
		Amount:          types.Money(req.AmountCents),
		Status:          req.Status,
		LedgerEntryID:   req.LedgerEntryID,
		RefundEntryID:   req.RefundEntryID,
		ProcessedAt:     req.ProcessedAt,
		ProcessedBy:     req.ProcessedBy,
		RejectionReason: req.RejectionReason,
		CreatedAt:       req.CreatedAt,
	}
}

// NewWithdrawalListView renders a page of withdrawal requests.
func NewWithdrawalListView(requests []models.WithdrawalRequest, next string) WithdrawalListView {
	views := make([]WithdrawalView, 0, len(requests))
	for _, req := range requests {
		views = append(views, NewWithdrawalView(req))
	}
	return WithdrawalListView{Requests: views, NextCursor: next}
}

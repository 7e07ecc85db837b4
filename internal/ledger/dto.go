package ledger

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigmarket-backend/pkg/errors"
)

// AppendEntryInput describes a single wallet movement.
type AppendEntryInput struct {
	UserID         uuid.UUID
	Type           enums.LedgerEntryType
	AmountCents    int64
	Description    string
	RelatedOrderID *uuid.UUID
	Reference      *string
	Status         enums.LedgerEntryStatus
	// Memo entries document a movement already carried by another entry.
	Memo bool
}

func (in AppendEntryInput) validate() error {
	if in.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if in.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, "amount must be positive").
			WithDetails(map[string]any{"amount_cents": in.AmountCents})
	}
	if !in.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid ledger entry type")
	}
	if !in.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid ledger entry status")
	}
	return nil
}

// EntryList is one page of a user's ledger, newest first.
type EntryList struct {
	Entries    []models.LedgerEntry
	NextCursor string
}

// Reconciliation compares a wallet's cached balance with its ledger.
type Reconciliation struct {
	UserID         uuid.UUID
	WalletID       uuid.UUID
	BalanceCents   int64
	LedgerSumCents int64
	DriftCents     int64
}

// Balanced reports whether the cached balance matches the ledger.
func (r Reconciliation) Balanced() bool {
	return r.DriftCents == 0
}

// Reference formats a ledger reference such as "settlement:<id>".
func Reference(kind string, id uuid.UUID) *string {
	ref := kind + ":" + id.String()
	return &ref
}

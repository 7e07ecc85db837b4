package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigmarket-backend/pkg/db"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigmarket-backend/pkg/errors"
	"github.com/angelmondragon/gigmarket-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	WithSnapshotTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns every write to wallets and ledger entries. Callers that need a
// ledger write inside their own transaction use Append and Resolve; the
// AppendEntry and ResolveEntry variants open a transaction themselves.
type Service interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	AppendEntry(ctx context.Context, input AppendEntryInput) (*models.LedgerEntry, error)
	Append(ctx context.Context, tx *gorm.DB, input AppendEntryInput) (*models.LedgerEntry, error)
	ResolveEntry(ctx context.Context, entryID uuid.UUID, status enums.LedgerEntryStatus) (*models.LedgerEntry, error)
	Resolve(ctx context.Context, tx *gorm.DB, entryID uuid.UUID, status enums.LedgerEntryStatus) (*models.LedgerEntry, error)
	ListEntries(ctx context.Context, userID uuid.UUID, params pagination.Params) (*EntryList, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (*Reconciliation, error)
	ReconcileWallet(ctx context.Context, walletID uuid.UUID) (*Reconciliation, error)
	ListWallets(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Wallet, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	currency string
	now      func() time.Time
}

// NewService wires the ledger service. currency is stamped on lazily created wallets.
func NewService(repo Repository, tx txRunner, currency string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if strings.TrimSpace(currency) == "" {
		return nil, fmt.Errorf("wallet currency required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		currency: currency,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	wallet, err := s.repo.EnsureWallet(ctx, userID, s.currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return wallet, nil
}

func (s *service) AppendEntry(ctx context.Context, input AppendEntryInput) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		entry, err = s.Append(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Append inserts the entry and moves the wallet balance inside tx. Pending and
// completed debits reserve funds immediately and fail with
// INSUFFICIENT_BALANCE when the wallet cannot cover them.
func (s *service) Append(ctx context.Context, tx *gorm.DB, input AppendEntryInput) (*models.LedgerEntry, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)
	wallet, err := repo.EnsureWallet(ctx, input.UserID, s.currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}

	entry := &models.LedgerEntry{
		WalletID:       wallet.ID,
		UserID:         input.UserID,
		Type:           input.Type,
		AmountCents:    input.AmountCents,
		Description:    strings.TrimSpace(input.Description),
		RelatedOrderID: input.RelatedOrderID,
		Reference:      input.Reference,
		Memo:           input.Memo,
		Status:         input.Status,
	}
	if input.Status.IsFinal() {
		resolved := s.now()
		entry.ResolvedAt = &resolved
	}

	if delta := appendDelta(*entry); delta != 0 {
		ok, err := repo.AdjustBalance(ctx, wallet.ID, delta)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wallet balance")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient wallet balance").
				WithDetails(map[string]any{
					"balance_cents":   wallet.BalanceCents,
					"requested_cents": input.AmountCents,
				})
		}
	}

	if err := repo.CreateEntry(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "ledger reference already recorded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert ledger entry")
	}
	return entry, nil
}

func (s *service) ResolveEntry(ctx context.Context, entryID uuid.UUID, status enums.LedgerEntryStatus) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		entry, err = s.Resolve(ctx, tx, entryID, status)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Resolve moves a pending entry to completed or failed exactly once. A failed
// debit and a completed credit both add the amount back to the balance.
func (s *service) Resolve(ctx context.Context, tx *gorm.DB, entryID uuid.UUID, status enums.LedgerEntryStatus) (*models.LedgerEntry, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if entryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger entry id required")
	}
	if !status.IsFinal() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be completed or failed")
	}

	repo := s.repo.WithTx(tx)
	entry, err := repo.FindEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ledger entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger entry")
	}
	if entry.Status != enums.LedgerEntryPending {
		return nil, invalidResolution(entry)
	}

	resolvedAt := s.now()
	ok, err := repo.MarkEntryResolved(ctx, entry.ID, status, resolvedAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve ledger entry")
	}
	if !ok {
		return nil, invalidResolution(entry)
	}
	entry.Status = status
	entry.ResolvedAt = &resolvedAt

	if delta := resolveDelta(*entry); delta != 0 {
		ok, err := repo.AdjustBalance(ctx, entry.WalletID, delta)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wallet balance")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet missing for ledger entry")
		}
	}
	return entry, nil
}

func (s *service) ListEntries(ctx context.Context, userID uuid.UUID, params pagination.Params) (*EntryList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListEntries(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	page := pagination.BuildPage(rows, params.Limit, func(e models.LedgerEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})
	return &EntryList{Entries: page.Items, NextCursor: page.NextCursor}, nil
}

func (s *service) Reconcile(ctx context.Context, userID uuid.UUID) (*Reconciliation, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ReconcileWallet(ctx, wallet.ID)
}

// ReconcileWallet compares the cached balance with the ledger sum, both read
// from one snapshot. It only reports drift; balances are never rewritten here.
func (s *service) ReconcileWallet(ctx context.Context, walletID uuid.UUID) (*Reconciliation, error) {
	var rec *Reconciliation
	err := s.tx.WithSnapshotTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet, err := repo.FindWallet(ctx, walletID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
		}
		sum, err := repo.SumEntries(ctx, wallet.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum ledger entries")
		}
		rec = &Reconciliation{
			UserID:         wallet.UserID,
			WalletID:       wallet.ID,
			BalanceCents:   wallet.BalanceCents,
			LedgerSumCents: sum,
			DriftCents:     wallet.BalanceCents - sum,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *service) ListWallets(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Wallet, error) {
	wallets, err := s.repo.ListWallets(ctx, afterID, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallets")
	}
	return wallets, nil
}

func appendDelta(entry models.LedgerEntry) int64 {
	if entry.Memo {
		return 0
	}
	switch {
	case entry.Type == enums.LedgerEntryCredit && entry.Status == enums.LedgerEntryCompleted:
		return entry.AmountCents
	case entry.Type == enums.LedgerEntryDebit && entry.Status != enums.LedgerEntryFailed:
		return -entry.AmountCents
	default:
		return 0
	}
}

func resolveDelta(entry models.LedgerEntry) int64 {
	if entry.Memo {
		return 0
	}
	switch {
	case entry.Type == enums.LedgerEntryCredit && entry.Status == enums.LedgerEntryCompleted:
		return entry.AmountCents
	case entry.Type == enums.LedgerEntryDebit && entry.Status == enums.LedgerEntryFailed:
		return entry.AmountCents
	default:
		return 0
	}
}

func invalidResolution(entry *models.LedgerEntry) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "ledger entry already resolved").
		WithDetails(map[string]any{
			"entry_id": entry.ID.String(),
			"status":   entry.Status,
		})
}

package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/pagination"
)

// Repository manages persistence for wallets and their ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnsureWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error)
	FindWalletByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	FindWallet(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)
	ListWallets(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Wallet, error)
	AdjustBalance(ctx context.Context, walletID uuid.UUID, delta int64) (bool, error)
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	FindEntry(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error)
	MarkEntryResolved(ctx context.Context, entryID uuid.UUID, status enums.LedgerEntryStatus, at time.Time) (bool, error)
	ListEntries(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, error)
	SumEntries(ctx context.Context, walletID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// EnsureWallet inserts a zero-balance wallet unless one already exists, then
// returns the stored row.
func (r *repository) EnsureWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	wallet := models.Wallet{UserID: userID, Currency: currency}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&wallet).Error
	if err != nil {
		return nil, err
	}
	return r.FindWalletByUser(ctx, userID)
}

func (r *repository) FindWalletByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindWallet(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("id = ?", walletID).First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) ListWallets(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Wallet, error) {
	var wallets []models.Wallet
	query := r.db.WithContext(ctx).Order("id ASC").Limit(limit)
	if afterID != uuid.Nil {
		query = query.Where("id > ?", afterID)
	}
	if err := query.Find(&wallets).Error; err != nil {
		return nil, err
	}
	return wallets, nil
}

// AdjustBalance moves the cached balance by delta in one statement. Negative
// deltas only apply when the balance covers them; the bool reports whether a
// row was updated.
func (r *repository) AdjustBalance(ctx context.Context, walletID uuid.UUID, delta int64) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Wallet{}).Where("id = ?", walletID)
	if delta < 0 {
		query = query.Where("balance_cents >= ?", -delta)
	}
	res := query.Updates(map[string]any{
		"balance_cents": gorm.Expr("balance_cents + ?", delta),
		"updated_at":    time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindEntry(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.WithContext(ctx).Where("id = ?", entryID).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarkEntryResolved flips a pending entry to its final status. It reports
// false when the entry was no longer pending.
func (r *repository) MarkEntryResolved(ctx context.Context, entryID uuid.UUID, status enums.LedgerEntryStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ? AND status = ?", entryID, enums.LedgerEntryPending).
		Updates(map[string]any{
			"status":      status,
			"resolved_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListEntries(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var entries []models.LedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SumEntries applies the reconciliation rule in SQL: completed credits minus
// debits that have not failed, ignoring memo entries.
func (r *repository) SumEntries(ctx context.Context, walletID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT CAST(COALESCE(SUM(CASE
			WHEN type = ? AND status = ? THEN amount_cents
			WHEN type = ? AND status <> ? THEN -amount_cents
			ELSE 0
		END), 0) AS BIGINT)
		FROM ledger_entries
		WHERE wallet_id = ? AND memo = ?
	`,
		enums.LedgerEntryCredit, enums.LedgerEntryCompleted,
		enums.LedgerEntryDebit, enums.LedgerEntryFailed,
		walletID, false,
	).Scan(&sum).Error
	return sum, err
}

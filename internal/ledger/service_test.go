package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigmarket-backend/pkg/db"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigmarket-backend/pkg/errors"
	"github.com/angelmondragon/gigmarket-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), "INR")
	require.NoError(t, err)
	return svc, conn
}

func credit(t *testing.T, svc Service, userID uuid.UUID, amount int64) *models.LedgerEntry {
	t.Helper()
	entry, err := svc.AppendEntry(context.Background(), AppendEntryInput{
		UserID:      userID,
		Type:        enums.LedgerEntryCredit,
		AmountCents: amount,
		Description: "top up",
		Status:      enums.LedgerEntryCompleted,
	})
	require.NoError(t, err)
	return entry
}

func requireReconciled(t *testing.T, svc Service, userID uuid.UUID) *Reconciliation {
	t.Helper()
	rec, err := svc.Reconcile(context.Background(), userID)
	require.NoError(t, err)
	require.Truef(t, rec.Balanced(), "balance %d ledger %d", rec.BalanceCents, rec.LedgerSumCents)
	return rec
}

func TestNewServiceValidation(t *testing.T) {
	conn := dbtest.Open(t)
	_, err := NewService(nil, db.NewFromConn(conn), "INR")
	require.Error(t, err)
	_, err = NewService(NewRepository(conn), nil, "INR")
	require.Error(t, err)
	_, err = NewService(NewRepository(conn), db.NewFromConn(conn), " ")
	require.Error(t, err)
}

func TestGetWalletCreatesLazily(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()

	first, err := svc.GetWallet(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.BalanceCents)
	assert.Equal(t, "INR", first.Currency)

	second, err := svc.GetWallet(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAppendCreditAndDebit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	credit(t, svc, userID, 1000)

	debit, err := svc.AppendEntry(ctx, AppendEntryInput{
		UserID:      userID,
		Type:        enums.LedgerEntryDebit,
		AmountCents: 400,
		Description: "order payment",
		Status:      enums.LedgerEntryCompleted,
	})
	require.NoError(t, err)
	require.NotNil(t, debit.ResolvedAt)

	wallet, err := svc.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), wallet.BalanceCents)
	requireReconciled(t, svc, userID)
}

func TestAppendRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService(t)
	for _, amount := range []int64{0, -5} {
		_, err := svc.AppendEntry(context.Background(), AppendEntryInput{
			UserID:      uuid.New(),
			Type:        enums.LedgerEntryCredit,
			AmountCents: amount,
			Status:      enums.LedgerEntryCompleted,
		})
		require.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidAmount), "amount %d: %v", amount, err)
	}
}

func TestAppendRejectsUnknownTypeAndStatus(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.AppendEntry(context.Background(), AppendEntryInput{
		UserID: uuid.New(), Type: "refund", AmountCents: 10, Status: enums.LedgerEntryCompleted,
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.AppendEntry(context.Background(), AppendEntryInput{
		UserID: uuid.New(), Type: enums.LedgerEntryCredit, AmountCents: 10, Status: "settled",
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestAppendDebitInsufficientBalanceLeavesNoTrace(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	credit(t, svc, userID, 100)

	_, err := svc.AppendEntry(ctx, AppendEntryInput{
		UserID:      userID,
		Type:        enums.LedgerEntryDebit,
		AmountCents: 101,
		Status:      enums.LedgerEntryPending,
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientBalance), "got %v", err)

	var count int64
	require.NoError(t, conn.Model(&models.LedgerEntry{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	rec := requireReconciled(t, svc, userID)
	assert.Equal(t, int64(100), rec.BalanceCents)
}

func TestPendingCreditDoesNotMoveBalanceUntilCompleted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	entry, err := svc.AppendEntry(ctx, AppendEntryInput{
		UserID:      userID,
		Type:        enums.LedgerEntryCredit,
		AmountCents: 250,
		Status:      enums.LedgerEntryPending,
	})
	require.NoError(t, err)
	rec := requireReconciled(t, svc, userID)
	assert.Equal(t, int64(0), rec.BalanceCents)

	_, err = svc.ResolveEntry(ctx, entry.ID, enums.LedgerEntryCompleted)
	require.NoError(t, err)
	rec = requireReconciled(t, svc, userID)
	assert.Equal(t, int64(250), rec.BalanceCents)
}

func TestResolvePendingDebit(t *testing.T) {
	tests := []struct {
		name    string
		status  enums.LedgerEntryStatus
		balance int64
	}{
		{name: "completed keeps reservation", status: enums.LedgerEntryCompleted, balance: 700},
		{name: "failed restores balance", status: enums.LedgerEntryFailed, balance: 1000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			ctx := context.Background()
			userID := uuid.New()
			credit(t, svc, userID, 1000)

			pending, err := svc.AppendEntry(ctx, AppendEntryInput{
				UserID:      userID,
				Type:        enums.LedgerEntryDebit,
				AmountCents: 300,
				Status:      enums.LedgerEntryPending,
			})
			require.NoError(t, err)
			assert.Nil(t, pending.ResolvedAt)
			rec := requireReconciled(t, svc, userID)
			assert.Equal(t, int64(700), rec.BalanceCents)

			resolved, err := svc.ResolveEntry(ctx, pending.ID, tc.status)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resolved.Status)
			require.NotNil(t, resolved.ResolvedAt)

			rec = requireReconciled(t, svc, userID)
			assert.Equal(t, tc.balance, rec.BalanceCents)
		})
	}
}

func TestResolveTwiceFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	credit(t, svc, userID, 500)

	pending, err := svc.AppendEntry(ctx, AppendEntryInput{
		UserID: userID, Type: enums.LedgerEntryDebit, AmountCents: 200, Status: enums.LedgerEntryPending,
	})
	require.NoError(t, err)

	_, err = svc.ResolveEntry(ctx, pending.ID, enums.LedgerEntryFailed)
	require.NoError(t, err)

	_, err = svc.ResolveEntry(ctx, pending.ID, enums.LedgerEntryFailed)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidTransition), "got %v", err)
	_, err = svc.ResolveEntry(ctx, pending.ID, enums.LedgerEntryCompleted)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidTransition), "got %v", err)

	rec := requireReconciled(t, svc, userID)
	assert.Equal(t, int64(500), rec.BalanceCents)
}

func TestResolveValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ResolveEntry(ctx, uuid.New(), enums.LedgerEntryPending)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.ResolveEntry(ctx, uuid.New(), enums.LedgerEntryCompleted)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestDuplicateReferenceConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	ref := Reference("settlement", uuid.New())

	input := AppendEntryInput{
		UserID:      userID,
		Type:        enums.LedgerEntryCredit,
		AmountCents: 900,
		Reference:   ref,
		Status:      enums.LedgerEntryCompleted,
	}
	_, err := svc.AppendEntry(ctx, input)
	require.NoError(t, err)

	_, err = svc.AppendEntry(ctx, input)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict), "got %v", err)

	rec := requireReconciled(t, svc, userID)
	assert.Equal(t, int64(900), rec.BalanceCents)
}

func TestMemoEntryIsExcludedFromBalance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	credit(t, svc, userID, 1000)

	_, err := svc.AppendEntry(ctx, AppendEntryInput{
		UserID:      userID,
		Type:        enums.LedgerEntryCredit,
		AmountCents: 300,
		Description: "refund note",
		Status:      enums.LedgerEntryCompleted,
		Memo:        true,
	})
	require.NoError(t, err)

	rec := requireReconciled(t, svc, userID)
	assert.Equal(t, int64(1000), rec.BalanceCents)
	assert.Equal(t, int64(1000), rec.LedgerSumCents)
}

func TestReconcileDetectsDrift(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	credit(t, svc, userID, 100)

	require.NoError(t, conn.Exec("UPDATE wallets SET balance_cents = 150 WHERE user_id = ?", userID).Error)

	rec, err := svc.Reconcile(ctx, userID)
	require.NoError(t, err)
	assert.False(t, rec.Balanced())
	assert.Equal(t, int64(50), rec.DriftCents)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	credit(t, svc, userID, 100)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AppendEntry(ctx, AppendEntryInput{
				UserID:      userID,
				Type:        enums.LedgerEntryDebit,
				AmountCents: 80,
				Status:      enums.LedgerEntryPending,
			})
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			require.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientBalance), "got %v", err)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	rec := requireReconciled(t, svc, userID)
	assert.Equal(t, int64(20), rec.BalanceCents)
}

// staleWalletRepository hands out a wallet row captured before later writes
// committed, as a transaction that read it first would see it.
type staleWalletRepository struct {
	Repository
	wallet models.Wallet
}

func (r *staleWalletRepository) WithTx(tx *gorm.DB) Repository {
	return &staleWalletRepository{Repository: r.Repository.WithTx(tx), wallet: r.wallet}
}

func (r *staleWalletRepository) EnsureWallet(context.Context, uuid.UUID, string) (*models.Wallet, error) {
	wallet := r.wallet
	return &wallet, nil
}

func (r *staleWalletRepository) FindWallet(context.Context, uuid.UUID) (*models.Wallet, error) {
	wallet := r.wallet
	return &wallet, nil
}

func TestDebitAgainstStaleBalanceIsRejected(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	credit(t, svc, userID, 100)
	snapshot, err := svc.GetWallet(ctx, userID)
	require.NoError(t, err)

	_, err = svc.AppendEntry(ctx, AppendEntryInput{UserID: userID, Type: enums.LedgerEntryDebit, AmountCents: 80, Status: enums.LedgerEntryPending})
	require.NoError(t, err)

	stale, err := NewService(&staleWalletRepository{Repository: NewRepository(conn), wallet: *snapshot}, db.NewFromConn(conn), "INR")
	require.NoError(t, err)
	_, err = stale.AppendEntry(ctx, AppendEntryInput{UserID: userID, Type: enums.LedgerEntryDebit, AmountCents: 80, Status: enums.LedgerEntryPending})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientBalance), "got %v", err)

	rec := requireReconciled(t, svc, userID)
	assert.Equal(t, int64(20), rec.BalanceCents)
}

func TestReconcileWalletReadsCurrentRow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	credit(t, svc, userID, 100)

	wallets, err := svc.ListWallets(ctx, uuid.Nil, 10)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	credit(t, svc, userID, 47250)

	rec, err := svc.ReconcileWallet(ctx, wallets[0].ID)
	require.NoError(t, err)
	assert.True(t, rec.Balanced())
	assert.Equal(t, int64(47350), rec.BalanceCents)
	assert.Equal(t, userID, rec.UserID)

	_, err = svc.ReconcileWallet(ctx, uuid.New())
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestListEntriesPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	for _, amount := range []int64{100, 200, 300} {
		credit(t, svc, userID, amount)
	}
	credit(t, svc, uuid.New(), 999)

	first, err := svc.ListEntries(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Entries, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListEntries(ctx, userID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Entries, 1)
	assert.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, e := range append(first.Entries, second.Entries...) {
		assert.False(t, seen[e.ID], "duplicate entry %s", e.ID)
		seen[e.ID] = true
		assert.Equal(t, userID, e.UserID)
	}

	_, err = svc.ListEntries(ctx, userID, pagination.Params{Cursor: "%%%"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

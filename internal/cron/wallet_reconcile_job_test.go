package cron

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/gigmarket-backend/internal/ledger"
	"github.com/angelmondragon/gigmarket-backend/pkg/db"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/metrics"
)

func TestWalletReconcileJobPagesThroughBalancedWallets(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := ledger.NewService(ledger.NewRepository(conn), db.NewFromConn(conn), "INR")
	require.NoError(t, err)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := svc.AppendEntry(ctx, ledger.AppendEntryInput{
			UserID:      uuid.New(),
			Type:        enums.LedgerEntryCredit,
			AmountCents: int64(100 * (i + 1)),
			Status:      enums.LedgerEntryCompleted,
		})
		require.NoError(t, err)
	}

	lister := &countingReconciler{walletReconciler: svc}
	job, err := NewWalletReconcileJob(WalletReconcileJobParams{Logger: testLogger(), Ledger: lister, PageSize: 2})
	require.NoError(t, err)
	require.NoError(t, job.Run(ctx))
	assert.Equal(t, 3, lister.pages)
	assert.Equal(t, 5, lister.reconciled)
}

func TestWalletReconcileJobReportsDrift(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := ledger.NewService(ledger.NewRepository(conn), db.NewFromConn(conn), "INR")
	require.NoError(t, err)
	ctx := context.Background()

	healthy := uuid.New()
	broken := uuid.New()
	for _, userID := range []uuid.UUID{healthy, broken} {
		_, err := svc.AppendEntry(ctx, ledger.AppendEntryInput{
			UserID:      userID,
			Type:        enums.LedgerEntryCredit,
			AmountCents: 1000,
			Status:      enums.LedgerEntryCompleted,
		})
		require.NoError(t, err)
	}
	require.NoError(t, conn.Model(&models.Wallet{}).Where("user_id = ?", broken).Update("balance_cents", 1250).Error)

	reg := prometheus.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(reg)
	job, err := NewWalletReconcileJob(WalletReconcileJobParams{Logger: testLogger(), Ledger: svc, Metrics: ledgerMetrics})
	require.NoError(t, err)

	err = job.Run(ctx)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "drifted by 250 cents")

	var balance int64
	require.NoError(t, conn.Model(&models.Wallet{}).Select("balance_cents").Where("user_id = ?", broken).Scan(&balance).Error)
	assert.Equal(t, int64(1250), balance)

	families, err := reg.Gather()
	require.NoError(t, err)
	var drift *dto.MetricFamily
	for _, family := range families {
		if family.GetName() == "wallet_balance_drift_total" {
			drift = family
		}
	}
	require.NotNil(t, drift)
	assert.Equal(t, float64(1), drift.GetMetric()[0].GetCounter().GetValue())
}

type countingReconciler struct {
	walletReconciler
	pages      int
	reconciled int
}

func (c *countingReconciler) ListWallets(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Wallet, error) {
	c.pages++
	return c.walletReconciler.ListWallets(ctx, afterID, limit)
}

func (c *countingReconciler) ReconcileWallet(ctx context.Context, walletID uuid.UUID) (*ledger.Reconciliation, error) {
	c.reconciled++
	return c.walletReconciler.ReconcileWallet(ctx, walletID)
}

// settlingReconciler commits a ledger write after every wallet page is
// listed, so the listed rows are stale by the time they are reconciled.
type settlingReconciler struct {
	walletReconciler
	settle func(wallets []models.Wallet)
}

func (s *settlingReconciler) ListWallets(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Wallet, error) {
	wallets, err := s.walletReconciler.ListWallets(ctx, afterID, limit)
	if err == nil {
		s.settle(wallets)
	}
	return wallets, err
}

func TestWalletReconcileJobIgnoresWritesAfterListing(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := ledger.NewService(ledger.NewRepository(conn), db.NewFromConn(conn), "INR")
	require.NoError(t, err)
	ctx := context.Background()

	seller := uuid.New()
	_, err = svc.AppendEntry(ctx, ledger.AppendEntryInput{
		UserID:      seller,
		Type:        enums.LedgerEntryCredit,
		AmountCents: 10000,
		Status:      enums.LedgerEntryCompleted,
	})
	require.NoError(t, err)

	settler := &settlingReconciler{walletReconciler: svc, settle: func(wallets []models.Wallet) {
		for _, wallet := range wallets {
			_, err := svc.AppendEntry(ctx, ledger.AppendEntryInput{
				UserID:      wallet.UserID,
				Type:        enums.LedgerEntryCredit,
				AmountCents: 47250,
				Description: "Settlement for order",
				Status:      enums.LedgerEntryCompleted,
			})
			require.NoError(t, err)
		}
	}}

	reg := prometheus.NewRegistry()
	job, err := NewWalletReconcileJob(WalletReconcileJobParams{Logger: testLogger(), Ledger: settler, Metrics: metrics.NewLedgerMetrics(reg)})
	require.NoError(t, err)
	require.NoError(t, job.Run(ctx))

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "wallet_balance_drift_total" {
			for _, metric := range family.GetMetric() {
				assert.Zero(t, metric.GetCounter().GetValue())
			}
		}
	}

	rec, err := svc.Reconcile(ctx, seller)
	require.NoError(t, err)
	assert.True(t, rec.Balanced())
	assert.Equal(t, int64(57250), rec.BalanceCents)
}

package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/gigmarket-backend/internal/ledger"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/logger"
	"github.com/angelmondragon/gigmarket-backend/pkg/metrics"
	"github.com/angelmondragon/gigmarket-backend/pkg/pagination"
)

type walletReconciler interface {
	ListWallets(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Wallet, error)
	ReconcileWallet(ctx context.Context, walletID uuid.UUID) (*ledger.Reconciliation, error)
}

type WalletReconcileJobParams struct {
	Logger   *logger.Logger
	Ledger   walletReconciler
	Metrics  *metrics.LedgerMetrics
	PageSize int
}

// NewWalletReconcileJob checks every wallet's cached balance against its
// ledger. Drift is logged, counted and reported as a job failure; balances
// are left untouched for manual investigation.
func NewWalletReconcileJob(params WalletReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	pageSize := pagination.MaxLimit
	if params.PageSize > 0 && params.PageSize < pageSize {
		pageSize = params.PageSize
	}
	return &walletReconcileJob{
		logg:     params.Logger,
		ledger:   params.Ledger,
		metrics:  params.Metrics,
		pageSize: pageSize,
	}, nil
}

type walletReconcileJob struct {
	logg     *logger.Logger
	ledger   walletReconciler
	metrics  *metrics.LedgerMetrics
	pageSize int
}

func (j *walletReconcileJob) Name() string { return "wallet-reconcile" }

func (j *walletReconcileJob) Run(ctx context.Context) error {
	var (
		errs    error
		checked int
		drifted int
		afterID = uuid.Nil
	)
	for {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		wallets, err := j.ledger.ListWallets(ctx, afterID, j.pageSize)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list wallets: %w", err))
		}
		for _, wallet := range wallets {
			checked++
			rec, err := j.ledger.ReconcileWallet(ctx, wallet.ID)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("reconcile wallet %s: %w", wallet.ID, err))
				continue
			}
			if rec.Balanced() {
				continue
			}
			drifted++
			j.metrics.IncDrift()
			logCtx := j.logg.WithFields(ctx, map[string]any{
				"wallet_id":        wallet.ID.String(),
				"user_id":          rec.UserID.String(),
				"balance_cents":    rec.BalanceCents,
				"ledger_sum_cents": rec.LedgerSumCents,
				"drift_cents":      rec.DriftCents,
			})
			j.logg.Warn(logCtx, "wallet balance drift detected")
			errs = multierr.Append(errs, fmt.Errorf("wallet %s drifted by %d cents", wallet.ID, rec.DriftCents))
		}
		if len(wallets) < j.pageSize {
			break
		}
		afterID = wallets[len(wallets)-1].ID
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"wallets_checked": checked, "wallets_drifted": drifted})
	j.logg.Info(logCtx, "wallet reconciliation finished")
	return errs
}

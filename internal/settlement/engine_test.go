package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigmarket-backend/internal/ledger"
	"github.com/angelmondragon/gigmarket-backend/pkg/db"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigmarket-backend/pkg/errors"
)

type stubAppender struct {
	inputs []ledger.AppendEntryInput
	err    error
}

func (s *stubAppender) Append(_ context.Context, _ *gorm.DB, input ledger.AppendEntryInput) (*models.LedgerEntry, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	return &models.LedgerEntry{ID: uuid.New(), Type: input.Type, AmountCents: input.AmountCents, Status: input.Status}, nil
}

func mustEngine(t *testing.T, appender ledgerAppender, rate string) *Engine {
	t.Helper()
	engine, err := NewEngine(appender, decimal.RequireFromString(rate))
	require.NoError(t, err)
	return engine
}

func TestNewEngineRejectsRateOutOfRange(t *testing.T) {
	for _, rate := range []string{"-0.01", "1", "1.2"} {
		_, err := NewEngine(&stubAppender{}, decimal.RequireFromString(rate))
		require.Error(t, err, rate)
	}
	_, err := NewEngine(nil, decimal.RequireFromString("0.1"))
	require.Error(t, err)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		rate       string
		total      int64
		commission int64
		net        int64
	}{
		{rate: "0.10", total: 52500, commission: 5250, net: 47250},
		{rate: "0.10", total: 1000, commission: 100, net: 900},
		{rate: "0.10", total: 5, commission: 1, net: 4},
		{rate: "0.10", total: 4, commission: 0, net: 4},
		{rate: "0.15", total: 333, commission: 50, net: 283},
		{rate: "0", total: 1234, commission: 0, net: 1234},
	}

	for _, tc := range tests {
		engine := mustEngine(t, &stubAppender{}, tc.rate)
		split, err := engine.Split(tc.total)
		require.NoError(t, err)
		assert.Equal(t, tc.commission, split.CommissionCents, "rate %s total %d", tc.rate, tc.total)
		assert.Equal(t, tc.net, split.NetCents, "rate %s total %d", tc.rate, tc.total)
		assert.Equal(t, tc.total, split.CommissionCents+split.NetCents)
	}
}

func TestSplitRejectsNonPositiveTotal(t *testing.T) {
	engine := mustEngine(t, &stubAppender{}, "0.10")
	for _, total := range []int64{0, -100} {
		_, err := engine.Split(total)
		require.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidState), "total %d", total)
	}
}

func TestSettleCreditsSellerNet(t *testing.T) {
	appender := &stubAppender{}
	engine := mustEngine(t, appender, "0.10")
	order := models.Order{
		ID:               uuid.New(),
		SellerID:         uuid.New(),
		ListingTitle:     "Deep clean",
		TotalAmountCents: 52500,
	}

	result, err := engine.Settle(context.Background(), &gorm.DB{}, order)
	require.NoError(t, err)
	require.NotNil(t, result.Entry)
	require.Len(t, appender.inputs, 1)

	input := appender.inputs[0]
	assert.Equal(t, order.SellerID, input.UserID)
	assert.Equal(t, enums.LedgerEntryCredit, input.Type)
	assert.Equal(t, enums.LedgerEntryCompleted, input.Status)
	assert.Equal(t, int64(47250), input.AmountCents)
	require.NotNil(t, input.RelatedOrderID)
	assert.Equal(t, order.ID, *input.RelatedOrderID)
	require.NotNil(t, input.Reference)
	assert.Equal(t, "settlement:"+order.ID.String(), *input.Reference)
	assert.Contains(t, input.Description, "Deep clean")
	assert.Contains(t, input.Description, "525.00")
	assert.Contains(t, input.Description, "52.50")
}

func TestSettleSkipsZeroNet(t *testing.T) {
	appender := &stubAppender{}
	engine := mustEngine(t, appender, "0.5")

	result, err := engine.Settle(context.Background(), &gorm.DB{}, models.Order{ID: uuid.New(), SellerID: uuid.New(), TotalAmountCents: 1})
	require.NoError(t, err)
	assert.Nil(t, result.Entry)
	assert.Equal(t, int64(1), result.CommissionCents)
	assert.Empty(t, appender.inputs)
}

func TestSettlePropagatesLedgerError(t *testing.T) {
	appender := &stubAppender{err: errors.New("boom")}
	engine := mustEngine(t, appender, "0.10")

	_, err := engine.Settle(context.Background(), &gorm.DB{}, models.Order{ID: uuid.New(), SellerID: uuid.New(), TotalAmountCents: 100})
	require.Error(t, err)
}

func TestSettleTwiceConflictsAgainstRealLedger(t *testing.T) {
	conn := dbtest.Open(t)
	client := db.NewFromConn(conn)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), client, "INR")
	require.NoError(t, err)
	engine := mustEngine(t, ledgerSvc, "0.10")
	ctx := context.Background()
	order := models.Order{ID: uuid.New(), SellerID: uuid.New(), ListingTitle: "Tiling", TotalAmountCents: 52500}

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := engine.Settle(ctx, tx, order)
		return err
	}))

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := engine.Settle(ctx, tx, order)
		return err
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict), "got %v", err)

	rec, err := ledgerSvc.Reconcile(ctx, order.SellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(47250), rec.BalanceCents)
	assert.True(t, rec.Balanced())
}

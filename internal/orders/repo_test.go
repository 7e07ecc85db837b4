package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gigmarket-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/pagination"
)

func seedOrder(t *testing.T, repo Repository, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		BuyerID:          uuid.New(),
		SellerID:         uuid.New(),
		ListingID:        uuid.New(),
		ListingTitle:     "Gardening",
		AmountCents:      1000,
		TotalAmountCents: 1000,
		PaymentMethod:    enums.PaymentMethodCard,
		Status:           status,
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestRepositoryTransitionStatusIsCompareAndSet(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	order := seedOrder(t, repo, enums.OrderStatusPending)

	pending := StatusGuard{From: []enums.OrderStatus{enums.OrderStatusPending}}
	ok, err := repo.TransitionStatus(ctx, order.ID, pending, map[string]any{"status": enums.OrderStatusInProgress})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.TransitionStatus(ctx, order.ID, pending, map[string]any{"status": enums.OrderStatusCancelled})
	require.NoError(t, err)
	require.False(t, ok)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusInProgress, stored.Status)

	ok, err = repo.TransitionStatus(ctx, order.ID, StatusGuard{}, map[string]any{"status": enums.OrderStatusCancelled})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRepositoryTransitionStatusChecksPaymentFlag(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	order := seedOrder(t, repo, enums.OrderStatusPending)
	payable := []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusInProgress}

	ok, err := repo.MarkPaid(ctx, order.ID, payable, map[string]any{"is_paid": true})
	require.NoError(t, err)
	require.True(t, ok)

	unpaid := false
	ok, err = repo.TransitionStatus(ctx, order.ID, StatusGuard{From: payable, IsPaid: &unpaid}, map[string]any{"status": enums.OrderStatusCancelled})
	require.NoError(t, err)
	require.False(t, ok)

	paid := true
	ok, err = repo.TransitionStatus(ctx, order.ID, StatusGuard{From: payable, IsPaid: &paid}, map[string]any{"status": enums.OrderStatusCancelled})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRepositoryMarkPaidRequiresPayableStatus(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	order := seedOrder(t, repo, enums.OrderStatusCancelled)

	ok, err := repo.MarkPaid(ctx, order.ID, []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusInProgress}, map[string]any{"is_paid": true})
	require.NoError(t, err)
	require.False(t, ok)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.False(t, stored.IsPaid)
}

func TestRepositoryMarkPaidAndRatedOnce(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	order := seedOrder(t, repo, enums.OrderStatusInProgress)
	payable := []enums.OrderStatus{enums.OrderStatusInProgress}

	ok, err := repo.MarkPaid(ctx, order.ID, payable, map[string]any{"is_paid": true})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.MarkPaid(ctx, order.ID, payable, map[string]any{"is_paid": true})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.TransitionStatus(ctx, order.ID, StatusGuard{From: payable}, map[string]any{"status": enums.OrderStatusCompleted})
	require.NoError(t, err)
	require.True(t, ok)

	review := "great"
	ok, err = repo.MarkRated(ctx, order.ID, 5, &review)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.MarkRated(ctx, order.ID, 1, nil)
	require.NoError(t, err)
	require.False(t, ok)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, stored.Rated)
	require.Equal(t, 5, *stored.Rating)
}

func TestRepositoryListFilters(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	first := seedOrder(t, repo, enums.OrderStatusPending)
	seedOrder(t, repo, enums.OrderStatusCompleted)

	rows, err := repo.List(ctx, ListFilter{ParticipantID: &first.SellerID}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, first.ID, rows[0].ID)

	status := enums.OrderStatusCompleted
	rows, err = repo.List(ctx, ListFilter{Status: &status}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = repo.List(ctx, ListFilter{}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

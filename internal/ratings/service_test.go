package ratings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gigmarket-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
)

func TestAverage(t *testing.T) {
	assert.True(t, Average(0, 0).Equal(decimal.Zero))
	assert.Equal(t, "4.50", Average(9, 2).StringFixed(2))
	assert.Equal(t, "4.33", Average(13, 3).StringFixed(2))
	assert.Equal(t, "4.67", Average(14, 3).StringFixed(2))
}

func TestRecomputeFromFullReviewSet(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(conn)
	ctx := context.Background()
	sellerID := uuid.New()

	for _, rating := range []int{5, 4} {
		require.NoError(t, conn.Create(&models.Review{OrderID: uuid.New(), BuyerID: uuid.New(), SellerID: sellerID, Rating: rating}).Error)
	}
	require.NoError(t, conn.Create(&models.Review{OrderID: uuid.New(), BuyerID: uuid.New(), SellerID: uuid.New(), Rating: 1}).Error)

	agg, err := svc.Recompute(ctx, nil, sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), agg.NumReviews)
	assert.Equal(t, "4.50", agg.Rating.StringFixed(2))

	require.NoError(t, conn.Create(&models.Review{OrderID: uuid.New(), BuyerID: uuid.New(), SellerID: sellerID, Rating: 4}).Error)
	agg, err = svc.Recompute(ctx, conn, sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), agg.NumReviews)

	stored, err := svc.Get(ctx, sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.NumReviews)
	assert.Equal(t, "4.33", stored.Rating.StringFixed(2))
}

func TestGetWithoutReviews(t *testing.T) {
	svc := NewService(dbtest.Open(t))
	sellerID := uuid.New()

	agg, err := svc.Get(context.Background(), sellerID)
	require.NoError(t, err)
	assert.Equal(t, sellerID, agg.SellerID)
	assert.Equal(t, int64(0), agg.NumReviews)
	assert.True(t, agg.Rating.IsZero())
}

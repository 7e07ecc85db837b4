package listings

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigmarket-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
)

func TestFindByID(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	listing := models.Listing{ID: uuid.New(), SellerID: uuid.New(), Title: "Plumbing", PriceCents: 50000, IsActive: true}
	require.NoError(t, conn.Create(&listing).Error)

	got, err := repo.FindByID(context.Background(), listing.ID)
	require.NoError(t, err)
	require.Equal(t, "Plumbing", got.Title)
	require.Equal(t, listing.SellerID, got.SellerID)

	_, err = repo.FindByID(context.Background(), uuid.New())
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

// Package ratings maintains the per-seller rating aggregate.
package ratings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gigmarket-backend/pkg/errors"
)

// Service recomputes seller ratings from the stored reviews.
type Service struct {
	db *gorm.DB
}

// NewService binds the service to db; Recompute prefers the caller's tx.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type reviewTotals struct {
	NumReviews int64
	SumRating  int64
}

// Recompute derives the seller aggregate from the full review set (not an
// incremental update) and upserts it. The average is rounded half up to two
// decimals.
func (s *Service) Recompute(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*models.SellerRating, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	conn := tx
	if conn == nil {
		conn = s.db
	}
	if conn == nil {
		return nil, fmt.Errorf("ratings database required")
	}
	conn = conn.WithContext(ctx)

	var totals reviewTotals
	if err := conn.Model(&models.Review{}).
		Select("COUNT(*) AS num_reviews, COALESCE(SUM(rating), 0) AS sum_rating").
		Where("seller_id = ?", sellerID).
		Scan(&totals).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate reviews")
	}

	rating := Average(totals.SumRating, totals.NumReviews)
	row := models.SellerRating{
		SellerID:   sellerID,
		Rating:     rating,
		NumReviews: totals.NumReviews,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "seller_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "num_reviews", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert seller rating")
	}
	return &row, nil
}

// Get returns the stored aggregate, or a zero aggregate when the seller has no reviews yet.
func (s *Service) Get(ctx context.Context, sellerID uuid.UUID) (*models.SellerRating, error) {
	var row models.SellerRating
	err := s.db.WithContext(ctx).Where("seller_id = ?", sellerID).Limit(1).Find(&row).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller rating")
	}
	if row.SellerID == uuid.Nil {
		return &models.SellerRating{SellerID: sellerID, Rating: decimal.Zero}, nil
	}
	return &row, nil
}

// Average is sum/count rounded half up to two decimals; zero when count is zero.
func Average(sum, count int64) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(count), 2)
}

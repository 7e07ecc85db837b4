// Package listings reads the worker service listings orders are placed against.
package listings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
)

// Repository is a read-only view over listings.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a listings repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their reviews.
// Status changes are compare-and-set: the bool result reports whether the
// row still matched the expected state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, guard StatusGuard, updates map[string]any) (bool, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, from []enums.OrderStatus, updates map[string]any) (bool, error)
	MarkRated(ctx context.Context, orderID uuid.UUID, rating int, review *string) (bool, error)
	CreateReview(ctx context.Context, review *models.Review) error
}

// StatusGuard is the row state a status change expects. IsPaid, when set,
// also pins the payment flag the caller decided on.
type StatusGuard struct {
	From   []enums.OrderStatus
	IsPaid *bool
}

package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platofoods/plato-backend/pkg/db/models"
	"github.com/platofoods/plato-backend/pkg/enums"
	"github.com/platofoods/plato-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their paired
// tracking records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateTrackingRecord(ctx context.Context, record *models.TrackingRecord) (*models.TrackingRecord, error)
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindTrackingByOrder(ctx context.Context, orderID uuid.UUID) (*models.TrackingRecord, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// UpdateOrderIfStatus applies updates only while the order still holds
	// expected status; reports whether a row was changed.
	UpdateOrderIfStatus(ctx context.Context, id uuid.UUID, expected enums.OrderStatus, updates map[string]any) (bool, error)
	// ClaimOrder atomically assigns agentID when no agent is set and the order
	// is still claimable. The conditional write is the whole race resolution:
	// exactly one concurrent caller observes claimed == true.
	ClaimOrder(ctx context.Context, orderID, agentID uuid.UUID) (bool, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error)
	ListByAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error)
	ListUnassigned(ctx context.Context, params pagination.Params) (*pagination.Page[models.Order], error)
}

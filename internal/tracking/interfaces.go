package tracking

import (
	"context"

	"github.com/google/uuid"

	"github.com/platofoods/plato-backend/pkg/db/models"
)

// Repository defines persistence operations for tracking records.
type Repository interface {
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.TrackingRecord, error)
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}

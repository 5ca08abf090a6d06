package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/platofoods/plato-backend/pkg/db/models"
	"github.com/platofoods/plato-backend/pkg/pagination"
)

// Repository defines persistence operations for restaurants and menu items.
type Repository interface {
	FindRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	FindRestaurantByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context, params pagination.Params) (*pagination.Page[models.Restaurant], error)
	FindMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	FindMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MenuItem, error)
	ListMenuItems(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) (*pagination.Page[models.MenuItem], error)
	FindAddress(ctx context.Context, id uuid.UUID) (*models.Address, error)
}

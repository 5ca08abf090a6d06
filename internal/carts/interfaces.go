package carts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platofoods/plato-backend/pkg/db/models"
)

// Repository defines persistence operations for cart tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error)
	Create(ctx context.Context, cart *models.CartRecord) (*models.CartRecord, error)
	AddItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQty(ctx context.Context, itemID uuid.UUID, qty int) error
	RemoveItem(ctx context.Context, itemID uuid.UUID) error
	SetRestaurant(ctx context.Context, cartID uuid.UUID, restaurantID *uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

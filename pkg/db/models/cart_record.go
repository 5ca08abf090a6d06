package models

import (
	"time"

	"github.com/google/uuid"
)

// CartRecord is the customer's ephemeral cart; it is cleared when checkout
// succeeds.
type CartRecord struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID   uuid.UUID  `gorm:"column:customer_id;type:uuid;not null;uniqueIndex"`
	RestaurantID *uuid.UUID `gorm:"column:restaurant_id;type:uuid"`
	Items        []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem references a live menu item; prices are resolved at checkout, not
// here.
type CartItem struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID              uuid.UUID `gorm:"column:cart_id;type:uuid;not null"`
	MenuItemID          uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null"`
	Qty                 int       `gorm:"column:qty;not null;default:1"`
	ExcludedIngredients []string  `gorm:"column:excluded_ingredients;type:jsonb;serializer:json"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
}

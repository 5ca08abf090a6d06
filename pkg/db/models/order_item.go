package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is the frozen snapshot of a cart line at checkout time. Later
// catalog edits never touch these rows.
type OrderItem struct {
	ID                  uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	MenuItemID          *uuid.UUID `gorm:"column:menu_item_id;type:uuid"`
	Name                string     `gorm:"column:name;not null"`
	UnitPriceCents      int        `gorm:"column:unit_price_cents;not null"`
	Qty                 int        `gorm:"column:qty;not null"`
	PrepMinutes         int        `gorm:"column:prep_minutes;not null;default:0"`
	ExcludedIngredients []string   `gorm:"column:excluded_ingredients;type:jsonb;serializer:json"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
}

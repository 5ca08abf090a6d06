package models

import (
	"time"

	"github.com/google/uuid"
)

// MenuItem is catalog data read at checkout to freeze the line snapshot.
type MenuItem struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID uuid.UUID `gorm:"column:restaurant_id;type:uuid;not null"`
	Name         string    `gorm:"column:name;not null"`
	PriceCents   int       `gorm:"column:price_cents;not null"`
	PrepMinutes  int       `gorm:"column:prep_minutes;not null;default:10"`
	Available    bool      `gorm:"column:available;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

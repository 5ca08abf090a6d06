package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/platofoods/plato-backend/pkg/enums"
)

// TrackingRecord pairs 1:1 with an order. The restaurant and customer anchors
// never change; the agent coordinates and derived distance do.
type TrackingRecord struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	RestaurantLat       float64             `gorm:"column:restaurant_lat;not null"`
	RestaurantLon       float64             `gorm:"column:restaurant_lon;not null"`
	CustomerLat         float64             `gorm:"column:customer_lat;not null"`
	CustomerLon         float64             `gorm:"column:customer_lon;not null"`
	AgentLat            *float64            `gorm:"column:agent_lat"`
	AgentLon            *float64            `gorm:"column:agent_lon"`
	DistanceRemainingKm *float64            `gorm:"column:distance_remaining_km"`
	Phase               enums.TrackingPhase `gorm:"column:phase;type:text;not null;default:'at_restaurant'"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

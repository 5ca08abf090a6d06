package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a customer delivery address with resolved coordinates.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null"`
	Label      string    `gorm:"column:label"`
	Line1      string    `gorm:"column:line1;not null"`
	City       string    `gorm:"column:city;not null"`
	Lat        float64   `gorm:"column:lat;not null"`
	Lon        float64   `gorm:"column:lon;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Restaurant holds the pricing inputs and anchor coordinates an order needs
// at creation time. Owned and edited by the (external) catalog surface.
type Restaurant struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID            uuid.UUID       `gorm:"column:owner_id;type:uuid;not null"`
	Name               string          `gorm:"column:name;not null"`
	Lat                float64         `gorm:"column:lat;not null"`
	Lon                float64         `gorm:"column:lon;not null"`
	DeliveryFeeCents   int             `gorm:"column:delivery_fee_cents;not null;default:0"`
	TaxRate            decimal.Decimal `gorm:"column:tax_rate;type:numeric(5,4);not null"`
	RequiresPrepayment bool            `gorm:"column:requires_prepayment;not null;default:false"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

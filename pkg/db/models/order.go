package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/platofoods/plato-backend/pkg/enums"
)

// Order is the central aggregate: one customer checkout against one
// restaurant. Items and money fields are frozen at creation; only status,
// agent assignment, payment status and the completion estimate mutate later.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       int64               `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID        uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	RestaurantID      uuid.UUID           `gorm:"column:restaurant_id;type:uuid;not null"`
	DeliveryAgentID   *uuid.UUID          `gorm:"column:delivery_agent_id;type:uuid"`
	DeliveryAddressID uuid.UUID           `gorm:"column:delivery_address_id;type:uuid;not null"`
	Status            enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	SubtotalCents     int                 `gorm:"column:subtotal_cents;not null"`
	TaxCents          int                 `gorm:"column:tax_cents;not null"`
	DeliveryFeeCents  int                 `gorm:"column:delivery_fee_cents;not null"`
	TotalCents        int                 `gorm:"column:total_cents;not null"`
	SpecialRequest    *string             `gorm:"column:special_request"`
	EstimatedReadyAt  *time.Time          `gorm:"column:estimated_ready_at"`
	DeliveredAt       *time.Time          `gorm:"column:delivered_at"`
	CancelledAt       *time.Time          `gorm:"column:cancelled_at"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

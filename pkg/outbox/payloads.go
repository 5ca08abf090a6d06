package outbox

import (
	"time"

	"github.com/google/uuid"

	"github.com/platofoods/plato-backend/pkg/enums"
)

// OrderCreatedData accompanies order.created events.
type OrderCreatedData struct {
	OrderID          uuid.UUID  `json:"order_id"`
	OrderNumber      int64      `json:"order_number"`
	CustomerID       uuid.UUID  `json:"customer_id"`
	RestaurantID     uuid.UUID  `json:"restaurant_id"`
	TotalCents       int        `json:"total_cents"`
	EstimatedReadyAt *time.Time `json:"estimated_ready_at,omitempty"`
}

// OrderStatusChangedData accompanies order.status_changed events.
type OrderStatusChangedData struct {
	OrderID          uuid.UUID         `json:"order_id"`
	From             enums.OrderStatus `json:"from"`
	To               enums.OrderStatus `json:"to"`
	EstimatedReadyAt *time.Time        `json:"estimated_ready_at,omitempty"`
}

// OrderAssignedData accompanies order.assigned events.
type OrderAssignedData struct {
	OrderID         uuid.UUID `json:"order_id"`
	DeliveryAgentID uuid.UUID `json:"delivery_agent_id"`
}

// OrderPaymentRecordedData accompanies order.payment_recorded events.
type OrderPaymentRecordedData struct {
	OrderID       uuid.UUID           `json:"order_id"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	AmountCents   int                 `json:"amount_cents"`
	Reference     string              `json:"reference,omitempty"`
}

package orders

import (
	"github.com/google/uuid"

	"github.com/platofoods/plato-backend/pkg/enums"
)

// CreateOrderInput captures a customer checkout request. The cart itself is
// loaded server-side; the restaurant id must match the cart's restaurant.
type CreateOrderInput struct {
	CustomerID        uuid.UUID
	RestaurantID      uuid.UUID
	DeliveryAddressID uuid.UUID
	SpecialRequest    *string
}

// TransitionInput captures a status change request from any of the three
// actors.
type TransitionInput struct {
	OrderID       uuid.UUID
	RequesterID   uuid.UUID
	RequesterRole enums.ActorRole
	Target        enums.OrderStatus
}

// RecordPaymentInput is posted by the external payment collaborator.
type RecordPaymentInput struct {
	OrderID     uuid.UUID
	Status      enums.PaymentStatus
	AmountCents int
	Reference   string
}

// ListFilters narrows history listings.
type ListFilters struct {
	Status *enums.OrderStatus
}

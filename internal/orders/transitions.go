package orders

import (
	"github.com/platofoods/plato-backend/pkg/enums"
)

// transitionRule describes one legal edge of the order state machine.
type transitionRule struct {
	from enums.OrderStatus
	to   enums.OrderStatus
	// actor allowed to request this edge.
	role enums.ActorRole
	// requiresAssignment means the order must already carry a delivery agent
	// and the requester must be that agent.
	requiresAssignment bool
	// recomputeETA marks edges where the completion estimate is refreshed.
	recomputeETA bool
}

// transitionTable is the closed set of legal edges. Anything not listed is an
// invalid transition, regardless of who asks.
var transitionTable = []transitionRule{
	{from: enums.OrderStatusPending, to: enums.OrderStatusConfirmed, role: enums.ActorRoleRestaurant, recomputeETA: true},
	{from: enums.OrderStatusPending, to: enums.OrderStatusCancelled, role: enums.ActorRoleCustomer},
	{from: enums.OrderStatusConfirmed, to: enums.OrderStatusCancelled, role: enums.ActorRoleCustomer},
	{from: enums.OrderStatusConfirmed, to: enums.OrderStatusPreparing, role: enums.ActorRoleRestaurant, recomputeETA: true},
	{from: enums.OrderStatusPreparing, to: enums.OrderStatusReady, role: enums.ActorRoleRestaurant},
	{from: enums.OrderStatusPreparing, to: enums.OrderStatusPickedUp, role: enums.ActorRoleAgent, requiresAssignment: true, recomputeETA: true},
	{from: enums.OrderStatusReady, to: enums.OrderStatusPickedUp, role: enums.ActorRoleAgent, requiresAssignment: true, recomputeETA: true},
	{from: enums.OrderStatusPickedUp, to: enums.OrderStatusDelivered, role: enums.ActorRoleAgent, requiresAssignment: true},
}

// findTransition returns the rule for the edge, or nil when the edge is not
// part of the machine at all.
func findTransition(from, to enums.OrderStatus) *transitionRule {
	for i := range transitionTable {
		if transitionTable[i].from == from && transitionTable[i].to == to {
			return &transitionTable[i]
		}
	}
	return nil
}

// reachable reports whether to is a legal target from anywhere, used to
// distinguish unknown statuses from merely unreachable ones.
func reachable(to enums.OrderStatus) bool {
	for i := range transitionTable {
		if transitionTable[i].to == to {
			return true
		}
	}
	return false
}

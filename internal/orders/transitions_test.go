package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platofoods/plato-backend/pkg/enums"
)

func TestTransitionTableClosedSet(t *testing.T) {
	all := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusPreparing,
		enums.OrderStatusReady,
		enums.OrderStatusPickedUp,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	}

	legal := map[[2]enums.OrderStatus]enums.ActorRole{
		{enums.OrderStatusPending, enums.OrderStatusConfirmed}:   enums.ActorRoleRestaurant,
		{enums.OrderStatusPending, enums.OrderStatusCancelled}:   enums.ActorRoleCustomer,
		{enums.OrderStatusConfirmed, enums.OrderStatusCancelled}: enums.ActorRoleCustomer,
		{enums.OrderStatusConfirmed, enums.OrderStatusPreparing}: enums.ActorRoleRestaurant,
		{enums.OrderStatusPreparing, enums.OrderStatusReady}:     enums.ActorRoleRestaurant,
		{enums.OrderStatusPreparing, enums.OrderStatusPickedUp}:  enums.ActorRoleAgent,
		{enums.OrderStatusReady, enums.OrderStatusPickedUp}:      enums.ActorRoleAgent,
		{enums.OrderStatusPickedUp, enums.OrderStatusDelivered}:  enums.ActorRoleAgent,
	}

	for _, from := range all {
		for _, to := range all {
			rule := findTransition(from, to)
			role, want := legal[[2]enums.OrderStatus{from, to}]
			if want {
				require.NotNilf(t, rule, "expected %s -> %s to be legal", from, to)
				assert.Equal(t, role, rule.role, "%s -> %s actor", from, to)
			} else {
				assert.Nilf(t, rule, "expected %s -> %s to be illegal", from, to)
			}
		}
	}
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, from := range []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled} {
		for i := range transitionTable {
			assert.NotEqual(t, from, transitionTable[i].from)
		}
	}
}

func TestAgentEdgesRequireAssignment(t *testing.T) {
	for i := range transitionTable {
		rule := transitionTable[i]
		if rule.role == enums.ActorRoleAgent {
			assert.Truef(t, rule.requiresAssignment, "%s -> %s must require assignment", rule.from, rule.to)
		}
	}
}

func TestETARecomputeEdges(t *testing.T) {
	recompute := map[[2]enums.OrderStatus]bool{
		{enums.OrderStatusPending, enums.OrderStatusConfirmed}:   true,
		{enums.OrderStatusConfirmed, enums.OrderStatusPreparing}: true,
		{enums.OrderStatusPreparing, enums.OrderStatusPickedUp}:  true,
		{enums.OrderStatusReady, enums.OrderStatusPickedUp}:      true,
	}
	for i := range transitionTable {
		rule := transitionTable[i]
		assert.Equalf(t, recompute[[2]enums.OrderStatus{rule.from, rule.to}], rule.recomputeETA,
			"%s -> %s recompute flag", rule.from, rule.to)
	}
}

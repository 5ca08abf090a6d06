package enums

import "fmt"

// ActorRole identifies which side of an order a requester acts for.
type ActorRole string

const (
	ActorRoleCustomer   ActorRole = "customer"
	ActorRoleRestaurant ActorRole = "restaurant"
	ActorRoleAgent      ActorRole = "agent"
)

var validActorRoles = []ActorRole{
	ActorRoleCustomer,
	ActorRoleRestaurant,
	ActorRoleAgent,
}

func (r ActorRole) String() string {
	return string(r)
}

func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}

package enums

// TrackingPhase is the coarse delivery phase shown on the live map.
type TrackingPhase string

const (
	TrackingPhaseAtRestaurant TrackingPhase = "at_restaurant"
	TrackingPhaseEnRoute      TrackingPhase = "en_route"
	TrackingPhaseArrived      TrackingPhase = "arrived"
)

func (p TrackingPhase) String() string {
	return string(p)
}

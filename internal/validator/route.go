package validator

import (
	"context"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/geo"
)

// StraightLineRouteLookup implements RouteLookup with the great-circle
// distance between a trip's origin and destination. No turn-by-turn
// routing provider exists in scope for this service, so the planned route
// a trajectory is scored against is the straight line itself — scoreRoute's
// ratio check still catches trajectories that wander far past it.
type StraightLineRouteLookup struct{}

// PlannedRoute returns the origin-to-destination great-circle distance.
func (StraightLineRouteLookup) PlannedRoute(ctx context.Context, trip *domain.Trip) (Route, error) {
	d := geo.HaversineDistance(trip.Origin.Lat, trip.Origin.Lng, trip.Destination.Lat, trip.Destination.Lng)
	return Route{StraightLineDistanceM: d}, nil
}

// Package routing obtains authoritative road-network distances from a
// weighted set of external providers.
package routing

import (
	"context"

	"github.com/enrutador/dispatch-backend/internal/models"
)

// Result is a normalized provider answer.
type Result struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

// Provider builds a provider-specific request for an origin/destination
// pair and parses the response into kilometers and minutes.
type Provider interface {
	Name() string
	Route(ctx context.Context, origin, destination models.Coordinates) (Result, error)
}

// Weighted pairs a provider with its positive selection weight.
type Weighted struct {
	Provider Provider
	Weight   int
}

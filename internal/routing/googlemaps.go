package routing

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/enrutador/dispatch-backend/internal/models"
)

// GoogleMaps wraps the Google Maps Directions API as a routing provider.
type GoogleMaps struct {
	client *maps.Client
}

func NewGoogleMaps(apiKey string) (*GoogleMaps, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &GoogleMaps{client: client}, nil
}

func (p *GoogleMaps) Name() string { return "googlemaps" }

func (p *GoogleMaps) Route(ctx context.Context, origin, destination models.Coordinates) (Result, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lon),
		Destination: fmt.Sprintf("%f,%f", destination.Lat, destination.Lon),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := p.client.Directions(ctx, r)
	if err != nil {
		return Result{}, fmt.Errorf("maps api: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Result{}, errors.New("googlemaps: no route found")
	}

	leg := routes[0].Legs[0]
	return Result{
		DistanceKm:  float64(leg.Distance.Meters) / 1000,
		DurationMin: leg.Duration.Minutes(),
	}, nil
}

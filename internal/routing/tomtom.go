package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/enrutador/dispatch-backend/internal/models"
)

// TomTom calls the TomTom calculateRoute API.
type TomTom struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func (p *TomTom) Name() string { return "tomtom" }

type tomtomResponse struct {
	Routes []struct {
		Summary struct {
			LengthInMeters      float64 `json:"lengthInMeters"`
			TravelTimeInSeconds float64 `json:"travelTimeInSeconds"`
		} `json:"summary"`
	} `json:"routes"`
}

func (p *TomTom) Route(ctx context.Context, origin, destination models.Coordinates) (Result, error) {
	if p.Client == nil {
		p.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if p.BaseURL == "" {
		p.BaseURL = "https://api.tomtom.com"
	}

	endpoint := fmt.Sprintf("%s/routing/1/calculateRoute/%f,%f:%f,%f/json",
		p.BaseURL, origin.Lat, origin.Lon, destination.Lat, destination.Lon)
	params := url.Values{}
	params.Set("key", p.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("tomtom http error: %s", resp.Status)
	}

	var r tomtomResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Result{}, err
	}
	if len(r.Routes) == 0 {
		return Result{}, errors.New("tomtom: empty route")
	}

	summary := r.Routes[0].Summary
	return Result{
		DistanceKm:  summary.LengthInMeters / 1000,
		DurationMin: summary.TravelTimeInSeconds / 60,
	}, nil
}

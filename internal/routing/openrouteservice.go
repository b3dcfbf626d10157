package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/enrutador/dispatch-backend/internal/models"
)

// OpenRouteService calls the ORS directions API with the heavy-goods
// profile.
type OpenRouteService struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func (p *OpenRouteService) Name() string { return "openrouteservice" }

type orsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
	Radiuses    []int        `json:"radiuses"`
}

type orsResponse struct {
	Features []struct {
		Properties struct {
			Segments []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

func (p *OpenRouteService) Route(ctx context.Context, origin, destination models.Coordinates) (Result, error) {
	if p.Client == nil {
		p.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if p.BaseURL == "" {
		p.BaseURL = "https://api.openrouteservice.org"
	}

	// ORS wants lon/lat order.
	payload := orsRequest{
		Coordinates: [][2]float64{
			{origin.Lon, origin.Lat},
			{destination.Lon, destination.Lat},
		},
		Radiuses: []int{5000, 5000},
	}
	b, _ := json.Marshal(payload)

	endpoint := p.BaseURL + "/v2/directions/driving-hgv/geojson"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(b))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("openrouteservice http error: %s", resp.Status)
	}

	var r orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Result{}, err
	}
	if len(r.Features) == 0 || len(r.Features[0].Properties.Segments) == 0 {
		return Result{}, errors.New("openrouteservice: empty route")
	}

	seg := r.Features[0].Properties.Segments[0]
	return Result{
		DistanceKm:  seg.Distance / 1000,
		DurationMin: seg.Duration / 60,
	}, nil
}

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

// Here calls the HERE routing v8 API in truck mode.
type Here struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func (p *Here) Name() string { return "here" }

type hereResponse struct {
	Routes []struct {
		Sections []struct {
			Summary struct {
				Length   float64 `json:"length"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"sections"`
	} `json:"routes"`
}

func (p *Here) Route(ctx context.Context, origin, destination models.Coordinates) (Result, error) {
	if p.Client == nil {
		p.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if p.BaseURL == "" {
		p.BaseURL = "https://router.hereapi.com/v8/routes"
	}

	params := url.Values{}
	params.Set("transportMode", "truck")
	params.Set("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lon))
	params.Set("destination", fmt.Sprintf("%f,%f", destination.Lat, destination.Lon))
	params.Set("return", "summary")
	params.Set("apiKey", p.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("here http error: %s", resp.Status)
	}

	var r hereResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Result{}, err
	}
	if len(r.Routes) == 0 || len(r.Routes[0].Sections) == 0 {
		return Result{}, errors.New("here: empty route")
	}

	summary := r.Routes[0].Sections[0].Summary
	return Result{
		DistanceKm:  summary.Length / 1000,
		DurationMin: summary.Duration / 60,
	}, nil
}

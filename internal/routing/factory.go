package routing

import (
	"strings"

	"github.com/enrutador/dispatch-backend/internal/models"
)

// BuildProviders turns provider config rows into weighted providers.
// Disabled rows and rows without a credential are skipped; unknown names
// are skipped rather than fatal so a bad row cannot take the service down.
func BuildProviders(configs []models.ProviderConfig) ([]Weighted, error) {
	var out []Weighted
	for _, cfg := range configs {
		if !cfg.Enabled || cfg.APIKey == "" {
			continue
		}
		var provider Provider
		switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
		case "openrouteservice", "ors":
			provider = &OpenRouteService{APIKey: cfg.APIKey, BaseURL: cfg.Endpoint}
		case "here":
			provider = &Here{APIKey: cfg.APIKey, BaseURL: cfg.Endpoint}
		case "tomtom":
			provider = &TomTom{APIKey: cfg.APIKey, BaseURL: cfg.Endpoint}
		case "googlemaps", "google":
			gp, err := NewGoogleMaps(cfg.APIKey)
			if err != nil {
				return nil, err
			}
			provider = gp
		default:
			continue
		}
		weight := cfg.Weight
		if weight <= 0 {
			weight = 1
		}
		out = append(out, Weighted{Provider: provider, Weight: weight})
	}
	return out, nil
}

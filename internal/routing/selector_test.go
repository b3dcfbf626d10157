package routing

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrutador/dispatch-backend/internal/models"
)

type stubProvider struct {
	name string
	res  Result
	err  error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Route(ctx context.Context, origin, destination models.Coordinates) (Result, error) {
	return p.res, p.err
}

func TestNewSelectorRejectsEmptyAndNonPositiveWeights(t *testing.T) {
	_, err := NewSelector(nil)
	assert.ErrorIs(t, err, ErrNoProviders)

	_, err = NewSelector([]Weighted{{Provider: &stubProvider{name: "a"}, Weight: 0}})
	assert.Error(t, err)
}

func TestChooseDrawBoundary(t *testing.T) {
	a := &stubProvider{name: "a"}
	b := &stubProvider{name: "b"}
	providers := []Weighted{{Provider: a, Weight: 1}, {Provider: b, Weight: 3}}

	// Draw 0 lands on the first provider: running sum 1 >= 0.
	s, err := NewSelector(providers, WithRand(func() float64 { return 0 }))
	require.NoError(t, err)
	assert.Equal(t, "a", s.Choose().Name())

	// Draw exactly at the first cumulative weight still picks the first.
	s, err = NewSelector(providers, WithRand(func() float64 { return 0.25 }))
	require.NoError(t, err)
	assert.Equal(t, "a", s.Choose().Name())

	// Anything past it picks the second.
	s, err = NewSelector(providers, WithRand(func() float64 { return 0.2500001 }))
	require.NoError(t, err)
	assert.Equal(t, "b", s.Choose().Name())
}

func TestChooseWeightedSplit(t *testing.T) {
	a := &stubProvider{name: "a"}
	b := &stubProvider{name: "b"}
	rng := rand.New(rand.NewSource(42))
	s, err := NewSelector(
		[]Weighted{{Provider: a, Weight: 1}, {Provider: b, Weight: 3}},
		WithRand(rng.Float64),
	)
	require.NoError(t, err)

	const draws = 20000
	countA := 0
	for i := 0; i < draws; i++ {
		if s.Choose().Name() == "a" {
			countA++
		}
	}
	ratio := float64(countA) / draws
	assert.InDelta(t, 0.25, ratio, 0.02, "weight 1:3 should approximate a 25/75 split, got %.3f", ratio)
}

func TestGetDistanceSuccess(t *testing.T) {
	p := &stubProvider{name: "a", res: Result{DistanceKm: 12.5, DurationMin: 17.2}}
	s, err := NewSelector([]Weighted{{Provider: p, Weight: 1}})
	require.NoError(t, err)

	res, ok := s.GetDistance(context.Background(), models.Coordinates{Lat: 1}, models.Coordinates{Lat: 2})
	require.True(t, ok)
	assert.Equal(t, 12.5, res.DistanceKm)
	assert.Equal(t, 17.2, res.DurationMin)
}

func TestGetDistanceFailureIsNotFatal(t *testing.T) {
	p := &stubProvider{name: "a", err: errors.New("boom")}
	s, err := NewSelector([]Weighted{{Provider: p, Weight: 1}})
	require.NoError(t, err)

	res, ok := s.GetDistance(context.Background(), models.Coordinates{}, models.Coordinates{})
	assert.False(t, ok)
	assert.True(t, math.Abs(res.DistanceKm) < 1e-9)
}

func TestBuildProvidersSkipsDisabledAndUnknown(t *testing.T) {
	providers, err := BuildProviders([]models.ProviderConfig{
		{Name: "openrouteservice", APIKey: "k1", Weight: 2, Enabled: true},
		{Name: "here", APIKey: "k2", Weight: 0, Enabled: true},
		{Name: "tomtom", APIKey: "", Weight: 1, Enabled: true},
		{Name: "here", APIKey: "k3", Weight: 1, Enabled: false},
		{Name: "carrierpigeon", APIKey: "k4", Weight: 1, Enabled: true},
	})
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "openrouteservice", providers[0].Provider.Name())
	assert.Equal(t, 2, providers[0].Weight)
	// Non-positive weight is clamped to 1, not dropped.
	assert.Equal(t, "here", providers[1].Provider.Name())
	assert.Equal(t, 1, providers[1].Weight)
}

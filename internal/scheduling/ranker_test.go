package scheduling

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrutador/dispatch-backend/internal/models"
	"github.com/enrutador/dispatch-backend/internal/routing"
)

type fakeProvider struct {
	name string
	res  routing.Result
	err  error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Route(_ context.Context, _, _ models.Coordinates) (routing.Result, error) {
	return p.res, p.err
}

func rawGap(tech, prevAddr string, distance float64) models.Gap {
	return models.Gap{
		Technician:      tech,
		Date:            "02/03/2026",
		PreviousAddress: prevAddr,
		NextAddress:     prevAddr,
		DistanceKm:      distance,
	}
}

func TestRankGeometricOrderAndCap(t *testing.T) {
	snap := testSnapshot(nil, nil, nil)
	svc := newTestService(Options{})

	gaps := []models.Gap{
		rawGap("T1", "Calle Ancha 4, 45001 Toledo", 0),   // ~67 km out
		rawGap("T2", "Plaza Sol 1, 28001 Madrid", 0),     // ~0 km
		rawGap("T3", "Calle Mayor 2, 28801 Alcalá", 0),   // ~30 km
		rawGap("T4", "Rambla 10, 08001 Barcelona", 0),    // ~505 km, over the cap
		rawGap("T5", "dirección sin código postal", 0),   // unresolvable
	}

	out := svc.rankByProximity(context.Background(), snap, gaps, madrid)
	require.Len(t, out, 3)
	assert.Equal(t, "T2", out[0].Technician)
	assert.Equal(t, "T3", out[1].Technician)
	assert.Equal(t, "T1", out[2].Technician)
	// Stage one replaced the scanner's home distance with the prior-visit
	// distance.
	assert.InDelta(t, 0.0, out[0].DistanceKm, 0.5)
	assert.InDelta(t, 30.0, out[1].DistanceKm, 3.0)
	assert.InDelta(t, 67.0, out[2].DistanceKm, 5.0)
	for _, g := range out {
		assert.Nil(t, g.RoutedKm)
		assert.Nil(t, g.EtaMinutes)
	}
}

func TestRankTopGapsLimit(t *testing.T) {
	snap := testSnapshot(nil, nil, nil)
	svc := newTestService(Options{TopGaps: 2})

	gaps := []models.Gap{
		rawGap("T1", "Calle Ancha 4, 45001 Toledo", 0),
		rawGap("T2", "Plaza Sol 1, 28001 Madrid", 0),
		rawGap("T3", "Calle Mayor 2, 28801 Alcalá", 0),
	}

	out := svc.rankByProximity(context.Background(), snap, gaps, madrid)
	require.Len(t, out, 2)
	assert.Equal(t, "T2", out[0].Technician)
	assert.Equal(t, "T3", out[1].Technician)
}

func TestRankRoutedRerank(t *testing.T) {
	sel, err := routing.NewSelector([]routing.Weighted{
		{Provider: &fakeProvider{name: "fake", res: routing.Result{DistanceKm: 42.5, DurationMin: 38.4}}, Weight: 1},
	})
	require.NoError(t, err)

	svc := NewService(sel, zerolog.Nop(), Options{})
	snap := testSnapshot(nil, nil, nil)

	gaps := []models.Gap{rawGap("T1", "Plaza Sol 1, 28001 Madrid", 0)}
	out := svc.rankByProximity(context.Background(), snap, gaps, madrid)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].RoutedKm)
	require.NotNil(t, out[0].EtaMinutes)
	assert.InDelta(t, 42.5, *out[0].RoutedKm, 0.001)
	assert.Equal(t, 38, *out[0].EtaMinutes)
}

func TestRankAllProvidersFailKeepsGeometricOrder(t *testing.T) {
	sel, err := routing.NewSelector([]routing.Weighted{
		{Provider: &fakeProvider{name: "down", err: errors.New("rate limited")}, Weight: 1},
	})
	require.NoError(t, err)

	svc := NewService(sel, zerolog.Nop(), Options{})
	snap := testSnapshot(nil, nil, nil)

	gaps := []models.Gap{
		rawGap("T1", "Calle Ancha 4, 45001 Toledo", 0),
		rawGap("T2", "Plaza Sol 1, 28001 Madrid", 0),
		rawGap("T3", "Calle Mayor 2, 28801 Alcalá", 0),
	}

	out := svc.rankByProximity(context.Background(), snap, gaps, madrid)
	require.Len(t, out, 3)
	assert.Equal(t, "T2", out[0].Technician)
	assert.Equal(t, "T3", out[1].Technician)
	assert.Equal(t, "T1", out[2].Technician)
	for _, g := range out {
		assert.Nil(t, g.RoutedKm)
	}
}

func TestRankRoutedDistanceReorders(t *testing.T) {
	// The provider reports a long detour for every pair; routed answers
	// replace the geometric ordering key but every gap gets the same one
	// here, so the stable sort keeps the pre-filter order. The interesting
	// assertion is that ordering uses RoutedKm once present.
	sel, err := routing.NewSelector([]routing.Weighted{
		{Provider: &fakeProvider{name: "fake", res: routing.Result{DistanceKm: 10, DurationMin: 12}}, Weight: 1},
	})
	require.NoError(t, err)

	svc := NewService(sel, zerolog.Nop(), Options{})
	snap := testSnapshot(nil, nil, nil)

	gaps := []models.Gap{
		rawGap("T1", "Calle Ancha 4, 45001 Toledo", 0),
		rawGap("T2", "Plaza Sol 1, 28001 Madrid", 0),
	}

	out := svc.rankByProximity(context.Background(), snap, gaps, madrid)
	require.Len(t, out, 2)
	for _, g := range out {
		require.NotNil(t, g.RoutedKm)
		assert.InDelta(t, 10.0, *g.RoutedKm, 0.001)
	}
	assert.Equal(t, "T2", out[0].Technician)
	assert.Equal(t, "T1", out[1].Technician)
}

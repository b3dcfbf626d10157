package scheduling

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/enrutador/dispatch-backend/internal/geo"
	"github.com/enrutador/dispatch-backend/internal/models"
)

// rankByProximity runs the two-stage filter: a cheap geometric pre-filter
// from the prior visit's location bounds the candidate set, then the
// surviving top-K get one authoritative routed-distance call each. A failed
// or timed-out call leaves that gap on its geometric distance.
func (s *Service) rankByProximity(ctx context.Context, snap *Snapshot, gaps []models.Gap, location models.Coordinates) []models.Gap {
	type candidate struct {
		gap   models.Gap
		prior models.Coordinates
	}

	var survivors []candidate
	for _, gap := range gaps {
		prior, err := snap.Geo.ResolveCoordinates(gap.PreviousAddress)
		if err != nil {
			s.logger.Debug().
				Str("technician", gap.Technician).
				Str("address", gap.PreviousAddress).
				Msg("prior visit unresolved, gap dropped from ranking")
			continue
		}
		d := geo.DistanceKm(prior, location)
		if d > s.opts.MaxGapDistanceKm {
			continue
		}
		gap.DistanceKm = d
		survivors = append(survivors, candidate{gap: gap, prior: prior})
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].gap.DistanceKm < survivors[j].gap.DistanceKm
	})
	if len(survivors) > s.opts.TopGaps {
		survivors = survivors[:s.opts.TopGaps]
	}

	if s.selector != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.TopGaps)
		for i := range survivors {
			i := i
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				res, ok := s.selector.GetDistance(gctx, survivors[i].prior, location)
				if !ok {
					return nil
				}
				routed := res.DistanceKm
				eta := int(math.Round(res.DurationMin))
				survivors[i].gap.RoutedKm = &routed
				survivors[i].gap.EtaMinutes = &eta
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]models.Gap, len(survivors))
	for i, c := range survivors {
		out[i] = c.gap
	}
	sort.SliceStable(out, func(i, j int) bool {
		return effectiveDistance(out[i]) < effectiveDistance(out[j])
	})
	return out
}

func effectiveDistance(g models.Gap) float64 {
	if g.RoutedKm != nil {
		return *g.RoutedKm
	}
	return g.DistanceKm
}

package scheduling

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/enrutador/dispatch-backend/internal/geo"
	"github.com/enrutador/dispatch-backend/internal/metrics"
	"github.com/enrutador/dispatch-backend/internal/models"
)

// scanGaps walks every technician's task list in parallel and collects raw
// gap candidates, sorted ascending by the scanner's home-based distance.
func (s *Service) scanGaps(ctx context.Context, snap *Snapshot, req TaskRequest) []models.Gap {
	start := time.Now()
	defer func() {
		metrics.ScanDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	byTech := make(map[string][]models.Visit)
	for _, v := range snap.Visits {
		if v.Kind != models.KindTask {
			continue
		}
		if strings.HasPrefix(v.TechnicianLabel, pendingPrefix) {
			continue
		}
		byTech[v.TechnicianLabel] = append(byTech[v.TechnicianLabel], v)
	}

	var (
		mu  sync.Mutex
		out []models.Gap
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.ScanWorkers)
	for label, visits := range byTech {
		label, visits := label, visits
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			gaps := s.scanTechnician(snap, label, visits, req)
			if len(gaps) > 0 {
				mu.Lock()
				out = append(out, gaps...)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	metrics.GapsFoundTotal.Add(float64(len(out)))
	// Workers finish in arbitrary order; tie-break so the result is stable
	// for identical inputs.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		if out[i].Technician != out[j].Technician {
			return out[i].Technician < out[j].Technician
		}
		return out[i].PreviousEnd.Before(out[j].PreviousEnd)
	})
	return out
}

// scanTechnician applies the full feasibility model to one technician's
// sorted task list: same-day adjacent gaps, working-hour window, lunch
// adjustment, travel-time estimates and the end-of-day slot.
func (s *Service) scanTechnician(snap *Snapshot, label string, visits []models.Visit, req TaskRequest) []models.Gap {
	home, ok := s.technicianHome(snap, label, visits)
	if !ok {
		metrics.TechniciansSkippedTotal.WithLabelValues("unresolvable_home").Inc()
		s.logger.Warn().Str("technician", label).Msg("no resolvable home coordinates, skipping")
		return nil
	}

	workStart, workEnd := workWindow(snap.Overrides, label)

	sort.Slice(visits, func(i, j int) bool {
		return visits[i].Start.Before(visits[j].Start)
	})

	durationWithBuffer := req.DurationHours + setupBufferHours
	var gaps []models.Gap

	for i := 0; i+1 < len(visits); i++ {
		prev, next := visits[i], visits[i+1]

		gapHours := next.Start.Sub(prev.End).Hours()
		if gapHours <= 0 {
			continue
		}
		if !sameDate(prev.End, next.Start) {
			continue
		}

		prevEndMin := models.MinuteOfDay(prev.End)
		nextStartMin := models.MinuteOfDay(next.Start)
		if prevEndMin < workStart.Minutes() || prevEndMin > workEnd.Minutes() {
			continue
		}
		if nextStartMin < workStart.Minutes() || nextStartMin > workEnd.Minutes() {
			continue
		}

		if prevEndMin < lunchEndMinute && nextStartMin > lunchStartMinute {
			gapHours -= lunchHours
		}
		// Too short even before pricing in travel.
		if gapHours < durationWithBuffer {
			continue
		}

		travelToKm := geo.DistanceKm(home, req.Location)
		travelToHours := travelToKm / averageSpeedKmh

		nextLoc, err := snap.Geo.ResolveCoordinates(next.Address)
		if err != nil {
			continue
		}
		travelFromHours := geo.DistanceKm(req.Location, nextLoc) / averageSpeedKmh

		required := travelToHours + req.DurationHours + travelFromHours
		if gapHours < required {
			continue
		}

		gaps = append(gaps, models.Gap{
			Technician:      label,
			Date:            prev.End.Format("02/01/2006"),
			PreviousAddress: prev.Address,
			NextAddress:     next.Address,
			PreviousEnd:     prev.End,
			NextStart:       next.Start,
			ServiceOrder:    prev.ServiceOrder,
			DistanceKm:      travelToKm,
		})
	}

	if len(visits) > 0 {
		last := visits[len(visits)-1]
		endOfDay := combine(last.End, workEnd)
		if !last.End.Add(hoursToDuration(durationWithBuffer)).After(endOfDay) {
			gaps = append(gaps, models.Gap{
				Technician:      label,
				Date:            last.End.Format("02/01/2006"),
				PreviousAddress: last.Address,
				NextAddress:     "Home",
				PreviousEnd:     last.End,
				NextStart:       endOfDay,
				EndOfDay:        true,
				DistanceKm:      0,
			})
		}
	}

	return gaps
}

// technicianHome resolves the technician's home coordinates from the
// roster postal code, falling back to the last visit's address.
func (s *Service) technicianHome(snap *Snapshot, label string, visits []models.Visit) (models.Coordinates, bool) {
	var postal string
	for _, tech := range snap.Technicians {
		if strings.EqualFold(tech.Name, label) {
			postal = tech.PostalCode
			break
		}
	}
	if postal == "" && len(visits) > 0 {
		if token, ok := geo.ExtractPostalCode(visits[len(visits)-1].Address); ok {
			postal = token
		}
	}
	if postal == "" {
		return models.Coordinates{}, false
	}
	home, err := snap.Geo.ResolveCoordinates(postal)
	if err != nil {
		return models.Coordinates{}, false
	}
	return home, true
}

// workWindow returns the first override whose name contains the label,
// else the 09:00-18:00 default.
func workWindow(overrides []models.ScheduleOverride, label string) (models.DayTime, models.DayTime) {
	lowered := strings.ToLower(label)
	for _, ov := range overrides {
		if strings.Contains(strings.ToLower(ov.Name), lowered) {
			return ov.Start, ov.End
		}
	}
	return defaultWorkStart, defaultWorkEnd
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func combine(day time.Time, at models.DayTime) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), at.Minutes()/60, at.Minutes()%60, 0, 0, day.Location())
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

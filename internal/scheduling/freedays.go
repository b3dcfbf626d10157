package scheduling

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/enrutador/dispatch-backend/internal/geo"
	"github.com/enrutador/dispatch-backend/internal/holiday"
	"github.com/enrutador/dispatch-backend/internal/models"
	"github.com/enrutador/dispatch-backend/internal/utils"
)

const topFreeDayOptions = 5

// resolveFreeDays builds each technician's occupied-date set from events
// and holidays, walks the horizon for free weekdays and ranks the
// qualifying technicians by home distance to the query location.
func (s *Service) resolveFreeDays(ctx context.Context, snap *Snapshot, location models.Coordinates) ([]models.FreeDayOption, error) {
	var out []models.FreeDayOption
	for _, tech := range snap.Technicians {
		if ctx.Err() != nil {
			break
		}
		if tech.PostalCode == "" {
			continue
		}
		home, err := snap.Geo.ResolveCoordinates(tech.PostalCode)
		if err != nil {
			s.logger.Warn().Str("technician", tech.Name).Msg("home postal code unresolved, excluded from free-day search")
			continue
		}
		dates := s.freeDates(snap, tech)
		if len(dates) == 0 {
			continue
		}
		out = append(out, models.FreeDayOption{
			Technician: tech.Name,
			FreeDates:  dates,
			DistanceKm: geo.DistanceKm(location, home),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	if len(out) > topFreeDayOptions {
		out = out[:topFreeDayOptions]
	}
	return out, ctx.Err()
}

// freeDates walks the horizon starting tomorrow and collects the first N
// weekdays not occupied by an event of any kind or a holiday.
func (s *Service) freeDates(snap *Snapshot, tech models.Technician) []time.Time {
	var occupied map[string]struct{}
	if snap.Holidays != nil {
		occupied = snap.Holidays.OccupiedDates(tech.Zone)
	} else {
		occupied = make(map[string]struct{})
	}

	for _, v := range snap.Visits {
		if s.opts.IgnorePending && strings.HasPrefix(v.TechnicianLabel, pendingPrefix) {
			continue
		}
		// Any event whose label mentions the technician occupies the date,
		// regardless of kind.
		if !utils.ContainsFold(v.TechnicianLabel, tech.Name) {
			continue
		}
		occupied[holiday.DateKey(v.Start)] = struct{}{}
	}

	now := s.now()
	base := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)

	var free []time.Time
	for i := 0; i < s.opts.HorizonDays; i++ {
		day := base.AddDate(0, 0, i)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if _, busy := occupied[holiday.DateKey(day)]; busy {
			continue
		}
		free = append(free, day)
		if len(free) >= s.opts.FreeDaysWanted {
			break
		}
	}
	return free
}

// Package scheduling derives feasible idle intervals from technician
// itineraries, ranks them by proximity to a requested location and finds
// fully-free upcoming days.
package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/enrutador/dispatch-backend/internal/models"
	"github.com/enrutador/dispatch-backend/internal/routing"
)

// ErrInvalidRequest is the only error surfaced to callers as a hard
// failure; everything else degrades locally.
var ErrInvalidRequest = errors.New("invalid request")

const (
	// Visits labelled with this prefix are recurring exceptions, not real
	// technicians.
	pendingPrefix = "Pendiente RECUR"

	lunchStartMinute = 13*60 + 30
	lunchEndMinute   = 15*60 + 30
	lunchHours       = 1.0

	// Fixed allowance for getting set up and on the road.
	setupBufferHours = 1.0

	// Constant-speed approximation used before a routed answer exists.
	averageSpeedKmh = 60.0

	defaultWorkStart = models.DayTime(9 * 60)
	defaultWorkEnd   = models.DayTime(18 * 60)
)

// Options carries the tunables; zero values fall back to the defaults the
// desktop tool shipped with.
type Options struct {
	ScanWorkers      int
	MaxGapDistanceKm float64
	TopGaps          int
	HorizonDays      int
	FreeDaysWanted   int
	// IgnorePending drops "Pendiente RECUR" events from free-day occupancy.
	// By default they block the date like any other event.
	IgnorePending bool
}

func (o Options) withDefaults() Options {
	if o.ScanWorkers <= 0 {
		o.ScanWorkers = 8
	}
	if o.MaxGapDistanceKm <= 0 {
		o.MaxGapDistanceKm = 200
	}
	if o.TopGaps <= 0 {
		o.TopGaps = 5
	}
	if o.HorizonDays <= 0 {
		o.HorizonDays = 30
	}
	if o.FreeDaysWanted <= 0 {
		o.FreeDaysWanted = 5
	}
	return o
}

// TaskRequest is a validated new-task request with a resolved location.
type TaskRequest struct {
	Location      models.Coordinates
	DurationHours float64
}

// Service runs the scan/rank/free-day pipeline. A nil selector disables
// the routed re-rank; results then keep geometric ordering.
type Service struct {
	selector *routing.Selector
	logger   zerolog.Logger
	opts     Options
	now      func() time.Time
}

func NewService(selector *routing.Selector, logger zerolog.Logger, opts Options) *Service {
	return &Service{
		selector: selector,
		logger:   logger,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// FindGaps scans every technician's itinerary for feasible gaps and returns
// the top candidates ordered by proximity. On cancellation it returns
// whatever accumulated together with the context error.
func (s *Service) FindGaps(ctx context.Context, snap *Snapshot, req TaskRequest) ([]models.Gap, error) {
	if req.DurationHours <= 0 {
		return nil, ErrInvalidRequest
	}

	raw := s.scanGaps(ctx, snap, req)
	ranked := s.rankByProximity(ctx, snap, raw, req.Location)
	return ranked, ctx.Err()
}

// FindFreeDays returns up to five technicians with upcoming free weekdays,
// closest first.
func (s *Service) FindFreeDays(ctx context.Context, snap *Snapshot, location models.Coordinates) ([]models.FreeDayOption, error) {
	return s.resolveFreeDays(ctx, snap, location)
}

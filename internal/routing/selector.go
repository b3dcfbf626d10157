package routing

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/enrutador/dispatch-backend/internal/metrics"
	"github.com/enrutador/dispatch-backend/internal/models"
)

var ErrNoProviders = errors.New("no routing providers configured")

// Selector holds an immutable weighted provider list and picks one provider
// per distance request. It makes exactly one provider attempt per call and
// degrades to "unavailable" on any failure so callers can fall back to
// geometric distance.
type Selector struct {
	providers []Weighted
	total     float64
	randFloat func() float64
	cache     *Cache
	timeout   time.Duration
	logger    zerolog.Logger
}

type Option func(*Selector)

// WithRand injects the random source for the weighted draw; f must return
// values in [0, 1).
func WithRand(f func() float64) Option {
	return func(s *Selector) { s.randFloat = f }
}

func WithCache(c *Cache) Option {
	return func(s *Selector) { s.cache = c }
}

func WithTimeout(d time.Duration) Option {
	return func(s *Selector) { s.timeout = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Selector) { s.logger = l }
}

func NewSelector(providers []Weighted, opts ...Option) (*Selector, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	s := &Selector{
		providers: providers,
		randFloat: rand.Float64,
		timeout:   10 * time.Second,
		logger:    zerolog.Nop(),
	}
	for _, w := range providers {
		if w.Weight <= 0 {
			return nil, errors.New("provider weight must be positive")
		}
		s.total += float64(w.Weight)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Choose draws uniformly over [0, totalWeight) and returns the first
// provider whose running weight sum reaches the draw. It never fails: a
// loop that somehow exits without a match yields the first provider.
func (s *Selector) Choose() Provider {
	draw := s.randFloat() * s.total
	cumulative := 0.0
	for _, w := range s.providers {
		cumulative += float64(w.Weight)
		if cumulative >= draw {
			return w.Provider
		}
	}
	return s.providers[0].Provider
}

// GetDistance returns the routed distance and duration for the pair, or
// ok=false when no authoritative answer is available. It never retries
// across providers within one call.
func (s *Selector) GetDistance(ctx context.Context, origin, destination models.Coordinates) (Result, bool) {
	if s.cache != nil {
		if res, ok := s.cache.Get(ctx, origin, destination); ok {
			metrics.CacheHitsTotal.WithLabelValues("hit").Inc()
			return res, true
		}
		metrics.CacheHitsTotal.WithLabelValues("miss").Inc()
	}

	provider := s.Choose()
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	res, err := provider.Route(callCtx, origin, destination)
	metrics.ProviderDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderCallsTotal.WithLabelValues(provider.Name(), "error").Inc()
		s.logger.Warn().
			Err(err).
			Str("provider", provider.Name()).
			Float64("origin_lat", origin.Lat).
			Float64("origin_lon", origin.Lon).
			Msg("routing provider failed")
		return Result{}, false
	}
	metrics.ProviderCallsTotal.WithLabelValues(provider.Name(), "ok").Inc()

	if s.cache != nil {
		s.cache.Put(ctx, origin, destination, res)
	}
	return res, true
}

// Package holiday holds the national and per-region holiday reference data
// used to mark dates as occupied.
package holiday

import (
	"strings"
	"time"

	"github.com/enrutador/dispatch-backend/internal/models"
)

const dateLayout = "2006-01-02"

// DateKey collapses a timestamp to its calendar date.
func DateKey(t time.Time) string {
	return t.Format(dateLayout)
}

// Calendar is static reference data: loaded once, read-only afterwards.
type Calendar struct {
	national map[string]struct{}
	regional map[string]map[string]struct{}
	aliases  map[string]string
}

func NewCalendar() *Calendar {
	return &Calendar{
		national: make(map[string]struct{}),
		regional: make(map[string]map[string]struct{}),
		aliases:  make(map[string]string),
	}
}

// FromRows builds a calendar from holiday rows; an empty region is national.
func FromRows(rows []models.HolidayRow) *Calendar {
	c := NewCalendar()
	for _, row := range rows {
		if strings.TrimSpace(row.Region) == "" {
			c.AddNational(row.Day)
		} else {
			c.AddRegional(row.Region, row.Day)
		}
	}
	return c
}

func (c *Calendar) AddNational(day time.Time) {
	c.national[DateKey(day)] = struct{}{}
}

func (c *Calendar) AddRegional(region string, day time.Time) {
	key := normalizeRegion(region)
	if c.regional[key] == nil {
		c.regional[key] = make(map[string]struct{})
	}
	c.regional[key][DateKey(day)] = struct{}{}
}

// SetZoneAlias maps a roster zone (usually a city) to its holiday region.
func (c *Calendar) SetZoneAlias(zone, region string) {
	c.aliases[normalizeRegion(zone)] = normalizeRegion(region)
}

// RegionFor resolves a technician zone to a holiday region, via the alias
// table first and then by direct name match.
func (c *Calendar) RegionFor(zone string) (string, bool) {
	key := normalizeRegion(zone)
	if key == "" {
		return "", false
	}
	if region, ok := c.aliases[key]; ok {
		return region, true
	}
	if _, ok := c.regional[key]; ok {
		return key, true
	}
	return "", false
}

// OccupiedDates returns the union of national holidays and the zone's
// regional holidays, keyed by DateKey. The map is a copy.
func (c *Calendar) OccupiedDates(zone string) map[string]struct{} {
	out := make(map[string]struct{}, len(c.national))
	for d := range c.national {
		out[d] = struct{}{}
	}
	if region, ok := c.RegionFor(zone); ok {
		for d := range c.regional[region] {
			out[d] = struct{}{}
		}
	}
	return out
}

func normalizeRegion(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SpanishZoneAliases is the default city-to-community mapping the roster
// zones use.
func SpanishZoneAliases() map[string]string {
	return map[string]string{
		"madrid":    "comunidad de madrid",
		"barcelona": "cataluña",
		"valencia":  "comunidad valenciana",
		"sevilla":   "andalucía",
		"malaga":    "andalucía",
		"bilbao":    "país vasco",
		"zaragoza":  "aragón",
		"a coruña":  "galicia",
		"vigo":      "galicia",
		"murcia":    "región de murcia",
	}
}

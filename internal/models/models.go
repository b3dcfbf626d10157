package models

import (
	"fmt"
	"time"
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DayTime is a time of day expressed as minutes since midnight.
type DayTime int

// ParseDayTime accepts "HH:MM" or "HH:MM:SS" (the overrides file carries both).
func ParseDayTime(s string) (DayTime, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("invalid day time %q", s)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid day time %q", s)
	}
	return DayTime(h*60 + m), nil
}

func (d DayTime) Minutes() int { return int(d) }

func (d DayTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(d)/60, int(d)%60)
}

// MinuteOfDay projects a timestamp onto its minute-of-day for window checks.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

type Technician struct {
	Name       string `json:"name"`
	PostalCode string `json:"postal_code"`
	Zone       string `json:"zone"`
}

type VisitKind string

const (
	KindTask           VisitKind = "task"
	KindUnavailability VisitKind = "unavailability"
)

// Visit is one itinerary event. End is Start plus the declared duration.
type Visit struct {
	TechnicianLabel string    `json:"technician"`
	Kind            VisitKind `json:"kind"`
	Address         string    `json:"address"`
	ServiceOrder    string    `json:"service_order,omitempty"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
}

// ScheduleOverride replaces the default 09:00-18:00 window for technicians
// whose label is contained in Name (case-insensitive).
type ScheduleOverride struct {
	Name  string  `json:"name"`
	Start DayTime `json:"start"`
	End   DayTime `json:"end"`
}

// PostalCode rows may carry null coordinates; resolution treats those as
// unusable rather than as (0, 0).
type PostalCode struct {
	Code string   `json:"code"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
}

// HolidayRow is a single holiday date. An empty Region means national.
type HolidayRow struct {
	Region string    `json:"region"`
	Day    time.Time `json:"day"`
}

// ProviderConfig is one routing-provider row: name, credential, endpoint
// and its weight in the selection draw.
type ProviderConfig struct {
	Name     string `json:"name"`
	APIKey   string `json:"-"`
	Endpoint string `json:"endpoint,omitempty"`
	Weight   int    `json:"weight"`
	Enabled  bool   `json:"enabled"`
}

// Gap is a feasible idle interval in a technician's day.
//
// DistanceKm starts as the technician-home-to-request estimate recorded by
// the scanner and is overwritten with the prior-visit-to-request geometric
// distance once the gap survives the ranker's pre-filter. RoutedKm and
// EtaMinutes are set only for gaps that got an authoritative routed answer.
type Gap struct {
	Technician      string    `json:"technician"`
	Date            string    `json:"date"`
	PreviousAddress string    `json:"previous_address"`
	NextAddress     string    `json:"next_address"`
	PreviousEnd     time.Time `json:"previous_end"`
	NextStart       time.Time `json:"next_start"`
	EndOfDay        bool      `json:"end_of_day"`
	ServiceOrder    string    `json:"service_order,omitempty"`
	DistanceKm      float64   `json:"distance_km"`
	RoutedKm        *float64  `json:"routed_km,omitempty"`
	EtaMinutes      *int      `json:"eta_minutes,omitempty"`
}

// FreeDayOption is one technician with upcoming fully-free weekdays,
// ranked by distance from their home to the query location.
type FreeDayOption struct {
	Technician string      `json:"technician"`
	FreeDates  []time.Time `json:"free_dates"`
	DistanceKm float64     `json:"distance_km"`
}

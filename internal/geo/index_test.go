package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/enrutador/dispatch-backend/internal/models"
)

func f64(v float64) *float64 { return &v }

func testIndex() *Index {
	return NewIndex([]models.PostalCode{
		{Code: "28001", Lat: f64(40.4168), Lon: f64(-3.7038)},
		{Code: "8001", Lat: f64(41.3874), Lon: f64(2.1686)},
		{Code: "46001", Lat: nil, Lon: nil},
	})
}

func TestExtractPostalCode(t *testing.T) {
	cases := map[string]struct {
		address string
		want    string
		ok      bool
	}{
		"bare code":        {"28001", "28001", true},
		"embedded":         {"Calle Mayor 3, 28001 Madrid", "28001", true},
		"four digits":      {"Barcelona, 8001", "8001", true},
		"first token wins": {"08001 Barcelona, 28001 Madrid", "08001", true},
		"long run ignored": {"ref 1234567", "", false},
		"no token":         {"Plaza Mayor, Madrid", "", false},
	}
	for name, tc := range cases {
		got, ok := ExtractPostalCode(tc.address)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%s: got (%q, %v), want (%q, %v)", name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFormatPostalCode(t *testing.T) {
	if got, ok := FormatPostalCode("8001"); !ok || got != "08001" {
		t.Fatalf("expected zero-padded 08001, got %q ok=%v", got, ok)
	}
	if _, ok := FormatPostalCode("28A01"); ok {
		t.Fatalf("expected non-numeric code to be rejected")
	}
	if _, ok := FormatPostalCode("  "); ok {
		t.Fatalf("expected blank code to be rejected")
	}
}

func TestResolveCoordinates(t *testing.T) {
	ix := testIndex()

	c, err := ix.ResolveCoordinates("Calle Mayor 3, 28001 Madrid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Lat != 40.4168 || c.Lon != -3.7038 {
		t.Fatalf("unexpected coordinates: %+v", c)
	}

	// Four-digit token must resolve via zero-padding.
	if _, err := ix.ResolveCoordinates("Barcelona 8001"); err != nil {
		t.Fatalf("expected padded lookup to succeed, got %v", err)
	}

	if _, err := ix.ResolveCoordinates("no code here"); !errors.Is(err, ErrAddressUnresolved) {
		t.Fatalf("expected ErrAddressUnresolved, got %v", err)
	}
	if _, err := ix.ResolveCoordinates("99999 nowhere"); !errors.Is(err, ErrAddressUnresolved) {
		t.Fatalf("expected ErrAddressUnresolved for unknown code, got %v", err)
	}
	if _, err := ix.ResolveCoordinates("46001 Valencia"); !errors.Is(err, ErrCoordinatesMissing) {
		t.Fatalf("expected ErrCoordinatesMissing for null row, got %v", err)
	}
}

func TestDistanceKm(t *testing.T) {
	madrid := models.Coordinates{Lat: 40.4168, Lon: -3.7038}
	barcelona := models.Coordinates{Lat: 41.3874, Lon: 2.1686}

	d := DistanceKm(madrid, barcelona)
	if math.Abs(d-505) > 10 {
		t.Fatalf("Madrid-Barcelona should be ~505 km, got %.1f", d)
	}
	if DistanceKm(madrid, madrid) != 0 {
		t.Fatalf("distance to self should be 0")
	}
}

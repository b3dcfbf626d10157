package geo

import (
	"errors"
	"regexp"
	"strings"

	"github.com/enrutador/dispatch-backend/internal/models"
	"github.com/enrutador/dispatch-backend/internal/utils"
)

var (
	// ErrAddressUnresolved means no postal-code token was found, or the
	// token is not in the table.
	ErrAddressUnresolved = errors.New("address unresolved")
	// ErrCoordinatesMissing means the table row exists but has null
	// coordinates.
	ErrCoordinatesMissing = errors.New("coordinates missing")
)

// First 4-5 digit token wins. Longer digit runs never match.
var postalTokenRe = regexp.MustCompile(`\b\d{4,5}\b`)

// ExtractPostalCode pulls the first 4-5 digit token out of a free-text
// address.
func ExtractPostalCode(address string) (string, bool) {
	m := postalTokenRe.FindString(address)
	return m, m != ""
}

// FormatPostalCode zero-pads a numeric code to five digits. Non-numeric
// input is rejected.
func FormatPostalCode(cp string) (string, bool) {
	cp = strings.TrimSpace(cp)
	if cp == "" {
		return "", false
	}
	for _, r := range cp {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	for len(cp) < 5 {
		cp = "0" + cp
	}
	return cp, true
}

// Index maps five-digit postal codes to coordinates.
type Index struct {
	coords map[string]models.Coordinates
	known  map[string]bool
}

func NewIndex(rows []models.PostalCode) *Index {
	ix := &Index{
		coords: make(map[string]models.Coordinates, len(rows)),
		known:  make(map[string]bool, len(rows)),
	}
	for _, row := range rows {
		code, ok := FormatPostalCode(row.Code)
		if !ok {
			continue
		}
		ix.known[code] = true
		if row.Lat != nil && row.Lon != nil {
			ix.coords[code] = models.Coordinates{Lat: *row.Lat, Lon: *row.Lon}
		}
	}
	return ix
}

// Contains reports whether the formatted code has a table row at all,
// independent of whether that row has usable coordinates.
func (ix *Index) Contains(code string) bool {
	formatted, ok := FormatPostalCode(code)
	if !ok {
		return false
	}
	return ix.known[formatted]
}

// ResolveCoordinates extracts a postal code from the address and looks it
// up. Callers must treat an error as "cannot evaluate", never as (0, 0).
func (ix *Index) ResolveCoordinates(address string) (models.Coordinates, error) {
	if strings.TrimSpace(address) == "" {
		return models.Coordinates{}, ErrAddressUnresolved
	}
	token, ok := ExtractPostalCode(address)
	if !ok {
		return models.Coordinates{}, ErrAddressUnresolved
	}
	code, ok := FormatPostalCode(token)
	if !ok {
		return models.Coordinates{}, ErrAddressUnresolved
	}
	if c, ok := ix.coords[code]; ok {
		return c, nil
	}
	if ix.known[code] {
		return models.Coordinates{}, ErrCoordinatesMissing
	}
	return models.Coordinates{}, ErrAddressUnresolved
}

// DistanceKm is the great-circle distance between two resolved coordinates.
func DistanceKm(a, b models.Coordinates) float64 {
	return utils.HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

package handlers

import (
	"encoding/csv"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/enrutador/dispatch-backend/internal/models"
	"github.com/enrutador/dispatch-backend/internal/utils"
)

type ImportSummary struct {
	Technicians struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"technicians"`
	Visits struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"visits"`
	PostalCodes struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"postal_codes"`
	Overrides struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"overrides"`
	Holidays struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"holidays"`
	Errors []string `json:"errors"`
}

// @Summary Import CSV data
// @Description Upload technicians, visits and postal_codes CSV files; overrides and holidays are optional
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param technicians formData file true "technicians.csv"
// @Param visits formData file true "visits.csv"
// @Param postal_codes formData file true "postal_codes.csv"
// @Param overrides formData file false "overrides.csv"
// @Param holidays formData file false "holidays.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	techsFile, err := c.FormFile("technicians")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "technicians file required", nil)
		return
	}
	visitsFile, err := c.FormFile("visits")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "visits file required", nil)
		return
	}
	codesFile, err := c.FormFile("postal_codes")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "postal_codes file required", nil)
		return
	}
	overridesFile, _ := c.FormFile("overrides")
	holidaysFile, _ := c.FormFile("holidays")

	if !validateExt(techsFile.Filename) || !validateExt(visitsFile.Filename) || !validateExt(codesFile.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "all files must be .csv", nil)
		return
	}

	summary := ImportSummary{Errors: []string{}}

	techs, errs := parseTechniciansCSV(techsFile)
	summary.Technicians.Parsed = len(techs)
	summary.Technicians.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	visits, errs := parseVisitsCSV(visitsFile)
	summary.Visits.Parsed = len(visits)
	summary.Visits.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	codes, errs := parsePostalCodesCSV(codesFile)
	summary.PostalCodes.Parsed = len(codes)
	summary.PostalCodes.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	var overrides []models.ScheduleOverride
	if overridesFile != nil {
		overrides, errs = parseOverridesCSV(overridesFile)
		summary.Overrides.Parsed = len(overrides)
		summary.Overrides.Errors = len(errs)
		summary.Errors = append(summary.Errors, errs...)
	}
	var holidays []models.HolidayRow
	if holidaysFile != nil {
		holidays, errs = parseHolidaysCSV(holidaysFile)
		summary.Holidays.Parsed = len(holidays)
		summary.Holidays.Errors = len(errs)
		summary.Errors = append(summary.Errors, errs...)
	}

	if len(summary.Errors) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", summary.Errors)
		return
	}

	ctx := c.Request.Context()

	inserted, err := h.Store.ReplaceTechnicians(ctx, techs)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert technicians", err.Error())
		return
	}
	summary.Technicians.Inserted = int(inserted)

	inserted, err = h.Store.ReplaceVisits(ctx, visits)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert visits", err.Error())
		return
	}
	summary.Visits.Inserted = int(inserted)

	inserted, err = h.Store.ReplacePostalCodes(ctx, codes)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert postal codes", err.Error())
		return
	}
	summary.PostalCodes.Inserted = int(inserted)

	if overridesFile != nil {
		inserted, err = h.Store.ReplaceOverrides(ctx, overrides)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert overrides", err.Error())
			return
		}
		summary.Overrides.Inserted = int(inserted)
	}
	if holidaysFile != nil {
		inserted, err = h.Store.ReplaceHolidays(ctx, holidays)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert holidays", err.Error())
			return
		}
		summary.Holidays.Inserted = int(inserted)
	}

	if _, err := h.Snapshots.Force(ctx); err != nil {
		h.Logger.Warn().Err(err).Msg("snapshot refresh after import failed")
	}

	c.JSON(http.StatusOK, summary)
}

func parseTechniciansCSV(file *multipart.FileHeader) ([]models.Technician, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errors []string
	var out []models.Technician

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errors = append(errors, err.Error())
			continue
		}

		name := getFieldAny(rec, index, "name", "nombre", "tecnico", "técnico")
		postal := getFieldAny(rec, index, "postal_code", "codigo postal", "código postal", "cp")
		zone := getFieldAny(rec, index, "zone", "zona", "provincia")

		if name == "" {
			errors = append(errors, "technician name required")
			continue
		}
		out = append(out, models.Technician{
			Name:       utils.CleanLabel(name),
			PostalCode: postal,
			Zone:       zone,
		})
	}
	return out, errors
}

func parseVisitsCSV(file *multipart.FileHeader) ([]models.Visit, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errors []string
	var out []models.Visit

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errors = append(errors, err.Error())
			continue
		}

		label := getFieldAny(rec, index, "technician", "tecnico", "técnico", "empleado", "asunto")
		address := getFieldAny(rec, index, "address", "direccion", "dirección", "ubicacion", "ubicación")
		order := getFieldAny(rec, index, "service_order", "ot", "orden", "orden de trabajo")
		startStr := getFieldAny(rec, index, "start", "inicio", "fecha inicio", "comienzo")
		endStr := getFieldAny(rec, index, "end", "fin", "fecha fin", "finalización")
		kindStr := getFieldAny(rec, index, "kind", "tipo")

		if label == "" || startStr == "" || endStr == "" {
			errors = append(errors, "visit technician/start/end required")
			continue
		}
		start, err := parseVisitTime(startStr)
		if err != nil {
			errors = append(errors, "invalid start "+startStr)
			continue
		}
		end, err := parseVisitTime(endStr)
		if err != nil {
			errors = append(errors, "invalid end "+endStr)
			continue
		}

		kind := models.KindTask
		switch strings.ToLower(kindStr) {
		case "unavailability", "ausencia", "indisponibilidad", "vacaciones":
			kind = models.KindUnavailability
		}

		out = append(out, models.Visit{
			TechnicianLabel: utils.CleanLabel(label),
			Kind:            kind,
			Address:         address,
			ServiceOrder:    order,
			Start:           start,
			End:             end,
		})
	}
	return out, errors
}

func parsePostalCodesCSV(file *multipart.FileHeader) ([]models.PostalCode, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errors []string
	var out []models.PostalCode

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errors = append(errors, err.Error())
			continue
		}

		code := getFieldAny(rec, index, "code", "codigo", "código", "cp", "codigo postal", "código postal")
		latStr := getFieldAny(rec, index, "lat", "latitud", "latitude")
		lonStr := getFieldAny(rec, index, "lon", "longitud", "longitude")

		if code == "" {
			errors = append(errors, "postal code required")
			continue
		}
		row := models.PostalCode{Code: code}
		// Rows with blank or unparsable coordinates are kept; resolution
		// treats them as unusable rather than as (0, 0).
		if lat, ok := parseDecimal(latStr); ok {
			if lon, ok := parseDecimal(lonStr); ok {
				row.Lat = &lat
				row.Lon = &lon
			}
		}
		out = append(out, row)
	}
	return out, errors
}

func parseOverridesCSV(file *multipart.FileHeader) ([]models.ScheduleOverride, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errors []string
	var out []models.ScheduleOverride

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errors = append(errors, err.Error())
			continue
		}

		name := getFieldAny(rec, index, "name", "nombre", "tecnico", "técnico")
		startStr := getFieldAny(rec, index, "start", "inicio", "hora inicio")
		endStr := getFieldAny(rec, index, "end", "fin", "hora fin")

		if name == "" {
			errors = append(errors, "override name required")
			continue
		}
		start, err := models.ParseDayTime(startStr)
		if err != nil {
			errors = append(errors, "invalid start "+startStr)
			continue
		}
		end, err := models.ParseDayTime(endStr)
		if err != nil {
			errors = append(errors, "invalid end "+endStr)
			continue
		}
		out = append(out, models.ScheduleOverride{Name: utils.CleanLabel(name), Start: start, End: end})
	}
	return out, errors
}

func parseHolidaysCSV(file *multipart.FileHeader) ([]models.HolidayRow, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errors []string
	var out []models.HolidayRow

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errors = append(errors, err.Error())
			continue
		}

		region := getFieldAny(rec, index, "region", "región", "comunidad", "ambito", "ámbito")
		dayStr := getFieldAny(rec, index, "day", "fecha", "date", "dia", "día")
		if dayStr == "" {
			errors = append(errors, "holiday date required")
			continue
		}
		day, err := parseHolidayDate(dayStr)
		if err != nil {
			errors = append(errors, "invalid date "+dayStr)
			continue
		}
		// National rows leave the region blank or say so explicitly.
		if strings.EqualFold(region, "nacional") || strings.EqualFold(region, "national") {
			region = ""
		}
		out = append(out, models.HolidayRow{Region: region, Day: day})
	}
	return out, errors
}

var visitTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

func parseVisitTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range visitTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

var holidayDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
}

func parseHolidayDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range holidayDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseDecimal accepts both dot and comma decimal separators; the postal
// table exports use the Spanish convention.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func getField(rec []string, idx map[string]int, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func getFieldAny(rec []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if v := getField(rec, idx, normalizeHeader(name)); v != "" {
			return v
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.ToLower(strings.TrimSpace(h))
}

func validateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".csv"
}

// Package db is the PostgreSQL persistence layer: bulk replacement of the
// imported reference tables and assembly of scheduling snapshots.
package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enrutador/dispatch-backend/internal/geo"
	"github.com/enrutador/dispatch-backend/internal/holiday"
	"github.com/enrutador/dispatch-backend/internal/models"
	"github.com/enrutador/dispatch-backend/internal/scheduling"
	"github.com/enrutador/dispatch-backend/internal/utils"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReplaceTechnicians swaps the full roster inside one transaction.
func (s *Store) ReplaceTechnicians(ctx context.Context, techs []models.Technician) (int64, error) {
	var count int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE technicians`); err != nil {
			return err
		}
		rows := make([][]any, 0, len(techs))
		for _, t := range techs {
			rows = append(rows, []any{t.Name, t.PostalCode, t.Zone})
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"technicians"}, []string{"name", "postal_code", "zone"}, pgx.CopyFromRows(rows))
		count = n
		return err
	})
	return count, err
}

func (s *Store) ReplaceVisits(ctx context.Context, visits []models.Visit) (int64, error) {
	var count int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE visits`); err != nil {
			return err
		}
		rows := make([][]any, 0, len(visits))
		for _, v := range visits {
			rows = append(rows, []any{v.TechnicianLabel, string(v.Kind), v.Address, v.ServiceOrder, v.Start, v.End})
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"visits"}, []string{"technician_label", "kind", "address", "service_order", "start_at", "end_at"}, pgx.CopyFromRows(rows))
		count = n
		return err
	})
	return count, err
}

func (s *Store) ReplacePostalCodes(ctx context.Context, codes []models.PostalCode) (int64, error) {
	var count int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE postal_codes`); err != nil {
			return err
		}
		rows := make([][]any, 0, len(codes))
		for _, c := range codes {
			rows = append(rows, []any{c.Code, c.Lat, c.Lon})
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"postal_codes"}, []string{"code", "lat", "lon"}, pgx.CopyFromRows(rows))
		count = n
		return err
	})
	return count, err
}

func (s *Store) ReplaceHolidays(ctx context.Context, holidays []models.HolidayRow) (int64, error) {
	var count int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE holidays`); err != nil {
			return err
		}
		rows := make([][]any, 0, len(holidays))
		for _, h := range holidays {
			rows = append(rows, []any{h.Region, h.Day})
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"holidays"}, []string{"region", "day"}, pgx.CopyFromRows(rows))
		count = n
		return err
	})
	return count, err
}

func (s *Store) ReplaceOverrides(ctx context.Context, overrides []models.ScheduleOverride) (int64, error) {
	var count int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE schedule_overrides`); err != nil {
			return err
		}
		rows := make([][]any, 0, len(overrides))
		for _, o := range overrides {
			rows = append(rows, []any{o.Name, o.Start.Minutes(), o.End.Minutes()})
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"schedule_overrides"}, []string{"name", "start_minute", "end_minute"}, pgx.CopyFromRows(rows))
		count = n
		return err
	})
	return count, err
}

func (s *Store) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	rows, err := s.Pool.Query(ctx, `SELECT name, postal_code, zone FROM technicians ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Technician
	for rows.Next() {
		var t models.Technician
		if err := rows.Scan(&t.Name, &t.PostalCode, &t.Zone); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ListVisits(ctx context.Context) ([]models.Visit, error) {
	rows, err := s.Pool.Query(ctx, `SELECT technician_label, kind, address, service_order, start_at, end_at FROM visits ORDER BY start_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Visit
	for rows.Next() {
		var (
			v    models.Visit
			kind string
		)
		if err := rows.Scan(&v.TechnicianLabel, &kind, &v.Address, &v.ServiceOrder, &v.Start, &v.End); err != nil {
			return nil, err
		}
		v.Kind = models.VisitKind(kind)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) ListPostalCodes(ctx context.Context) ([]models.PostalCode, error) {
	rows, err := s.Pool.Query(ctx, `SELECT code, lat, lon FROM postal_codes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PostalCode
	for rows.Next() {
		var c models.PostalCode
		if err := rows.Scan(&c.Code, &c.Lat, &c.Lon); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListHolidays(ctx context.Context) ([]models.HolidayRow, error) {
	rows, err := s.Pool.Query(ctx, `SELECT region, day FROM holidays ORDER BY day ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HolidayRow
	for rows.Next() {
		var h models.HolidayRow
		if err := rows.Scan(&h.Region, &h.Day); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) ListOverrides(ctx context.Context) ([]models.ScheduleOverride, error) {
	rows, err := s.Pool.Query(ctx, `SELECT name, start_minute, end_minute FROM schedule_overrides`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScheduleOverride
	for rows.Next() {
		var (
			o          models.ScheduleOverride
			start, end int
		)
		if err := rows.Scan(&o.Name, &start, &end); err != nil {
			return nil, err
		}
		o.Start = models.DayTime(start)
		o.End = models.DayTime(end)
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListRoutingProviders returns the provider table rows, enabled or not;
// filtering happens at construction time.
func (s *Store) ListRoutingProviders(ctx context.Context) ([]models.ProviderConfig, error) {
	rows, err := s.Pool.Query(ctx, `SELECT name, api_key, endpoint, weight, enabled FROM routing_providers ORDER BY weight DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ProviderConfig
	for rows.Next() {
		var p models.ProviderConfig
		if err := rows.Scan(&p.Name, &p.APIKey, &p.Endpoint, &p.Weight, &p.Enabled); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LoadSnapshot assembles the immutable view the scheduling pipeline works
// on: cleaned visit labels, the postal-code index and the holiday calendar
// with the default Spanish zone aliases applied.
func (s *Store) LoadSnapshot(ctx context.Context) (*scheduling.Snapshot, error) {
	techs, err := s.ListTechnicians(ctx)
	if err != nil {
		return nil, err
	}
	visits, err := s.ListVisits(ctx)
	if err != nil {
		return nil, err
	}
	for i := range visits {
		visits[i].TechnicianLabel = utils.CleanLabel(visits[i].TechnicianLabel)
	}
	overrides, err := s.ListOverrides(ctx)
	if err != nil {
		return nil, err
	}
	codes, err := s.ListPostalCodes(ctx)
	if err != nil {
		return nil, err
	}
	holidayRows, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}

	cal := holiday.FromRows(holidayRows)
	for zone, region := range holiday.SpanishZoneAliases() {
		cal.SetZoneAlias(zone, region)
	}

	return &scheduling.Snapshot{
		Technicians: techs,
		Visits:      visits,
		Overrides:   overrides,
		Geo:         geo.NewIndex(codes),
		Holidays:    cal,
		LoadedAt:    time.Now(),
	}, nil
}

// Package catalog records one row per converted weather file in a SQL
// database. SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq) are
// supported through sqlx with the same portable schema.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/epw-weather-service/internal/config"
	"github.com/couchcryptid/epw-weather-service/internal/observability"
	"github.com/couchcryptid/epw-weather-service/internal/pipeline"
)

// ErrNotFound is returned by Get for an unknown station.
var ErrNotFound = errors.New("station not found")

// Station is one catalog entry.
type Station struct {
	Name                string         `json:"name"`
	City                string         `json:"city"`
	State               string         `json:"state"`
	Country             string         `json:"country"`
	StationID           string         `json:"station_id"`
	Latitude            float64        `json:"latitude"`
	Longitude           float64        `json:"longitude"`
	TimeZone            float64        `json:"time_zone"`
	Elevation           float64        `json:"elevation"`
	DataYear            int            `json:"data_year"`
	AnnualMeanDryBulb   float64        `json:"annual_mean_dry_bulb"`
	HeatingDryBulb996   *float64       `json:"heating_dry_bulb_996,omitempty"`
	CoolingDryBulb004   *float64       `json:"cooling_dry_bulb_004,omitempty"`
	MagneticDeclination *float64       `json:"magnetic_declination,omitempty"`
	MissingHours        map[string]int `json:"missing_hours"`
	JobID               string         `json:"job_id"`
	ProcessedAt         time.Time      `json:"processed_at"`
}

// stationRow is the column layout of the stations table.
type stationRow struct {
	Name                string          `db:"name"`
	City                string          `db:"city"`
	State               string          `db:"state"`
	Country             string          `db:"country"`
	StationID           string          `db:"station_id"`
	Latitude            float64         `db:"latitude"`
	Longitude           float64         `db:"longitude"`
	TimeZone            float64         `db:"time_zone"`
	Elevation           float64         `db:"elevation"`
	DataYear            int             `db:"data_year"`
	AnnualMeanDryBulb   float64         `db:"annual_mean_dry_bulb"`
	HeatingDryBulb996   sql.NullFloat64 `db:"heating_db996"`
	CoolingDryBulb004   sql.NullFloat64 `db:"cooling_db004"`
	MagneticDeclination sql.NullFloat64 `db:"magnetic_declination"`
	MissingHours        string          `db:"missing_hours"`
	JobID               string          `db:"job_id"`
	ProcessedAt         string          `db:"processed_at"`
}

// Catalog is a sqlx-backed station store.
// It implements pipeline.BatchLoader.
type Catalog struct {
	db      *sqlx.DB
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Open connects to the catalog database. driver is config.CatalogSQLite or
// config.CatalogPostgres.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger, metrics *observability.Metrics) (*Catalog, error) {
	var driverName string
	switch driver {
	case config.CatalogSQLite:
		driverName = "sqlite"
		sqlx.BindDriver(driverName, sqlx.QUESTION)
	case config.CatalogPostgres:
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if driver == config.CatalogSQLite {
		// SQLite only supports one writer at a time.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL", "PRAGMA busy_timeout=5000"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("catalog %s: %w", pragma, err)
			}
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	logger.Info("catalog connected", "driver", driver)
	return &Catalog{db: db, logger: logger, metrics: metrics}, nil
}

const schema = `CREATE TABLE IF NOT EXISTS stations (
	name                 TEXT PRIMARY KEY,
	city                 TEXT NOT NULL,
	state                TEXT NOT NULL,
	country              TEXT NOT NULL,
	station_id           TEXT NOT NULL,
	latitude             DOUBLE PRECISION NOT NULL,
	longitude            DOUBLE PRECISION NOT NULL,
	time_zone            DOUBLE PRECISION NOT NULL,
	elevation            DOUBLE PRECISION NOT NULL,
	data_year            INTEGER NOT NULL,
	annual_mean_dry_bulb DOUBLE PRECISION NOT NULL,
	heating_db996        DOUBLE PRECISION,
	cooling_db004        DOUBLE PRECISION,
	magnetic_declination DOUBLE PRECISION,
	missing_hours        TEXT NOT NULL,
	job_id               TEXT NOT NULL,
	processed_at         TEXT NOT NULL
)`

// Migrate creates the stations table if it does not exist.
func (c *Catalog) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}

const upsert = `INSERT INTO stations (
	name, city, state, country, station_id, latitude, longitude, time_zone, elevation,
	data_year, annual_mean_dry_bulb, heating_db996, cooling_db004, magnetic_declination,
	missing_hours, job_id, processed_at
) VALUES (
	:name, :city, :state, :country, :station_id, :latitude, :longitude, :time_zone, :elevation,
	:data_year, :annual_mean_dry_bulb, :heating_db996, :cooling_db004, :magnetic_declination,
	:missing_hours, :job_id, :processed_at
) ON CONFLICT (name) DO UPDATE SET
	city = excluded.city,
	state = excluded.state,
	country = excluded.country,
	station_id = excluded.station_id,
	latitude = excluded.latitude,
	longitude = excluded.longitude,
	time_zone = excluded.time_zone,
	elevation = excluded.elevation,
	data_year = excluded.data_year,
	annual_mean_dry_bulb = excluded.annual_mean_dry_bulb,
	heating_db996 = excluded.heating_db996,
	cooling_db004 = excluded.cooling_db004,
	magnetic_declination = excluded.magnetic_declination,
	missing_hours = excluded.missing_hours,
	job_id = excluded.job_id,
	processed_at = excluded.processed_at`

// LoadBatch upserts one row per conversion, keyed by source name, in a
// single transaction.
func (c *Catalog) LoadBatch(ctx context.Context, conversions []pipeline.Conversion) error {
	if len(conversions) == 0 {
		return nil
	}
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog load: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, conv := range conversions {
		row, err := toRow(conv)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, upsert, row); err != nil {
			return fmt.Errorf("upsert station %s: %w", conv.Source, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog load: %w", err)
	}

	if n, err := c.Count(ctx); err == nil {
		c.metrics.CatalogStations.Set(float64(n))
	}
	return nil
}

const selectStations = `SELECT name, city, state, country, station_id, latitude, longitude,
	time_zone, elevation, data_year, annual_mean_dry_bulb, heating_db996, cooling_db004,
	magnetic_declination, missing_hours, job_id, processed_at FROM stations`

// List returns every station ordered by name.
func (c *Catalog) List(ctx context.Context) ([]Station, error) {
	var rows []stationRow
	if err := c.db.SelectContext(ctx, &rows, selectStations+" ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	out := make([]Station, 0, len(rows))
	for _, r := range rows {
		s, err := r.station()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Get returns the station recorded for a source name.
func (c *Catalog) Get(ctx context.Context, name string) (Station, error) {
	var r stationRow
	err := c.db.GetContext(ctx, &r, c.db.Rebind(selectStations+" WHERE name = ?"), name)
	if errors.Is(err, sql.ErrNoRows) {
		return Station{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Station{}, fmt.Errorf("get station %s: %w", name, err)
	}
	return r.station()
}

// Count returns the number of stations.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM stations"); err != nil {
		return 0, fmt.Errorf("count stations: %w", err)
	}
	return n, nil
}

// CheckReadiness pings the database.
func (c *Catalog) CheckReadiness(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func toRow(conv pipeline.Conversion) (stationRow, error) {
	s := conv.Summary
	missing, err := json.Marshal(s.MissingHours)
	if err != nil {
		return stationRow{}, fmt.Errorf("serialize missing hours for %s: %w", conv.Source, err)
	}
	return stationRow{
		Name:                conv.Source,
		City:                s.Location.City,
		State:               s.Location.State,
		Country:             s.Location.Country,
		StationID:           s.Location.StationID,
		Latitude:            s.Location.Latitude,
		Longitude:           s.Location.Longitude,
		TimeZone:            s.Location.TimeZone,
		Elevation:           s.Location.Elevation,
		DataYear:            s.DataYear,
		AnnualMeanDryBulb:   s.AnnualMeanDryBulb,
		HeatingDryBulb996:   nullFloat(s.HeatingDryBulb996),
		CoolingDryBulb004:   nullFloat(s.CoolingDryBulb004),
		MagneticDeclination: nullFloat(s.MagneticDeclination),
		MissingHours:        string(missing),
		JobID:               conv.JobID,
		ProcessedAt:         conv.ProcessedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func (r stationRow) station() (Station, error) {
	processedAt, err := time.Parse(time.RFC3339Nano, r.ProcessedAt)
	if err != nil {
		return Station{}, fmt.Errorf("station %s: processed_at: %w", r.Name, err)
	}
	missing := map[string]int{}
	if err := json.Unmarshal([]byte(r.MissingHours), &missing); err != nil {
		return Station{}, fmt.Errorf("station %s: missing_hours: %w", r.Name, err)
	}
	return Station{
		Name:                r.Name,
		City:                r.City,
		State:               r.State,
		Country:             r.Country,
		StationID:           r.StationID,
		Latitude:            r.Latitude,
		Longitude:           r.Longitude,
		TimeZone:            r.TimeZone,
		Elevation:           r.Elevation,
		DataYear:            r.DataYear,
		AnnualMeanDryBulb:   r.AnnualMeanDryBulb,
		HeatingDryBulb996:   floatPtr(r.HeatingDryBulb996),
		CoolingDryBulb004:   floatPtr(r.CoolingDryBulb004),
		MagneticDeclination: floatPtr(r.MagneticDeclination),
		MissingHours:        missing,
		JobID:               r.JobID,
		ProcessedAt:         processedAt,
	}, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	libdb "chargemap/backend/libs/db"
	"chargemap/backend/services/stations-service/internal/models"
)

const stationColumns = `
	id, name, address, latitude, longitude, charging_type, power_output, price_per_kwh,
	status, total_ports, available_ports, description, amenities, created_at, updated_at`

var stationOrderColumns = map[string]string{
	"name":          "name",
	"price_per_kwh": "price_per_kwh",
	"created_at":    "created_at",
}

// StationRepository stores charging stations in postgres.
type StationRepository struct {
	pool *pgxpool.Pool
}

// NewStationRepository returns repository.
func NewStationRepository(pool *pgxpool.Pool) *StationRepository {
	return &StationRepository{pool: pool}
}

// ListActive returns every active station in id order.
func (r *StationRepository) ListActive(ctx context.Context) ([]models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE status = 'active' ORDER BY id`
	var stations []models.Station
	if err := pgxscan.Select(ctx, r.pool, &stations, query); err != nil {
		return nil, err
	}
	return stations, nil
}

// List applies filters, case-insensitive search, ordering and paging.
func (r *StationRepository) List(ctx context.Context, filter models.StationFilter) ([]models.Station, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ChargingType != "" {
		where = append(where, "charging_type = "+arg(filter.ChargingType))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status))
	}
	if filter.PowerOutput > 0 {
		where = append(where, "power_output = "+arg(filter.PowerOutput))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		p := arg("%" + escapeLike(search) + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %[1]s OR address ILIKE %[1]s OR description ILIKE %[1]s)", p))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + stationColumns + ` FROM stations`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	field, desc := filter.OrderBy()
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", stationOrderColumns[field], direction, direction)
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
	}
	if filter.Offset > 0 {
		sb.WriteString(" OFFSET " + arg(filter.Offset))
	}

	var stations []models.Station
	if err := pgxscan.Select(ctx, r.pool, &stations, sb.String(), args...); err != nil {
		return nil, err
	}
	return stations, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetByID returns models.ErrStationNotFound for unknown ids.
func (r *StationRepository) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE id = $1`
	var station models.Station
	if err := pgxscan.Get(ctx, r.pool, &station, query, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrStationNotFound
		}
		return nil, err
	}
	return &station, nil
}

// Create inserts a station and fills id and timestamps.
func (r *StationRepository) Create(ctx context.Context, station *models.Station) error {
	amenities, err := amenitiesJSON(station.Amenities)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO stations (name, address, latitude, longitude, charging_type, power_output, price_per_kwh,
			status, total_ports, available_ports, description, amenities)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb)
		RETURNING id, created_at, updated_at
	`
	err = r.pool.QueryRow(ctx, query,
		station.Name,
		station.Address,
		station.Latitude,
		station.Longitude,
		station.ChargingType,
		station.PowerOutput,
		station.PricePerKWh,
		station.Status,
		station.TotalPorts,
		station.AvailablePorts,
		station.Description,
		amenities,
	).Scan(&station.ID, &station.CreatedAt, &station.UpdatedAt)
	return mapStationError(err)
}

// Update overwrites every mutable column. The station row is locked first so the
// port counter is resolved against a stable count of active sessions; session
// starts and stops take the same row lock. A nil availablePorts keeps the stored
// counter.
func (r *StationRepository) Update(ctx context.Context, station *models.Station, availablePorts *int) error {
	amenities, err := amenitiesJSON(station.Amenities)
	if err != nil {
		return err
	}
	return libdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current int
		err := tx.QueryRow(ctx, `SELECT available_ports FROM stations WHERE id = $1 FOR UPDATE`, station.ID).Scan(&current)
		if err != nil {
			if isNoRows(err) {
				return models.ErrStationNotFound
			}
			return err
		}

		var inUse int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM charging_sessions WHERE station_id = $1 AND status = 'active'`,
			station.ID,
		).Scan(&inUse); err != nil {
			return err
		}

		ports, err := models.ResolvePorts(station.TotalPorts, current, inUse, availablePorts)
		if err != nil {
			return err
		}
		station.AvailablePorts = ports

		const query = `
			UPDATE stations
			SET name = $2, address = $3, latitude = $4, longitude = $5, charging_type = $6,
			    power_output = $7, price_per_kwh = $8, status = $9, total_ports = $10,
			    available_ports = $11, description = $12, amenities = $13::jsonb, updated_at = NOW()
			WHERE id = $1
			RETURNING created_at, updated_at
		`
		err = tx.QueryRow(ctx, query,
			station.ID,
			station.Name,
			station.Address,
			station.Latitude,
			station.Longitude,
			station.ChargingType,
			station.PowerOutput,
			station.PricePerKWh,
			station.Status,
			station.TotalPorts,
			station.AvailablePorts,
			station.Description,
			amenities,
		).Scan(&station.CreatedAt, &station.UpdatedAt)
		return mapStationError(err)
	})
}

// Delete removes a station; sessions, reviews and favorites cascade.
func (r *StationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStationNotFound
	}
	return nil
}

func amenitiesJSON(amenities []string) (string, error) {
	if amenities == nil {
		amenities = []string{}
	}
	data, err := json.Marshal(amenities)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

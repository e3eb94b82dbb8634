package repository

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	libdb "chargemap/backend/libs/db"
	"chargemap/backend/services/stations-service/internal/models"
)

const sessionSelect = `
	SELECT cs.id, cs.user_id, cs.station_id, s.name AS station_name, cs.start_time, cs.end_time,
	       cs.energy_consumed, cs.total_cost, cs.status
	FROM charging_sessions cs
	JOIN stations s ON s.id = cs.station_id`

// SessionRepository is the postgres session ledger. Port counters change in the
// same transaction as the session row.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns repository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// StartSession creates an active session and decrements available_ports. The
// conditional UPDATE row-locks the station so concurrent starts cannot overbook it,
// and the partial unique index rejects a second active session per user. Station
// availability is checked before the user's active session; a rejected start rolls
// the decrement back.
func (r *SessionRepository) StartSession(ctx context.Context, userID, stationID int64, startedAt time.Time) (*models.Session, error) {
	var session models.Session
	err := libdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE stations
			SET available_ports = available_ports - 1, updated_at = NOW()
			WHERE id = $1 AND status = 'active' AND available_ports > 0
		`, stationID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return r.unavailableReason(ctx, tx, stationID)
		}

		var active bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM charging_sessions WHERE user_id = $1 AND status = 'active')`,
			userID,
		).Scan(&active); err != nil {
			return err
		}
		if active {
			return models.ErrSessionAlreadyActive
		}

		var id int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO charging_sessions (user_id, station_id, start_time, status)
			VALUES ($1, $2, $3, 'active')
			RETURNING id
		`, userID, stationID, startedAt).Scan(&id); err != nil {
			if libdb.IsUniqueViolation(err, oneActivePerUserIndex) {
				return models.ErrSessionAlreadyActive
			}
			return err
		}

		return pgxscan.Get(ctx, tx, &session, sessionSelect+` WHERE cs.id = $1`, id)
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) unavailableReason(ctx context.Context, tx pgx.Tx, stationID int64) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stations WHERE id = $1)`, stationID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return models.ErrStationNotFound
	}
	return models.ErrStationUnavailable
}

// StopSession completes the user's active session at the station, prices the
// energy with the station tariff and returns one port, capped at total_ports.
func (r *SessionRepository) StopSession(ctx context.Context, userID, stationID int64, energyKWh decimal.Decimal, endedAt time.Time) (*models.Session, error) {
	var session models.Session
	err := libdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			sessionID int64
			price     decimal.Decimal
		)
		err := tx.QueryRow(ctx, `
			SELECT cs.id, s.price_per_kwh
			FROM charging_sessions cs
			JOIN stations s ON s.id = cs.station_id
			WHERE cs.user_id = $1 AND cs.station_id = $2 AND cs.status = 'active'
			FOR UPDATE OF cs
		`, userID, stationID).Scan(&sessionID, &price)
		if err != nil {
			if isNoRows(err) {
				return models.ErrNoActiveSession
			}
			return err
		}

		energy := energyKWh.Round(2)
		tag, err := tx.Exec(ctx, `
			UPDATE charging_sessions
			SET status = 'completed', end_time = $2, energy_consumed = $3, total_cost = $4
			WHERE id = $1 AND status = 'active'
		`, sessionID, endedAt, energy, models.SessionCost(energy, price))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNoActiveSession
		}

		if _, err := tx.Exec(ctx, `
			UPDATE stations
			SET available_ports = LEAST(available_ports + 1, total_ports), updated_at = NOW()
			WHERE id = $1
		`, stationID); err != nil {
			return err
		}

		return pgxscan.Get(ctx, tx, &session, sessionSelect+` WHERE cs.id = $1`, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByUser returns the user's sessions newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]models.Session, error) {
	sessions := []models.Session{}
	if err := pgxscan.Select(ctx, r.pool, &sessions,
		sessionSelect+` WHERE cs.user_id = $1 ORDER BY cs.start_time DESC, cs.id DESC`, userID); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetByID returns a session or models.ErrNotFound.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	var session models.Session
	if err := pgxscan.Get(ctx, r.pool, &session, sessionSelect+` WHERE cs.id = $1`, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

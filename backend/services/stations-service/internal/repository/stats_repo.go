package repository

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"chargemap/backend/services/stations-service/internal/models"
)

// StatsRepository computes station enrichment with one query per page.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository returns repository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// RatingStats averages review ratings per station.
func (r *StatsRepository) RatingStats(ctx context.Context, stationIDs []int64) (map[int64]models.RatingStats, error) {
	out := make(map[int64]models.RatingStats, len(stationIDs))
	if len(stationIDs) == 0 {
		return out, nil
	}

	var rows []models.RatingStats
	err := pgxscan.Select(ctx, r.pool, &rows, `
		SELECT station_id, AVG(rating)::float8 AS average, COUNT(*)::int AS total
		FROM reviews
		WHERE station_id = ANY($1)
		GROUP BY station_id
	`, stationIDs)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.StationID] = row
	}
	return out, nil
}

// FavoriteStationIDs reports which of the stations the user has favorited.
func (r *StatsRepository) FavoriteStationIDs(ctx context.Context, userID int64, stationIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	if len(stationIDs) == 0 {
		return out, nil
	}

	var ids []int64
	err := pgxscan.Select(ctx, r.pool, &ids, `
		SELECT station_id FROM favorite_stations WHERE user_id = $1 AND station_id = ANY($2)
	`, userID, stationIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

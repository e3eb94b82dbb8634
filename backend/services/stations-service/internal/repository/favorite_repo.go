package repository

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"chargemap/backend/services/stations-service/internal/models"
)

// FavoriteRepository stores favorite stations in postgres.
type FavoriteRepository struct {
	pool *pgxpool.Pool
}

// NewFavoriteRepository returns repository.
func NewFavoriteRepository(pool *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{pool: pool}
}

// Create inserts a favorite.
func (r *FavoriteRepository) Create(ctx context.Context, favorite *models.Favorite) error {
	const query = `
		INSERT INTO favorite_stations (user_id, station_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, favorite.UserID, favorite.StationID).Scan(&favorite.ID, &favorite.CreatedAt)
	return mapRegistryError(err, favoriteUniqueKey)
}

// GetByID returns a favorite or models.ErrNotFound.
func (r *FavoriteRepository) GetByID(ctx context.Context, id int64) (*models.Favorite, error) {
	var favorite models.Favorite
	err := pgxscan.Get(ctx, r.pool, &favorite,
		`SELECT id, user_id, station_id, created_at FROM favorite_stations WHERE id = $1`, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &favorite, nil
}

// Delete removes a favorite.
func (r *FavoriteRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM favorite_stations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's favorites newest first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]models.Favorite, error) {
	favorites := []models.Favorite{}
	err := pgxscan.Select(ctx, r.pool, &favorites, `
		SELECT id, user_id, station_id, created_at
		FROM favorite_stations
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return favorites, nil
}

package repository

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"chargemap/backend/services/stations-service/internal/models"
)

const reviewSelect = `
	SELECT r.id, r.user_id, COALESCE(u.username, '') AS user_name, r.station_id, s.name AS station_name,
	       r.rating, r.comment, r.created_at
	FROM reviews r
	JOIN stations s ON s.id = r.station_id
	LEFT JOIN users u ON u.id = r.user_id`

// ReviewRepository stores reviews in postgres.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns repository.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a review; the unique (user_id, station_id) constraint maps to
// models.ErrDuplicateEntry.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	const query = `
		WITH inserted AS (
			INSERT INTO reviews (user_id, station_id, rating, comment)
			VALUES ($1, $2, $3, $4)
			RETURNING id, user_id, station_id, rating, comment, created_at
		)
		SELECT i.id, i.user_id, COALESCE(u.username, '') AS user_name, i.station_id, s.name AS station_name,
		       i.rating, i.comment, i.created_at
		FROM inserted i
		JOIN stations s ON s.id = i.station_id
		LEFT JOIN users u ON u.id = i.user_id
	`
	err := pgxscan.Get(ctx, r.pool, review, query, review.UserID, review.StationID, review.Rating, review.Comment)
	return mapRegistryError(err, reviewUniqueConstraint)
}

// GetByID returns a review or models.ErrNotFound.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	var review models.Review
	if err := pgxscan.Get(ctx, r.pool, &review, reviewSelect+` WHERE r.id = $1`, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

// Update stores rating and comment.
func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE reviews SET rating = $2, comment = $3 WHERE id = $1`,
		review.ID, review.Rating, review.Comment,
	)
	if err != nil {
		return mapRegistryError(err, reviewUniqueConstraint)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// List returns reviews newest first; stationID 0 lists all.
func (r *ReviewRepository) List(ctx context.Context, stationID int64) ([]models.Review, error) {
	reviews := []models.Review{}
	query := reviewSelect + ` WHERE ($1::bigint = 0 OR r.station_id = $1) ORDER BY r.created_at DESC, r.id DESC`
	if err := pgxscan.Select(ctx, r.pool, &reviews, query, stationID); err != nil {
		return nil, err
	}
	return reviews, nil
}

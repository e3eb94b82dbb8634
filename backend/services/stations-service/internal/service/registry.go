package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"chargemap/backend/services/stations-service/internal/events"
	"chargemap/backend/services/stations-service/internal/metrics"
	"chargemap/backend/services/stations-service/internal/models"
)

// Registry manages reviews and favorites, both unique per (user, station).
type Registry struct {
	reviews   ReviewRepository
	favorites FavoriteRepository
	stations  *StationsService
	notifier  notifier
	logger    *zap.Logger
}

// NewRegistry builds the registry.
func NewRegistry(
	reviews ReviewRepository,
	favorites FavoriteRepository,
	stations *StationsService,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Registry {
	return &Registry{
		reviews:   reviews,
		favorites: favorites,
		stations:  stations,
		notifier:  notifier{publisher: publisher, metrics: m, logger: logger},
		logger:    logger,
	}
}

// AddReview records the user's review of a station.
func (r *Registry) AddReview(ctx context.Context, userID, stationID int64, rating int, comment string) (*models.Review, error) {
	if err := models.ValidateRating(rating); err != nil {
		return nil, err
	}
	review := &models.Review{
		UserID:    userID,
		StationID: stationID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := r.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	r.notifier.publish(ctx, events.Event{
		Type:      events.ReviewCreated,
		StationID: stationID,
		UserID:    userID,
		ReviewID:  review.ID,
		Rating:    rating,
	})
	return review, nil
}

// ListReviews returns reviews newest first; stationID 0 lists all.
func (r *Registry) ListReviews(ctx context.Context, stationID int64) ([]models.Review, error) {
	return r.reviews.List(ctx, stationID)
}

// GetReview returns one review.
func (r *Registry) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	return r.reviews.GetByID(ctx, id)
}

// UpdateReview changes rating and comment of the user's own review.
func (r *Registry) UpdateReview(ctx context.Context, userID, id int64, rating int, comment string) (*models.Review, error) {
	if err := models.ValidateRating(rating); err != nil {
		return nil, err
	}
	review, err := r.ownReview(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	review.Rating = rating
	review.Comment = comment
	if err := r.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes the user's own review.
func (r *Registry) DeleteReview(ctx context.Context, userID, id int64) error {
	if _, err := r.ownReview(ctx, userID, id); err != nil {
		return err
	}
	return r.reviews.Delete(ctx, id)
}

func (r *Registry) ownReview(ctx context.Context, userID, id int64) (*models.Review, error) {
	review, err := r.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, models.ErrForbidden
	}
	return review, nil
}

// AddFavorite marks a station as the user's favorite.
func (r *Registry) AddFavorite(ctx context.Context, userID, stationID int64) (*models.Favorite, error) {
	favorite := &models.Favorite{UserID: userID, StationID: stationID}
	if err := r.favorites.Create(ctx, favorite); err != nil {
		return nil, err
	}

	r.notifier.publish(ctx, events.Event{Type: events.FavoriteCreated, StationID: stationID, UserID: userID})
	return favorite, nil
}

// ListFavorites returns the user's favorites with station details.
func (r *Registry) ListFavorites(ctx context.Context, userID int64) ([]models.Favorite, error) {
	favorites, err := r.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	viewer := models.Actor{UserID: userID}
	for i := range favorites {
		view, err := r.stations.GetStation(ctx, viewer, favorites[i].StationID)
		if err != nil {
			if errors.Is(err, models.ErrStationNotFound) {
				continue
			}
			return nil, err
		}
		favorites[i].StationDetails = view
	}
	return favorites, nil
}

// DeleteFavorite removes the user's own favorite.
func (r *Registry) DeleteFavorite(ctx context.Context, userID, id int64) error {
	favorite, err := r.favorites.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if favorite.UserID != userID {
		return models.ErrForbidden
	}
	return r.favorites.Delete(ctx, id)
}

package memstore

import (
	"context"
	"sort"

	"chargemap/backend/services/stations-service/internal/models"
)

// Create stores a review, rejecting a second review for the same (user, station).
func (s ReviewStore) Create(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	station, ok := s.stations[review.StationID]
	if !ok {
		return models.ErrStationNotFound
	}
	for _, r := range s.reviews {
		if r.UserID == review.UserID && r.StationID == review.StationID {
			return models.ErrDuplicateEntry
		}
	}

	s.nextReviewID++
	review.ID = s.nextReviewID
	review.CreatedAt = s.now().UTC()
	review.StationName = station.Name
	stored := *review
	s.reviews[review.ID] = &stored
	return nil
}

// GetByID returns a review.
func (s ReviewStore) GetByID(_ context.Context, id int64) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *r
	return &out, nil
}

// Update overwrites rating and comment.
func (s ReviewStore) Update(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[review.ID]
	if !ok {
		return models.ErrNotFound
	}
	r.Rating = review.Rating
	r.Comment = review.Comment
	*review = *r
	return nil
}

// Delete removes a review.
func (s ReviewStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

// List returns reviews newest first, optionally for one station.
func (s ReviewStore) List(_ context.Context, stationID int64) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Review, 0)
	for _, r := range s.reviews {
		if stationID == 0 || r.StationID == stationID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Create stores a favorite, rejecting duplicates.
func (s FavoriteStore) Create(_ context.Context, favorite *models.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stations[favorite.StationID]; !ok {
		return models.ErrStationNotFound
	}
	for _, f := range s.favorites {
		if f.UserID == favorite.UserID && f.StationID == favorite.StationID {
			return models.ErrDuplicateEntry
		}
	}

	s.nextFavoriteID++
	favorite.ID = s.nextFavoriteID
	favorite.CreatedAt = s.now().UTC()
	stored := *favorite
	stored.StationDetails = nil
	s.favorites[favorite.ID] = &stored
	return nil
}

// GetByID returns a favorite.
func (s FavoriteStore) GetByID(_ context.Context, id int64) (*models.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.favorites[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *f
	return &out, nil
}

// Delete removes a favorite.
func (s FavoriteStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.favorites[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.favorites, id)
	return nil
}

// ListByUser returns the user's favorites newest first.
func (s FavoriteStore) ListByUser(_ context.Context, userID int64) ([]models.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Favorite, 0)
	for _, f := range s.favorites {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// RatingStats averages ratings for the given stations. Stations without reviews
// are absent from the result.
func (s *Store) RatingStats(_ context.Context, stationIDs []int64) (map[int64]models.RatingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]bool, len(stationIDs))
	for _, id := range stationIDs {
		wanted[id] = true
	}
	sums := make(map[int64]int)
	stats := make(map[int64]models.RatingStats)
	for _, r := range s.reviews {
		if !wanted[r.StationID] {
			continue
		}
		st := stats[r.StationID]
		st.StationID = r.StationID
		st.Count++
		sums[r.StationID] += r.Rating
		stats[r.StationID] = st
	}
	for id, st := range stats {
		st.Average = float64(sums[id]) / float64(st.Count)
		stats[id] = st
	}
	return stats, nil
}

// FavoriteStationIDs reports which of the stations the user has favorited.
func (s *Store) FavoriteStationIDs(_ context.Context, userID int64, stationIDs []int64) (map[int64]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]bool, len(stationIDs))
	for _, id := range stationIDs {
		wanted[id] = true
	}
	out := make(map[int64]bool)
	for _, f := range s.favorites {
		if f.UserID == userID && wanted[f.StationID] {
			out[f.StationID] = true
		}
	}
	return out, nil
}

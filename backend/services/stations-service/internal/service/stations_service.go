package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"chargemap/backend/services/stations-service/internal/cache"
	"chargemap/backend/services/stations-service/internal/events"
	"chargemap/backend/services/stations-service/internal/geo"
	"chargemap/backend/services/stations-service/internal/metrics"
	"chargemap/backend/services/stations-service/internal/models"
)

// StationsService serves station listings, nearby search and station management.
type StationsService struct {
	stations StationRepository
	stats    StatsRepository
	nearby   *cache.NearbyCache
	metrics  *metrics.Metrics
	notifier notifier
	logger   *zap.Logger
}

// NewStationsService builds the service. nearby and m may be nil.
func NewStationsService(
	stations StationRepository,
	stats StatsRepository,
	nearby *cache.NearbyCache,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *StationsService {
	return &StationsService{
		stations: stations,
		stats:    stats,
		nearby:   nearby,
		metrics:  m,
		notifier: notifier{publisher: publisher, metrics: m, logger: logger},
		logger:   logger,
	}
}

// FindNearby returns active stations within q.RadiusKm of the query point, nearest
// first, each annotated with its distance rounded to two decimals.
func (s *StationsService) FindNearby(ctx context.Context, viewer models.Actor, q geo.Query) ([]models.NearbyStation, error) {
	if err := q.Validate(); err != nil {
		s.countNearby("invalid")
		return nil, err
	}

	hits, ok := s.cachedNearby(q)
	if !ok {
		var generation uint64
		if s.nearby != nil {
			generation = s.nearby.Generation()
		}
		active, err := s.stations.ListActive(ctx)
		if err != nil {
			s.countNearby("error")
			return nil, fmt.Errorf("%w: %w", models.ErrInternalQuery, err)
		}
		hits = geo.Within(q.Origin(), q.RadiusKm, active, func(st models.Station) geo.Point {
			lat, lng := st.Coordinates()
			return geo.Point{Lat: lat, Lng: lng}
		})
		if s.nearby != nil && !s.nearby.Put(q, hits, generation) {
			s.countCache("stale")
		}
	}

	found := make([]models.Station, len(hits))
	for i, h := range hits {
		found[i] = h.Item
	}
	views, err := s.Views(ctx, viewer, found)
	if err != nil {
		s.countNearby("error")
		return nil, fmt.Errorf("%w: %w", models.ErrInternalQuery, err)
	}

	out := make([]models.NearbyStation, len(hits))
	for i, h := range hits {
		out[i] = models.NearbyStation{StationView: views[i], Distance: geo.Round2(h.Distance)}
	}
	s.countNearby("ok")
	return out, nil
}

func (s *StationsService) cachedNearby(q geo.Query) ([]geo.Hit[models.Station], bool) {
	if s.nearby == nil {
		return nil, false
	}
	hits, ok := s.nearby.Get(q)
	if ok {
		s.countCache("hit")
	} else {
		s.countCache("miss")
	}
	return hits, ok
}

func (s *StationsService) countCache(result string) {
	if s.metrics != nil {
		s.metrics.NearbyCache.WithLabelValues(result).Inc()
	}
}

func (s *StationsService) countNearby(outcome string) {
	if s.metrics != nil {
		s.metrics.NearbyQueries.WithLabelValues(outcome).Inc()
	}
}

// ListStations returns stations matching filter.
func (s *StationsService) ListStations(ctx context.Context, viewer models.Actor, filter models.StationFilter) ([]models.StationView, error) {
	stations, err := s.stations.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.Views(ctx, viewer, stations)
}

// GetStation returns one station.
func (s *StationsService) GetStation(ctx context.Context, viewer models.Actor, id int64) (*models.StationView, error) {
	st, err := s.stations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.Views(ctx, viewer, []models.Station{*st})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// CreateStation adds a station. Administrators only.
func (s *StationsService) CreateStation(ctx context.Context, actor models.Actor, station *models.Station) (*models.StationView, error) {
	if !actor.Admin {
		return nil, models.ErrForbidden
	}
	if err := station.Validate(); err != nil {
		return nil, err
	}
	if err := s.stations.Create(ctx, station); err != nil {
		return nil, err
	}

	s.logger.Info("station created", zap.Int64("station_id", station.ID), zap.Int64("user_id", actor.UserID))
	ports := station.AvailablePorts
	s.notifier.publish(ctx, events.Event{Type: events.StationCreated, StationID: station.ID, UserID: actor.UserID, AvailablePorts: &ports})
	return &models.StationView{Station: *station}, nil
}

// UpdateStation replaces a station's fields. Administrators only. A nil
// availablePorts keeps the stored counter; a given value may not hand out ports
// held by active sessions.
func (s *StationsService) UpdateStation(ctx context.Context, actor models.Actor, station *models.Station, availablePorts *int) (*models.StationView, error) {
	if !actor.Admin {
		return nil, models.ErrForbidden
	}
	if err := station.ValidateFields(); err != nil {
		return nil, err
	}
	if err := s.stations.Update(ctx, station, availablePorts); err != nil {
		return nil, err
	}

	ports := station.AvailablePorts
	s.notifier.publish(ctx, events.Event{Type: events.StationUpdated, StationID: station.ID, UserID: actor.UserID, AvailablePorts: &ports})
	return s.GetStation(ctx, actor, station.ID)
}

// DeleteStation removes a station. Administrators only.
func (s *StationsService) DeleteStation(ctx context.Context, actor models.Actor, id int64) error {
	if !actor.Admin {
		return models.ErrForbidden
	}
	if err := s.stations.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("station deleted", zap.Int64("station_id", id), zap.Int64("user_id", actor.UserID))
	s.notifier.publish(ctx, events.Event{Type: events.StationDeleted, StationID: id, UserID: actor.UserID})
	return nil
}

// Views enriches stations with rating statistics and the viewer's favorite flag,
// preserving input order. Ratings are aggregated per call, never stored.
func (s *StationsService) Views(ctx context.Context, viewer models.Actor, stations []models.Station) ([]models.StationView, error) {
	views := make([]models.StationView, len(stations))
	if len(stations) == 0 {
		return views, nil
	}

	ids := make([]int64, len(stations))
	for i, st := range stations {
		ids[i] = st.ID
	}

	stats, err := s.stats.RatingStats(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("rating stats: %w", err)
	}
	favorites := map[int64]bool{}
	if viewer.Authenticated() {
		favorites, err = s.stats.FavoriteStationIDs(ctx, viewer.UserID, ids)
		if err != nil {
			return nil, fmt.Errorf("favorite lookup: %w", err)
		}
	}

	for i, st := range stations {
		stat := stats[st.ID]
		views[i] = models.StationView{
			Station:       st,
			AverageRating: stat.Average,
			TotalReviews:  stat.Count,
			IsFavorite:    favorites[st.ID],
		}
	}
	return views, nil
}

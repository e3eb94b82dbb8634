package service

import (
	"context"

	"chargemap/backend/services/stations-service/internal/models"
)

type stationRepoMock struct {
	listActiveFn func(ctx context.Context) ([]models.Station, error)
	listFn       func(ctx context.Context, filter models.StationFilter) ([]models.Station, error)
	getByIDFn    func(ctx context.Context, id int64) (*models.Station, error)
	createFn     func(ctx context.Context, station *models.Station) error
	updateFn     func(ctx context.Context, station *models.Station, availablePorts *int) error
	deleteFn     func(ctx context.Context, id int64) error

	listActiveCalls int
}

func (m *stationRepoMock) ListActive(ctx context.Context) ([]models.Station, error) {
	m.listActiveCalls++
	return m.listActiveFn(ctx)
}

func (m *stationRepoMock) List(ctx context.Context, filter models.StationFilter) ([]models.Station, error) {
	return m.listFn(ctx, filter)
}

func (m *stationRepoMock) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	return m.getByIDFn(ctx, id)
}

func (m *stationRepoMock) Create(ctx context.Context, station *models.Station) error {
	return m.createFn(ctx, station)
}

func (m *stationRepoMock) Update(ctx context.Context, station *models.Station, availablePorts *int) error {
	return m.updateFn(ctx, station, availablePorts)
}

func (m *stationRepoMock) Delete(ctx context.Context, id int64) error {
	return m.deleteFn(ctx, id)
}

type statsRepoMock struct {
	ratingStatsFn func(ctx context.Context, ids []int64) (map[int64]models.RatingStats, error)
	favoritesFn   func(ctx context.Context, userID int64, ids []int64) (map[int64]bool, error)
}

func (m *statsRepoMock) RatingStats(ctx context.Context, ids []int64) (map[int64]models.RatingStats, error) {
	if m.ratingStatsFn == nil {
		return map[int64]models.RatingStats{}, nil
	}
	return m.ratingStatsFn(ctx, ids)
}

func (m *statsRepoMock) FavoriteStationIDs(ctx context.Context, userID int64, ids []int64) (map[int64]bool, error) {
	if m.favoritesFn == nil {
		return map[int64]bool{}, nil
	}
	return m.favoritesFn(ctx, userID, ids)
}

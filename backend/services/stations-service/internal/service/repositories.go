package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"chargemap/backend/services/stations-service/internal/models"
)

// StationRepository persists stations. GetByID returns models.ErrStationNotFound
// for unknown ids. Update resolves available_ports with models.ResolvePorts while
// holding off concurrent session starts and stops; a nil availablePorts keeps the
// stored counter.
type StationRepository interface {
	ListActive(ctx context.Context) ([]models.Station, error)
	List(ctx context.Context, filter models.StationFilter) ([]models.Station, error)
	GetByID(ctx context.Context, id int64) (*models.Station, error)
	Create(ctx context.Context, station *models.Station) error
	Update(ctx context.Context, station *models.Station, availablePorts *int) error
	Delete(ctx context.Context, id int64) error
}

// StatsRepository answers the per-station enrichment queries in batches.
type StatsRepository interface {
	RatingStats(ctx context.Context, stationIDs []int64) (map[int64]models.RatingStats, error)
	FavoriteStationIDs(ctx context.Context, userID int64, stationIDs []int64) (map[int64]bool, error)
}

// SessionRepository owns the session ledger. StartSession and StopSession must
// apply the session change and the port counter change as one atomic unit.
type SessionRepository interface {
	StartSession(ctx context.Context, userID, stationID int64, startedAt time.Time) (*models.Session, error)
	StopSession(ctx context.Context, userID, stationID int64, energyKWh decimal.Decimal, endedAt time.Time) (*models.Session, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Session, error)
	GetByID(ctx context.Context, id int64) (*models.Session, error)
}

// ReviewRepository persists reviews. List with stationID 0 returns every review.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id int64) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, stationID int64) ([]models.Review, error)
}

// FavoriteRepository persists favorites.
type FavoriteRepository interface {
	Create(ctx context.Context, favorite *models.Favorite) error
	GetByID(ctx context.Context, id int64) (*models.Favorite, error)
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]models.Favorite, error)
}

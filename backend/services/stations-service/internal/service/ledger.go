package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"chargemap/backend/services/stations-service/internal/events"
	"chargemap/backend/services/stations-service/internal/metrics"
	"chargemap/backend/services/stations-service/internal/models"
	redisstore "chargemap/backend/services/stations-service/internal/redis"
)

// ActiveSessionCache keeps a fast copy of each user's running session. Get returns
// redisstore.ErrMiss when nothing is cached.
type ActiveSessionCache interface {
	Save(ctx context.Context, session models.Session) error
	Get(ctx context.Context, userID int64) (*models.Session, error)
	Delete(ctx context.Context, userID int64) error
}

// Ledger starts and stops charging sessions.
type Ledger struct {
	sessions    SessionRepository
	stations    StationRepository
	activeCache ActiveSessionCache
	metrics     *metrics.Metrics
	notifier    notifier
	logger      *zap.Logger
	now         func() time.Time
}

// NewLedger builds the ledger. activeCache and m may be nil.
func NewLedger(
	sessions SessionRepository,
	stations StationRepository,
	activeCache ActiveSessionCache,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Ledger {
	return &Ledger{
		sessions:    sessions,
		stations:    stations,
		activeCache: activeCache,
		metrics:     m,
		notifier:    notifier{publisher: publisher, metrics: m, logger: logger},
		logger:      logger,
		now:         time.Now,
	}
}

// StartSession opens a session for the user at the station and takes one port.
// On failure nothing is changed.
func (l *Ledger) StartSession(ctx context.Context, userID, stationID int64) (*models.Session, error) {
	session, err := l.sessions.StartSession(ctx, userID, stationID, l.now().UTC())
	if err != nil {
		l.countRejection(err)
		return nil, err
	}

	l.logger.Info("charging session started",
		zap.Int64("session_id", session.ID),
		zap.Int64("user_id", userID),
		zap.Int64("station_id", stationID),
	)
	if l.metrics != nil {
		l.metrics.SessionsStarted.Inc()
	}
	if l.activeCache != nil {
		if err := l.activeCache.Save(ctx, *session); err != nil {
			l.logger.Warn("failed to cache active session", zap.Error(err))
		}
	}
	l.notifier.publish(ctx, events.Event{
		Type:           events.SessionStarted,
		StationID:      stationID,
		UserID:         userID,
		SessionID:      session.ID,
		AvailablePorts: l.availablePorts(ctx, stationID),
	})
	return session, nil
}

// StopSession completes the user's active session at the station, records the
// delivered energy and its cost, and returns the port.
func (l *Ledger) StopSession(ctx context.Context, userID, stationID int64, energyKWh decimal.Decimal) (*models.Session, error) {
	if energyKWh.IsNegative() {
		return nil, models.ErrInvalidEnergy
	}

	session, err := l.sessions.StopSession(ctx, userID, stationID, energyKWh, l.now().UTC())
	if err != nil {
		return nil, err
	}

	l.logger.Info("charging session completed",
		zap.Int64("session_id", session.ID),
		zap.Int64("user_id", userID),
		zap.Int64("station_id", stationID),
		zap.String("energy_kwh", session.EnergyConsumed.String()),
		zap.String("total_cost", session.TotalCost.String()),
	)
	if l.metrics != nil {
		l.metrics.SessionsCompleted.Inc()
	}
	if l.activeCache != nil {
		if err := l.activeCache.Delete(ctx, userID); err != nil {
			l.logger.Warn("failed to delete active session cache", zap.Error(err))
		}
	}
	l.notifier.publish(ctx, events.Event{
		Type:           events.SessionCompleted,
		StationID:      stationID,
		UserID:         userID,
		SessionID:      session.ID,
		TotalCost:      session.TotalCost.StringFixed(2),
		AvailablePorts: l.availablePorts(ctx, stationID),
	})
	return session, nil
}

// ActiveSession returns the user's running session, preferring the cache.
func (l *Ledger) ActiveSession(ctx context.Context, userID int64) (*models.Session, error) {
	if l.activeCache != nil {
		cached, err := l.activeCache.Get(ctx, userID)
		switch {
		case err == nil:
			return cached, nil
		case !errors.Is(err, redisstore.ErrMiss):
			l.logger.Warn("active session cache lookup failed", zap.Error(err))
		}
	}

	sessions, err := l.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].Status == models.SessionStatusActive {
			if l.activeCache != nil {
				if err := l.activeCache.Save(ctx, sessions[i]); err != nil {
					l.logger.Warn("failed to cache active session", zap.Error(err))
				}
			}
			return &sessions[i], nil
		}
	}
	return nil, models.ErrNoActiveSession
}

// ListSessions returns the user's sessions newest first.
func (l *Ledger) ListSessions(ctx context.Context, userID int64) ([]models.Session, error) {
	return l.sessions.ListByUser(ctx, userID)
}

// GetSession returns one of the user's sessions. Other users' sessions are reported
// as missing.
func (l *Ledger) GetSession(ctx context.Context, userID, id int64) (*models.Session, error) {
	session, err := l.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, models.ErrNotFound
	}
	return session, nil
}

func (l *Ledger) availablePorts(ctx context.Context, stationID int64) *int {
	st, err := l.stations.GetByID(ctx, stationID)
	if err != nil {
		l.logger.Debug("station lookup for event failed", zap.Int64("station_id", stationID), zap.Error(err))
		return nil
	}
	ports := st.AvailablePorts
	return &ports
}

func (l *Ledger) countRejection(err error) {
	if l.metrics == nil {
		return
	}
	reason := "error"
	switch {
	case errors.Is(err, models.ErrSessionAlreadyActive):
		reason = "already_active"
	case errors.Is(err, models.ErrStationUnavailable):
		reason = "station_unavailable"
	case errors.Is(err, models.ErrStationNotFound):
		reason = "station_not_found"
	}
	l.metrics.StartRejections.WithLabelValues(reason).Inc()
}

package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"chargemap/backend/services/stations-service/internal/models"
)

// StartSession opens a session and takes one port from the station.
func (s SessionStore) StartSession(_ context.Context, userID, stationID int64, startedAt time.Time) (*models.Session, error) {
	unlockUser := s.userLocks.lock(userID)
	defer unlockUser()
	unlockStation := s.stationLocks.lock(stationID)
	defer unlockStation()

	s.mu.Lock()
	defer s.mu.Unlock()

	station, ok := s.stations[stationID]
	if !ok {
		return nil, models.ErrStationNotFound
	}
	if !station.IsAvailable() {
		return nil, models.ErrStationUnavailable
	}
	if _, ok := s.activeByUser[userID]; ok {
		return nil, models.ErrSessionAlreadyActive
	}

	s.nextSessionID++
	session := &models.Session{
		ID:             s.nextSessionID,
		UserID:         userID,
		StationID:      stationID,
		StationName:    station.Name,
		StartTime:      startedAt.UTC(),
		EnergyConsumed: decimal.Zero,
		TotalCost:      decimal.Zero,
		Status:         models.SessionStatusActive,
	}
	s.sessions[session.ID] = session
	s.activeByUser[userID] = session.ID
	station.AvailablePorts--
	station.UpdatedAt = s.now().UTC()

	out := cloneSession(session)
	return &out, nil
}

// StopSession completes the user's active session at the station and returns the port.
func (s SessionStore) StopSession(_ context.Context, userID, stationID int64, energyKWh decimal.Decimal, endedAt time.Time) (*models.Session, error) {
	unlockUser := s.userLocks.lock(userID)
	defer unlockUser()
	unlockStation := s.stationLocks.lock(stationID)
	defer unlockStation()

	s.mu.Lock()
	defer s.mu.Unlock()

	station, ok := s.stations[stationID]
	if !ok {
		return nil, models.ErrStationNotFound
	}
	sessionID, ok := s.activeByUser[userID]
	if !ok {
		return nil, models.ErrNoActiveSession
	}
	session := s.sessions[sessionID]
	if session == nil || session.StationID != stationID {
		return nil, models.ErrNoActiveSession
	}

	end := endedAt.UTC()
	energy := energyKWh.Round(2)
	session.Status = models.SessionStatusCompleted
	session.EndTime = &end
	session.EnergyConsumed = energy
	session.TotalCost = models.SessionCost(energy, station.PricePerKWh)
	delete(s.activeByUser, userID)

	if station.AvailablePorts < station.TotalPorts {
		station.AvailablePorts++
	}
	station.UpdatedAt = s.now().UTC()

	out := cloneSession(session)
	return &out, nil
}

// ListByUser returns the user's sessions newest first.
func (s SessionStore) ListByUser(_ context.Context, userID int64) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Session, 0)
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, s.withStationName(cloneSession(sess)))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

// GetByID returns a single session.
func (s SessionStore) GetByID(_ context.Context, id int64) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := s.withStationName(cloneSession(sess))
	return &out, nil
}

func (s *Store) withStationName(sess models.Session) models.Session {
	if st, ok := s.stations[sess.StationID]; ok {
		sess.StationName = st.Name
	}
	return sess
}

package memstore

import (
	"context"
	"sort"
	"strings"

	"chargemap/backend/services/stations-service/internal/models"
)

// ListActive returns stations with status active in id order.
func (s StationStore) ListActive(_ context.Context) ([]models.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Station, 0, len(s.stations))
	for _, st := range s.stations {
		if st.Status == models.StationStatusActive {
			out = append(out, cloneStation(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// List applies filter, search, ordering and paging.
func (s StationStore) List(_ context.Context, filter models.StationFilter) ([]models.Station, error) {
	s.mu.RLock()
	out := make([]models.Station, 0, len(s.stations))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, st := range s.stations {
		if filter.ChargingType != "" && st.ChargingType != filter.ChargingType {
			continue
		}
		if filter.Status != "" && st.Status != filter.Status {
			continue
		}
		if filter.PowerOutput > 0 && st.PowerOutput != filter.PowerOutput {
			continue
		}
		if search != "" && !matchesSearch(st, search) {
			continue
		}
		out = append(out, cloneStation(st))
	}
	s.mu.RUnlock()

	field, desc := filter.OrderBy()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		var cmp int
		switch field {
		case "name":
			cmp = strings.Compare(a.Name, b.Name)
		case "price_per_kwh":
			cmp = a.PricePerKWh.Cmp(b.PricePerKWh)
		default:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		}
		if cmp == 0 {
			cmp = compareIDs(a.ID, b.ID)
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})

	return page(out, filter.Limit, filter.Offset), nil
}

func matchesSearch(st *models.Station, needle string) bool {
	return strings.Contains(strings.ToLower(st.Name), needle) ||
		strings.Contains(strings.ToLower(st.Address), needle) ||
		strings.Contains(strings.ToLower(st.Description), needle)
}

func compareIDs(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// GetByID returns a copy of the station.
func (s StationStore) GetByID(_ context.Context, id int64) (*models.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stations[id]
	if !ok {
		return nil, models.ErrStationNotFound
	}
	out := cloneStation(st)
	return &out, nil
}

// Create assigns an id and timestamps.
func (s StationStore) Create(_ context.Context, station *models.Station) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextStationID++
	now := s.now().UTC()
	station.ID = s.nextStationID
	station.CreatedAt = now
	station.UpdatedAt = now
	if station.Amenities == nil {
		station.Amenities = []string{}
	}
	stored := cloneStation(station)
	s.stations[station.ID] = &stored
	return nil
}

// Update replaces the mutable fields of an existing station. A nil availablePorts
// keeps the stored counter. Runs under the station lock so it cannot interleave
// with a session start or stop.
func (s StationStore) Update(_ context.Context, station *models.Station, availablePorts *int) error {
	unlock := s.stationLocks.lock(station.ID)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.stations[station.ID]
	if !ok {
		return models.ErrStationNotFound
	}
	ports, err := models.ResolvePorts(station.TotalPorts, current.AvailablePorts, s.portsInUse(station.ID), availablePorts)
	if err != nil {
		return err
	}
	station.AvailablePorts = ports
	station.CreatedAt = current.CreatedAt
	station.UpdatedAt = s.now().UTC()
	if station.Amenities == nil {
		station.Amenities = []string{}
	}
	stored := cloneStation(station)
	s.stations[station.ID] = &stored
	return nil
}

// portsInUse counts active sessions at the station. Callers hold mu.
func (s *Store) portsInUse(stationID int64) int {
	n := 0
	for _, sid := range s.activeByUser {
		if sess := s.sessions[sid]; sess != nil && sess.StationID == stationID {
			n++
		}
	}
	return n
}

// Delete removes the station and cascades to its sessions, reviews and favorites.
func (s StationStore) Delete(_ context.Context, id int64) error {
	unlock := s.stationLocks.lock(id)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stations[id]; !ok {
		return models.ErrStationNotFound
	}
	delete(s.stations, id)
	for sid, sess := range s.sessions {
		if sess.StationID != id {
			continue
		}
		if active, ok := s.activeByUser[sess.UserID]; ok && active == sid {
			delete(s.activeByUser, sess.UserID)
		}
		delete(s.sessions, sid)
	}
	for rid, r := range s.reviews {
		if r.StationID == id {
			delete(s.reviews, rid)
		}
	}
	for fid, f := range s.favorites {
		if f.StationID == id {
			delete(s.favorites, fid)
		}
	}
	return nil
}

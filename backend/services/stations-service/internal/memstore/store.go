// Package memstore is an in-process implementation of the stations-service
// repositories, used for local runs and tests.
package memstore

import (
	"sync"
	"time"

	"chargemap/backend/services/stations-service/internal/models"
)

// keyedLocks hands out one mutex per id.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[int64]*sync.Mutex)}
}

func (k *keyedLocks) lock(id int64) func() {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Store keeps all records in maps. The mu lock only guards map access; ledger
// operations are serialized per user and per station through keyed locks,
// always acquired user first.
type Store struct {
	mu sync.RWMutex

	stations  map[int64]*models.Station
	sessions  map[int64]*models.Session
	reviews   map[int64]*models.Review
	favorites map[int64]*models.Favorite
	// user id -> active session id
	activeByUser map[int64]int64

	nextStationID  int64
	nextSessionID  int64
	nextReviewID   int64
	nextFavoriteID int64

	stationLocks *keyedLocks
	userLocks    *keyedLocks

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		stations:     make(map[int64]*models.Station),
		sessions:     make(map[int64]*models.Session),
		reviews:      make(map[int64]*models.Review),
		favorites:    make(map[int64]*models.Favorite),
		activeByUser: make(map[int64]int64),
		stationLocks: newKeyedLocks(),
		userLocks:    newKeyedLocks(),
		now:          time.Now,
	}
}

func cloneStation(s *models.Station) models.Station {
	out := *s
	if s.Amenities != nil {
		out.Amenities = append([]string(nil), s.Amenities...)
	}
	return out
}

func cloneSession(s *models.Session) models.Session {
	out := *s
	if s.EndTime != nil {
		end := *s.EndTime
		out.EndTime = &end
	}
	return out
}

// StationStore exposes the station repository view of a Store.
type StationStore struct{ *Store }

// SessionStore exposes the session ledger view of a Store.
type SessionStore struct{ *Store }

// ReviewStore exposes the review repository view of a Store.
type ReviewStore struct{ *Store }

// FavoriteStore exposes the favorite repository view of a Store.
type FavoriteStore struct{ *Store }

// Stations returns the station repository.
func (s *Store) Stations() StationStore { return StationStore{s} }

// Sessions returns the session ledger repository.
func (s *Store) Sessions() SessionStore { return SessionStore{s} }

// Reviews returns the review repository.
func (s *Store) Reviews() ReviewStore { return ReviewStore{s} }

// Favorites returns the favorite repository.
func (s *Store) Favorites() FavoriteStore { return FavoriteStore{s} }

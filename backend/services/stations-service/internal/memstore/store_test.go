package memstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargemap/backend/services/stations-service/internal/models"
)

func newStation(t *testing.T, store *Store, total, available int) *models.Station {
	t.Helper()
	st := &models.Station{
		Name:           "Downtown Hub",
		Address:        "1 Main St",
		Latitude:       decimal.RequireFromString("40.712800"),
		Longitude:      decimal.RequireFromString("-74.006000"),
		ChargingType:   models.ChargingTypeFast,
		PowerOutput:    50,
		PricePerKWh:    decimal.RequireFromString("0.35"),
		Status:         models.StationStatusActive,
		TotalPorts:     total,
		AvailablePorts: available,
	}
	require.NoError(t, store.Stations().Create(context.Background(), st))
	return st
}

func availablePorts(t *testing.T, store *Store, id int64) int {
	t.Helper()
	st, err := store.Stations().GetByID(context.Background(), id)
	require.NoError(t, err)
	return st.AvailablePorts
}

func TestStartAndStopSession(t *testing.T) {
	ctx := context.Background()
	store := New()
	st := newStation(t, store, 4, 2)
	ledger := store.Sessions()

	sess, err := ledger.StartSession(ctx, 1, st.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusActive, sess.Status)
	assert.True(t, sess.EnergyConsumed.IsZero())
	assert.Nil(t, sess.EndTime)
	assert.Equal(t, 1, availablePorts(t, store, st.ID))

	_, err = ledger.StartSession(ctx, 1, st.ID, time.Now())
	require.ErrorIs(t, err, models.ErrSessionAlreadyActive)
	assert.Equal(t, 1, availablePorts(t, store, st.ID))

	done, err := ledger.StopSession(ctx, 1, st.ID, decimal.RequireFromString("12.5"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, done.Status)
	require.NotNil(t, done.EndTime)
	assert.Equal(t, "4.38", done.TotalCost.StringFixed(2))
	assert.Equal(t, 2, availablePorts(t, store, st.ID))

	_, err = ledger.StopSession(ctx, 1, st.ID, decimal.Zero, time.Now())
	require.ErrorIs(t, err, models.ErrNoActiveSession)
	assert.Equal(t, 2, availablePorts(t, store, st.ID))
}

func TestStartSessionRejectsUnavailableStations(t *testing.T) {
	ctx := context.Background()
	store := New()
	full := newStation(t, store, 2, 0)
	maintenance := newStation(t, store, 2, 2)
	maintenance.Status = models.StationStatusMaintenance
	require.NoError(t, store.Stations().Update(ctx, maintenance, nil))

	_, err := store.Sessions().StartSession(ctx, 1, full.ID, time.Now())
	require.ErrorIs(t, err, models.ErrStationUnavailable)

	_, err = store.Sessions().StartSession(ctx, 1, maintenance.ID, time.Now())
	require.ErrorIs(t, err, models.ErrStationUnavailable)
	assert.Equal(t, 2, availablePorts(t, store, maintenance.ID))

	_, err = store.Sessions().StartSession(ctx, 1, 999, time.Now())
	require.ErrorIs(t, err, models.ErrStationNotFound)
}

func TestStartSessionChecksStationBeforeActiveSession(t *testing.T) {
	ctx := context.Background()
	store := New()
	open := newStation(t, store, 2, 2)
	full := newStation(t, store, 2, 0)

	_, err := store.Sessions().StartSession(ctx, 1, open.ID, time.Now())
	require.NoError(t, err)

	_, err = store.Sessions().StartSession(ctx, 1, full.ID, time.Now())
	require.ErrorIs(t, err, models.ErrStationUnavailable)

	_, err = store.Sessions().StartSession(ctx, 1, open.ID, time.Now())
	require.ErrorIs(t, err, models.ErrSessionAlreadyActive)
	assert.Equal(t, 1, availablePorts(t, store, open.ID))
}

func TestStopSessionAtOtherStation(t *testing.T) {
	ctx := context.Background()
	store := New()
	a := newStation(t, store, 2, 2)
	b := newStation(t, store, 2, 2)

	_, err := store.Sessions().StartSession(ctx, 1, a.ID, time.Now())
	require.NoError(t, err)

	_, err = store.Sessions().StopSession(ctx, 1, b.ID, decimal.Zero, time.Now())
	require.ErrorIs(t, err, models.ErrNoActiveSession)
	assert.Equal(t, 2, availablePorts(t, store, b.ID))
	assert.Equal(t, 1, availablePorts(t, store, a.ID))
}

func TestUpdateStationKeepsPortsHeldBySessions(t *testing.T) {
	ctx := context.Background()
	store := New()
	st := newStation(t, store, 4, 1)

	_, err := store.Sessions().StartSession(ctx, 2, st.ID, time.Now())
	require.NoError(t, err)

	current, err := store.Stations().GetByID(ctx, st.ID)
	require.NoError(t, err)
	current.Name = "Renamed"
	require.NoError(t, store.Stations().Update(ctx, current, nil))
	assert.Equal(t, 0, current.AvailablePorts)
	assert.Equal(t, 0, availablePorts(t, store, st.ID))

	four := 4
	err = store.Stations().Update(ctx, current, &four)
	require.ErrorIs(t, err, models.ErrInvalidStation)
	assert.Equal(t, 0, availablePorts(t, store, st.ID))

	three := 3
	require.NoError(t, store.Stations().Update(ctx, current, &three))
	for user := int64(3); user <= 5; user++ {
		_, err := store.Sessions().StartSession(ctx, user, st.ID, time.Now())
		require.NoError(t, err)
	}
	_, err = store.Sessions().StartSession(ctx, 6, st.ID, time.Now())
	require.ErrorIs(t, err, models.ErrStationUnavailable)

	current.TotalPorts = 3
	err = store.Stations().Update(ctx, current, nil)
	require.ErrorIs(t, err, models.ErrInvalidStation)
}

func TestStopSessionNeverExceedsTotalPorts(t *testing.T) {
	ctx := context.Background()
	store := New()
	st := newStation(t, store, 2, 2)

	_, err := store.Sessions().StartSession(ctx, 1, st.ID, time.Now())
	require.NoError(t, err)

	// shrink the station to the port the session holds
	current, err := store.Stations().GetByID(ctx, st.ID)
	require.NoError(t, err)
	current.TotalPorts = 1
	require.NoError(t, store.Stations().Update(ctx, current, nil))
	assert.Equal(t, 0, availablePorts(t, store, st.ID))

	_, err = store.Sessions().StopSession(ctx, 1, st.ID, decimal.Zero, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, availablePorts(t, store, st.ID))
}

func TestLastPortGoesToOneUser(t *testing.T) {
	ctx := context.Background()
	store := New()
	st := newStation(t, store, 3, 1)

	const users = 32
	var (
		wg          sync.WaitGroup
		started     atomic.Int32
		unavailable atomic.Int32
	)
	for u := int64(1); u <= users; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := store.Sessions().StartSession(ctx, userID, st.ID, time.Now())
			switch {
			case err == nil:
				started.Add(1)
			case assert.ErrorIs(t, err, models.ErrStationUnavailable):
				unavailable.Add(1)
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, int32(1), started.Load())
	assert.Equal(t, int32(users-1), unavailable.Load())
	assert.Equal(t, 0, availablePorts(t, store, st.ID))
}

func TestOneActiveSessionPerUserUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	store := New()

	stations := make([]*models.Station, 8)
	for i := range stations {
		stations[i] = newStation(t, store, 4, 4)
	}

	var (
		wg      sync.WaitGroup
		started atomic.Int32
	)
	for _, st := range stations {
		wg.Add(1)
		go func(stationID int64) {
			defer wg.Done()
			if _, err := store.Sessions().StartSession(ctx, 7, stationID, time.Now()); err == nil {
				started.Add(1)
			}
		}(st.ID)
	}
	wg.Wait()

	assert.Equal(t, int32(1), started.Load())
	total := 0
	for _, st := range stations {
		total += availablePorts(t, store, st.ID)
	}
	assert.Equal(t, len(stations)*4-1, total)
}

func TestListSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := New()
	st := newStation(t, store, 2, 2)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := store.Sessions().StartSession(ctx, 1, st.ID, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		_, err = store.Sessions().StopSession(ctx, 1, st.ID, decimal.NewFromInt(1), base.Add(time.Duration(i)*time.Hour+time.Minute))
		require.NoError(t, err)
	}
	_, err := store.Sessions().StartSession(ctx, 2, st.ID, base)
	require.NoError(t, err)

	sessions, err := store.Sessions().ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.True(t, sessions[0].StartTime.After(sessions[1].StartTime))
	assert.True(t, sessions[1].StartTime.After(sessions[2].StartTime))
	assert.Equal(t, "Downtown Hub", sessions[0].StationName)

	_, err = store.Sessions().GetByID(ctx, 999)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestReviewsAndFavoritesAreUniquePerPair(t *testing.T) {
	ctx := context.Background()
	store := New()
	st := newStation(t, store, 1, 1)

	require.NoError(t, store.Reviews().Create(ctx, &models.Review{UserID: 1, StationID: st.ID, Rating: 5}))
	err := store.Reviews().Create(ctx, &models.Review{UserID: 1, StationID: st.ID, Rating: 3})
	require.ErrorIs(t, err, models.ErrDuplicateEntry)
	require.NoError(t, store.Reviews().Create(ctx, &models.Review{UserID: 2, StationID: st.ID, Rating: 2}))

	require.NoError(t, store.Favorites().Create(ctx, &models.Favorite{UserID: 1, StationID: st.ID}))
	err = store.Favorites().Create(ctx, &models.Favorite{UserID: 1, StationID: st.ID})
	require.ErrorIs(t, err, models.ErrDuplicateEntry)

	err = store.Favorites().Create(ctx, &models.Favorite{UserID: 1, StationID: 404})
	require.ErrorIs(t, err, models.ErrStationNotFound)

	stats, err := store.RatingStats(ctx, []int64{st.ID, 404})
	require.NoError(t, err)
	assert.Equal(t, 2, stats[st.ID].Count)
	assert.InDelta(t, 3.5, stats[st.ID].Average, 1e-9)
	_, ok := stats[404]
	assert.False(t, ok)

	favs, err := store.FavoriteStationIDs(ctx, 1, []int64{st.ID})
	require.NoError(t, err)
	assert.True(t, favs[st.ID])
	favs, err = store.FavoriteStationIDs(ctx, 2, []int64{st.ID})
	require.NoError(t, err)
	assert.False(t, favs[st.ID])
}

func TestListStationsFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	store := New()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	mk := func(name, chargingType, price, desc string) {
		st := &models.Station{
			Name: name, Address: "addr", ChargingType: chargingType, PowerOutput: 50,
			PricePerKWh: decimal.RequireFromString(price), Status: models.StationStatusActive,
			TotalPorts: 1, AvailablePorts: 1, Description: desc,
		}
		require.NoError(t, store.Stations().Create(ctx, st))
	}
	mk("Bravo", models.ChargingTypeFast, "0.40", "")
	mk("Alpha", models.ChargingTypeSlow, "0.20", "near the mall")
	mk("Charlie", models.ChargingTypeFast, "0.30", "")

	names := func(list []models.Station) []string {
		out := make([]string, 0, len(list))
		for _, s := range list {
			out = append(out, s.Name)
		}
		return out
	}

	all, err := store.Stations().List(ctx, models.StationFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Charlie", "Alpha", "Bravo"}, names(all))

	byName, err := store.Stations().List(ctx, models.StationFilter{Ordering: "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, names(byName))

	byPrice, err := store.Stations().List(ctx, models.StationFilter{Ordering: "-price_per_kwh", ChargingType: models.ChargingTypeFast})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bravo", "Charlie"}, names(byPrice))

	searched, err := store.Stations().List(ctx, models.StationFilter{Search: "MALL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha"}, names(searched))

	paged, err := store.Stations().List(ctx, models.StationFilter{Ordering: "name", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bravo"}, names(paged))

	empty, err := store.Stations().List(ctx, models.StationFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteStationCascades(t *testing.T) {
	ctx := context.Background()
	store := New()
	st := newStation(t, store, 2, 2)

	_, err := store.Sessions().StartSession(ctx, 1, st.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Reviews().Create(ctx, &models.Review{UserID: 1, StationID: st.ID, Rating: 4}))

	require.NoError(t, store.Stations().Delete(ctx, st.ID))
	require.ErrorIs(t, store.Stations().Delete(ctx, st.ID), models.ErrStationNotFound)

	reviews, err := store.Reviews().List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	other := newStation(t, store, 1, 1)
	_, err = store.Sessions().StartSession(ctx, 1, other.ID, time.Now())
	require.NoError(t, err)
}

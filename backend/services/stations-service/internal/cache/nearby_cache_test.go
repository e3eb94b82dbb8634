package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargemap/backend/services/stations-service/internal/events"
	"chargemap/backend/services/stations-service/internal/geo"
	"chargemap/backend/services/stations-service/internal/models"
)

func TestNearbyCacheGetPut(t *testing.T) {
	c, err := NewNearbyCache(4, time.Minute)
	require.NoError(t, err)

	q := geo.Query{Latitude: 40.7128, Longitude: -74.006, RadiusKm: 10}
	_, ok := c.Get(q)
	assert.False(t, ok)

	require.True(t, c.Put(q, []geo.Hit[models.Station]{{Item: models.Station{ID: 1}, Distance: 0.5}}, c.Generation()))
	hits, ok := c.Get(q)
	require.True(t, ok)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].Item.ID)

	_, ok = c.Get(geo.Query{Latitude: 40.7128, Longitude: -74.006, RadiusKm: 5})
	assert.False(t, ok)
}

func TestNearbyCacheExpiresAndPurges(t *testing.T) {
	c, err := NewNearbyCache(4, time.Minute)
	require.NoError(t, err)
	now := time.Now()
	c.now = func() time.Time { return now }

	q := geo.Query{Latitude: 1, Longitude: 2, RadiusKm: 3}
	c.Put(q, nil, c.Generation())
	_, ok := c.Get(q)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(q)
	assert.False(t, ok)

	c.Put(q, nil, c.Generation())
	c.Purge()
	_, ok = c.Get(q)
	assert.False(t, ok)
}

func TestNearbyCachePurgesOnAvailabilityEvents(t *testing.T) {
	c, err := NewNearbyCache(4, time.Minute)
	require.NoError(t, err)
	q := geo.Query{Latitude: 1, Longitude: 2, RadiusKm: 3}

	c.Put(q, nil, c.Generation())
	require.NoError(t, c.Publish(context.Background(), events.Event{Type: events.ReviewCreated}))
	_, ok := c.Get(q)
	assert.True(t, ok)

	require.NoError(t, c.Publish(context.Background(), events.Event{Type: events.SessionStarted}))
	_, ok = c.Get(q)
	assert.False(t, ok)
}

func TestNearbyCacheSkipsResultsComputedBeforePurge(t *testing.T) {
	c, err := NewNearbyCache(4, time.Minute)
	require.NoError(t, err)
	q := geo.Query{Latitude: 1, Longitude: 2, RadiusKm: 3}

	generation := c.Generation()
	stale := []geo.Hit[models.Station]{{Item: models.Station{ID: 1, Status: models.StationStatusActive}}}
	require.NoError(t, c.Publish(context.Background(), events.Event{Type: events.StationUpdated, StationID: 1}))

	assert.False(t, c.Put(q, stale, generation))
	_, ok := c.Get(q)
	assert.False(t, ok)

	assert.True(t, c.Put(q, nil, c.Generation()))
	_, ok = c.Get(q)
	assert.True(t, ok)
}

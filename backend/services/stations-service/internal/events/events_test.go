package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiDeliversToAllAndJoinsErrors(t *testing.T) {
	var got []string
	boom := errors.New("boom")

	m := Multi{
		PublisherFunc(func(_ context.Context, e Event) error {
			got = append(got, "first:"+e.Type)
			return boom
		}),
		nil,
		Noop{},
		PublisherFunc(func(_ context.Context, e Event) error {
			got = append(got, "second:"+e.Type)
			return nil
		}),
	}

	err := m.Publish(context.Background(), Event{Type: SessionStarted})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first:session.started", "second:session.started"}, got)

	require.NoError(t, Multi{}.Publish(context.Background(), Event{}))
}

func TestChangesAvailability(t *testing.T) {
	assert.True(t, Event{Type: SessionStarted}.ChangesAvailability())
	assert.True(t, Event{Type: StationDeleted}.ChangesAvailability())
	assert.False(t, Event{Type: ReviewCreated}.ChangesAvailability())
	assert.False(t, Event{Type: FavoriteCreated}.ChangesAvailability())
}

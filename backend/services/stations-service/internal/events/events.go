// Package events publishes domain events about stations, sessions and reviews.
package events

import (
	"context"
	"errors"
	"time"
)

// Event types, also used as AMQP routing keys.
const (
	SessionStarted   = "session.started"
	SessionCompleted = "session.completed"
	ReviewCreated    = "review.created"
	FavoriteCreated  = "favorite.created"
	StationCreated   = "station.created"
	StationUpdated   = "station.updated"
	StationDeleted   = "station.deleted"
)

// Event is the payload published for every state change.
type Event struct {
	Type           string    `json:"type"`
	StationID      int64     `json:"station_id"`
	UserID         int64     `json:"user_id,omitempty"`
	SessionID      int64     `json:"session_id,omitempty"`
	ReviewID       int64     `json:"review_id,omitempty"`
	Rating         int       `json:"rating,omitempty"`
	AvailablePorts *int      `json:"available_ports,omitempty"`
	TotalCost      string    `json:"total_cost,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ChangesAvailability reports whether the event can alter station listings.
func (e Event) ChangesAvailability() bool {
	switch e.Type {
	case SessionStarted, SessionCompleted, StationCreated, StationUpdated, StationDeleted:
		return true
	}
	return false
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event Event) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

// Publish delivers to all publishers even if some fail.
func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop discards events.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, Event) error { return nil }

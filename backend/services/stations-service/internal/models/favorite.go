package models

import "time"

// Favorite marks a station as a user's favorite. One per (user, station).
type Favorite struct {
	ID             int64        `db:"id" json:"id"`
	UserID         int64        `db:"user_id" json:"user"`
	StationID      int64        `db:"station_id" json:"station"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	StationDetails *StationView `db:"-" json:"station_details,omitempty"`
}

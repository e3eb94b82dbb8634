package models

import "time"

// Review is a user's rating of a station. One per (user, station).
type Review struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user"`
	UserName    string    `db:"user_name" json:"user_name"`
	StationID   int64     `db:"station_id" json:"station"`
	StationName string    `db:"station_name" json:"station_name"`
	Rating      int       `db:"rating" json:"rating"`
	Comment     string    `db:"comment" json:"comment"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ValidateRating checks the 1..5 range.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Charging types.
const (
	ChargingTypeSlow  = "slow"
	ChargingTypeFast  = "fast"
	ChargingTypeSuper = "super"
)

// Station statuses.
const (
	StationStatusActive      = "active"
	StationStatusMaintenance = "maintenance"
	StationStatusInactive    = "inactive"
)

// Station is a charging station record.
type Station struct {
	ID             int64           `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Address        string          `db:"address" json:"address"`
	Latitude       decimal.Decimal `db:"latitude" json:"latitude"`
	Longitude      decimal.Decimal `db:"longitude" json:"longitude"`
	ChargingType   string          `db:"charging_type" json:"charging_type"`
	PowerOutput    int             `db:"power_output" json:"power_output"`
	PricePerKWh    decimal.Decimal `db:"price_per_kwh" json:"price_per_kwh"`
	Status         string          `db:"status" json:"status"`
	TotalPorts     int             `db:"total_ports" json:"total_ports"`
	AvailablePorts int             `db:"available_ports" json:"available_ports"`
	Description    string          `db:"description" json:"description"`
	Amenities      []string        `db:"amenities" json:"amenities"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// IsAvailable reports whether a new session may start at the station.
func (s *Station) IsAvailable() bool {
	return s.AvailablePorts > 0 && s.Status == StationStatusActive
}

// Coordinates returns latitude and longitude as floats.
func (s *Station) Coordinates() (float64, float64) {
	return s.Latitude.InexactFloat64(), s.Longitude.InexactFloat64()
}

// Validate checks the fields an administrator may set on a new station.
func (s *Station) Validate() error {
	if err := s.ValidateFields(); err != nil {
		return err
	}
	if s.AvailablePorts < 0 || s.AvailablePorts > s.TotalPorts {
		return NewValidationError(ErrInvalidStation, "available_ports must be between 0 and total_ports")
	}
	return nil
}

// ValidateFields checks everything except available_ports, which on edits is
// resolved against the ports held by active sessions.
func (s *Station) ValidateFields() error {
	switch {
	case s.Name == "":
		return NewValidationError(ErrInvalidStation, "name is required")
	case s.Address == "":
		return NewValidationError(ErrInvalidStation, "address is required")
	case s.Latitude.LessThan(decimal.NewFromInt(-90)) || s.Latitude.GreaterThan(decimal.NewFromInt(90)):
		return NewValidationError(ErrInvalidStation, "latitude must be between -90 and 90")
	case s.Longitude.LessThan(decimal.NewFromInt(-180)) || s.Longitude.GreaterThan(decimal.NewFromInt(180)):
		return NewValidationError(ErrInvalidStation, "longitude must be between -180 and 180")
	case !validChargingType(s.ChargingType):
		return NewValidationError(ErrInvalidStation, "charging_type must be one of slow, fast, super")
	case !validStationStatus(s.Status):
		return NewValidationError(ErrInvalidStation, "status must be one of active, maintenance, inactive")
	case s.PowerOutput <= 0:
		return NewValidationError(ErrInvalidStation, "power_output must be positive")
	case s.PricePerKWh.IsNegative():
		return NewValidationError(ErrInvalidStation, "price_per_kwh must not be negative")
	case s.TotalPorts < 1:
		return NewValidationError(ErrInvalidStation, "total_ports must be at least 1")
	}
	return nil
}

// ResolvePorts returns the available_ports left after an edit of a station with
// total ports, current free ports and inUse ports held by active sessions. A nil
// requested keeps current, capped to what the new total leaves free.
func ResolvePorts(total, current, inUse int, requested *int) (int, error) {
	free := total - inUse
	if free < 0 {
		return 0, NewValidationError(ErrInvalidStation,
			fmt.Sprintf("total_ports must be at least %d while sessions are active", inUse))
	}
	if requested == nil {
		return max(0, min(current, free)), nil
	}
	if *requested < 0 || *requested > free {
		return 0, NewValidationError(ErrInvalidStation,
			fmt.Sprintf("available_ports must be between 0 and %d", free))
	}
	return *requested, nil
}

func validChargingType(v string) bool {
	switch v {
	case ChargingTypeSlow, ChargingTypeFast, ChargingTypeSuper:
		return true
	}
	return false
}

func validStationStatus(v string) bool {
	switch v {
	case StationStatusActive, StationStatusMaintenance, StationStatusInactive:
		return true
	}
	return false
}

// StationFilter narrows station listings.
type StationFilter struct {
	ChargingType string
	Status       string
	PowerOutput  int
	Search       string
	Ordering     string
	Limit        int
	Offset       int
}

// RatingStats aggregates reviews of one station.
type RatingStats struct {
	StationID int64   `db:"station_id"`
	Average   float64 `db:"average"`
	Count     int     `db:"total"`
}

// StationView is a station enriched with review statistics and the caller's favorite flag.
type StationView struct {
	Station
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
	IsFavorite    bool    `json:"is_favorite"`
}

// NearbyStation is a station view with its distance from the query point in km.
type NearbyStation struct {
	StationView
	Distance float64 `json:"distance"`
}

var orderingFields = map[string]bool{
	"name":          true,
	"price_per_kwh": true,
	"created_at":    true,
}

// OrderBy resolves the requested sort field and direction. Unknown fields fall
// back to newest first.
func (f StationFilter) OrderBy() (field string, desc bool) {
	raw := f.Ordering
	if len(raw) > 0 && raw[0] == '-' {
		desc = true
		raw = raw[1:]
	}
	if !orderingFields[raw] {
		return "created_at", true
	}
	return raw, desc
}

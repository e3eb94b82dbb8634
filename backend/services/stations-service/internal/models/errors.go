package models

import "errors"

var (
	// ErrInvalidQuery is returned for out-of-range coordinates or radius.
	ErrInvalidQuery = errors.New("stations: invalid query")
	// ErrStationUnavailable means the station is not active or has no free port.
	ErrStationUnavailable = errors.New("stations: station is not available")
	// ErrSessionAlreadyActive means the user already charges somewhere.
	ErrSessionAlreadyActive = errors.New("sessions: you already have an active charging session")
	// ErrNoActiveSession means there is nothing to stop for the user at the station.
	ErrNoActiveSession = errors.New("sessions: no active charging session found")
	// ErrDuplicateEntry is returned when a (user, station) pair already exists.
	ErrDuplicateEntry = errors.New("registry: duplicate entry")
	// ErrInternalQuery wraps storage failures surfaced by read paths.
	ErrInternalQuery = errors.New("stations: internal query error")

	ErrStationNotFound = errors.New("stations: station not found")
	ErrNotFound        = errors.New("stations: not found")
	ErrForbidden       = errors.New("stations: forbidden")
	ErrInvalidRating   = errors.New("registry: rating must be between 1 and 5")
	ErrInvalidStation  = errors.New("stations: invalid station")
	ErrInvalidEnergy   = errors.New("sessions: energy_kwh must not be negative")
)

// ValidationError carries a client-facing message while still matching its
// sentinel kind through errors.Is.
type ValidationError struct {
	Kind    error
	Message string
}

// NewValidationError builds a validation error of the given kind.
func NewValidationError(kind error, message string) *ValidationError {
	return &ValidationError{Kind: kind, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"

	libdb "chargemap/backend/libs/db"
	"chargemap/backend/services/stations-service/internal/models"
)

const (
	oneActivePerUserIndex  = "charging_sessions_one_active_per_user"
	reviewUniqueConstraint = "reviews_user_station_key"
	favoriteUniqueKey      = "favorite_stations_user_station_key"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func mapStationError(err error) error {
	if err != nil && libdb.IsCheckViolation(err) {
		return models.NewValidationError(models.ErrInvalidStation, "station violates a database constraint")
	}
	return err
}

// mapRegistryError translates constraint violations raised by reviews and favorites.
func mapRegistryError(err error, uniqueConstraint string) error {
	switch {
	case err == nil:
		return nil
	case libdb.IsUniqueViolation(err, uniqueConstraint):
		return models.ErrDuplicateEntry
	case libdb.IsForeignKeyViolation(err):
		return models.ErrStationNotFound
	case libdb.IsCheckViolation(err):
		return models.ErrInvalidRating
	}
	return err
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session statuses.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

// Session represents a charging session.
type Session struct {
	ID             int64           `db:"id" json:"id"`
	UserID         int64           `db:"user_id" json:"user"`
	StationID      int64           `db:"station_id" json:"station"`
	StationName    string          `db:"station_name" json:"station_name"`
	StartTime      time.Time       `db:"start_time" json:"start_time"`
	EndTime        *time.Time      `db:"end_time" json:"end_time"`
	EnergyConsumed decimal.Decimal `db:"energy_consumed" json:"energy_consumed"`
	TotalCost      decimal.Decimal `db:"total_cost" json:"total_cost"`
	Status         string          `db:"status" json:"status"`
}

// SessionCost prices the delivered energy, rounded to cents.
func SessionCost(energyKWh, pricePerKWh decimal.Decimal) decimal.Decimal {
	return energyKWh.Mul(pricePerKWh).Round(2)
}

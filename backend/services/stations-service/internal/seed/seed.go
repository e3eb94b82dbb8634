// Package seed loads the sample users, station fleet and reviews used for demos and
// local development.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"chargemap/backend/services/stations-service/internal/models"
)

// StationStore is the subset of the station repository the seeder needs.
type StationStore interface {
	List(ctx context.Context, filter models.StationFilter) ([]models.Station, error)
	Create(ctx context.Context, station *models.Station) error
}

// ReviewStore is the subset of the review repository the seeder needs.
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
}

// Stores groups the targets of a seed run. A nil Users skips sample accounts and
// reviews.
type Stores struct {
	Stations StationStore
	Reviews  ReviewStore
	Users    UserStore
}

// Result counts what a run created.
type Result struct {
	Users    int
	Stations int
	Reviews  int
}

type sample struct {
	name, address, lat, lng, chargingType string
	power                                 int
	price                                 string
	total, available                      int
	description                           string
	amenities                             []string
}

var fleet = []sample{
	{"Downtown EV Station", "123 Main St, Downtown, CA 90210", "37.7749", "-122.4194", models.ChargingTypeFast, 50, "0.35", 4, 2,
		"Convenient downtown location with fast charging capabilities.", []string{"Restrooms", "Coffee Shop", "WiFi"}},
	{"Mall Parking Garage", "456 Shopping Ave, Mall District, CA 90211", "37.7849", "-122.4094", models.ChargingTypeSuper, 150, "0.45", 2, 1,
		"High-speed charging in mall parking garage.", []string{"Shopping", "Food Court", "Security"}},
	{"Highway Rest Stop", "789 Freeway Exit, Highway 101, CA 90212", "37.7949", "-122.3994", models.ChargingTypeSuper, 200, "0.50", 6, 4,
		"Convenient highway rest stop with multiple charging ports.", []string{"Restrooms", "Vending Machines", "24/7 Access"}},
	{"University Campus", "321 College Blvd, University District, CA 90213", "37.8049", "-122.3894", models.ChargingTypeSlow, 7, "0.25", 8, 6,
		"Affordable slow charging for students and staff.", []string{"Library", "Cafeteria", "Student Center"}},
	{"Office Complex", "654 Business Park Dr, Tech District, CA 90214", "37.8149", "-122.3794", models.ChargingTypeFast, 75, "0.40", 3, 1,
		"Fast charging for office workers and visitors.", []string{"Office Buildings", "Café", "Meeting Rooms"}},
	{"Residential Complex", "987 Home St, Residential Area, CA 90215", "37.8249", "-122.3694", models.ChargingTypeSlow, 11, "0.30", 5, 3,
		"Overnight charging for residents.", []string{"Residential", "Parking", "Security"}},
	{"Shopping Center", "147 Retail Blvd, Shopping District, CA 90216", "37.8349", "-122.3594", models.ChargingTypeFast, 60, "0.38", 4, 2,
		"Charge while you shop at the retail center.", []string{"Shopping", "Restaurants", "Entertainment"}},
	{"Airport Parking", "258 Airport Rd, Airport District, CA 90217", "37.8449", "-122.3494", models.ChargingTypeSuper, 180, "0.55", 8, 5,
		"High-speed charging for airport travelers.", []string{"Airport", "Parking", "Shuttle Service"}},
}

// Stations returns the sample fleet as fresh station values.
func Stations() []models.Station {
	out := make([]models.Station, 0, len(fleet))
	for _, s := range fleet {
		out = append(out, models.Station{
			Name:           s.name,
			Address:        s.address,
			Latitude:       decimal.RequireFromString(s.lat),
			Longitude:      decimal.RequireFromString(s.lng),
			ChargingType:   s.chargingType,
			PowerOutput:    s.power,
			PricePerKWh:    decimal.RequireFromString(s.price),
			Status:         models.StationStatusActive,
			TotalPorts:     s.total,
			AvailablePorts: s.available,
			Description:    s.description,
			Amenities:      append([]string(nil), s.amenities...),
		})
	}
	return out
}

var reviewTexts = []string{
	"Great location and fast charging!",
	"Convenient spot, but a bit expensive.",
	"Perfect for my daily commute.",
	"Clean and well-maintained station.",
	"Staff is very helpful and friendly.",
	"Good value for money.",
	"Always available when I need it.",
	"Modern equipment and easy to use.",
	"Safe location with good lighting.",
	"Excellent service and fast charging.",
}

// Run creates the sample accounts, every sample station whose name is not taken yet,
// and 2 to 4 reviews for each station it created. Running it twice is harmless.
func Run(ctx context.Context, stores Stores, logger *zap.Logger) (Result, error) {
	var res Result

	var users []User
	if stores.Users != nil {
		for _, u := range Users() {
			created, err := stores.Users.EnsureUser(ctx, &u)
			if err != nil {
				return res, fmt.Errorf("seed: user %s: %w", u.Username, err)
			}
			if created {
				res.Users++
				logger.Info("created user", zap.String("username", u.Username), zap.Int64("user_id", u.ID))
			}
			users = append(users, u)
		}
	}

	existing, err := stores.Stations.List(ctx, models.StationFilter{})
	if err != nil {
		return res, fmt.Errorf("seed: list stations: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, st := range existing {
		taken[st.Name] = true
	}

	for i, st := range Stations() {
		if taken[st.Name] {
			continue
		}
		if err := st.Validate(); err != nil {
			return res, fmt.Errorf("seed: %s: %w", st.Name, err)
		}
		if err := stores.Stations.Create(ctx, &st); err != nil {
			return res, fmt.Errorf("seed: create %s: %w", st.Name, err)
		}
		res.Stations++
		logger.Info("created station", zap.String("name", st.Name), zap.Int64("station_id", st.ID))

		if stores.Reviews == nil || len(users) == 0 {
			continue
		}
		n, err := reviewStation(ctx, stores.Reviews, st, i, users)
		res.Reviews += n
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// reviewStation adds 2 + i%3 reviews from distinct users, with ratings 3..5.
func reviewStation(ctx context.Context, store ReviewStore, st models.Station, i int, users []User) (int, error) {
	count := min(2+i%3, len(users))
	created := 0
	for k := range count {
		u := users[(i+k)%len(users)]
		review := models.Review{
			UserID:    u.ID,
			UserName:  u.Username,
			StationID: st.ID,
			Rating:    3 + (i+k)%3,
			Comment:   reviewTexts[(i*3+k)%len(reviewTexts)],
		}
		if err := store.Create(ctx, &review); err != nil {
			if errors.Is(err, models.ErrDuplicateEntry) {
				continue
			}
			return created, fmt.Errorf("seed: review %s by %s: %w", st.Name, u.Username, err)
		}
		created++
	}
	return created, nil
}

package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// SamplePassword is the login password of every sample account.
const SamplePassword = "password123"

// User is a sample account. EnsureUser fills ID.
type User struct {
	ID          int64
	Username    string
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	VehicleType string
}

// UserStore creates a sample account unless its username exists, and reports
// whether it did. Either way user.ID is set on success.
type UserStore interface {
	EnsureUser(ctx context.Context, user *User) (bool, error)
}

var vehicles = []string{"Tesla Model 3", "Nissan Leaf", "Chevrolet Bolt", "BMW i3"}

// Users returns user1..user5.
func Users() []User {
	out := make([]User, 0, 5)
	for i := range 5 {
		n := i + 1
		out = append(out, User{
			Username:    fmt.Sprintf("user%d", n),
			Email:       fmt.Sprintf("user%d@example.com", n),
			FirstName:   fmt.Sprintf("User%d", n),
			LastName:    "Test",
			PhoneNumber: fmt.Sprintf("+1-555-%d", 1000+i),
			VehicleType: vehicles[i%len(vehicles)],
		})
	}
	return out
}

// MemoryUsers hands out ids for the memory driver, which has no users table.
type MemoryUsers struct {
	mu     sync.Mutex
	ids    map[string]int64
	nextID int64
}

// NewMemoryUsers returns an empty store.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{ids: make(map[string]int64)}
}

// EnsureUser implements UserStore.
func (m *MemoryUsers) EnsureUser(_ context.Context, user *User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.ids[user.Username]; ok {
		user.ID = id
		return false, nil
	}
	m.nextID++
	m.ids[user.Username] = m.nextID
	user.ID = m.nextID
	return true, nil
}

// PostgresUsers writes sample accounts into the users table shared with auth-service.
type PostgresUsers struct {
	pool *pgxpool.Pool
	cost int
}

// NewPostgresUsers hashes SamplePassword with bcrypt.DefaultCost.
func NewPostgresUsers(pool *pgxpool.Pool) *PostgresUsers {
	return &PostgresUsers{pool: pool, cost: bcrypt.DefaultCost}
}

// EnsureUser implements UserStore. The password is hashed only for new accounts.
func (p *PostgresUsers) EnsureUser(ctx context.Context, user *User) (bool, error) {
	found, err := p.lookup(ctx, user)
	if err != nil || found {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SamplePassword), p.cost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	err = p.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name, phone_number, vehicle_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
		RETURNING id`,
		user.Username, user.Email, string(hash), user.FirstName, user.LastName, user.PhoneNumber, user.VehicleType,
	).Scan(&user.ID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	// lost a race with another seeder, or the email belongs to someone else
	found, err = p.lookup(ctx, user)
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("email %s is taken by another account", user.Email)
	}
	return false, nil
}

func (p *PostgresUsers) lookup(ctx context.Context, user *User) (bool, error) {
	err := p.pool.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, user.Username).Scan(&user.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

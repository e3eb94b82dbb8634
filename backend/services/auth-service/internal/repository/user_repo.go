package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chargemap/backend/libs/db"
	"chargemap/backend/services/auth-service/internal/models"
)

var (
	// ErrUserNotFound represents missing user rows.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when the username unique constraint fires.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken is returned when the email unique constraint fires.
	ErrEmailTaken = errors.New("email already exists")
)

const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"

	userColumns = `id, username, email, password_hash, first_name, last_name,
		phone_number, vehicle_type, role, created_at, updated_at`
)

// UserRepository handles CRUD for users table.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns repository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	user.Email = normalizeEmail(user.Email)
	const query = `
		INSERT INTO users (username, email, password_hash, first_name, last_name, phone_number, vehicle_type, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.PhoneNumber, user.VehicleType, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return mapUniqueError(err)
}

// GetByUsername fetches a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, strings.TrimSpace(username))
}

// GetByID fetches a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// UpdateProfile stores the editable profile fields and returns the updated user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, profile models.Profile) (*models.User, error) {
	const query = `
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, phone_number = $5, vehicle_type = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	user, err := r.getOne(ctx, query, id, normalizeEmail(profile.Email),
		profile.FirstName, profile.LastName, profile.PhoneNumber, profile.VehicleType)
	if err != nil {
		return nil, mapUniqueError(err)
	}
	return user, nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	var user models.User
	if err := pgxscan.Get(ctx, r.pool, &user, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapUniqueError(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err, usernameConstraint):
		return ErrUsernameTaken
	case db.IsUniqueViolation(err, emailConstraint):
		return ErrEmailTaken
	}
	return err
}

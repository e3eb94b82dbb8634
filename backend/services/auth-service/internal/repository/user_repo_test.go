package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapUniqueError(t *testing.T) {
	assert.NoError(t, mapUniqueError(nil))
	assert.ErrorIs(t, mapUniqueError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: usernameConstraint})), ErrUsernameTaken)
	assert.ErrorIs(t, mapUniqueError(&pgconn.PgError{Code: "23505", ConstraintName: emailConstraint}), ErrEmailTaken)

	other := errors.New("boom")
	assert.Equal(t, other, mapUniqueError(other))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user1@example.com", normalizeEmail("  User1@Example.COM "))
}

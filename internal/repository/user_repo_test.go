package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gymplanner/internal/config"
	"gymplanner/internal/database"
	"gymplanner/internal/domain"
)

func newTestRepo(t *testing.T) *UserRepository {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zap.NewNop()))
	return NewUserRepository(db)
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := &domain.User{ID: uuid.NewString(), Email: "  Alice@Gym.TN ", PasswordHash: "x", Role: domain.RoleMember, FirstName: "Alice"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "alice@gym.tn", u.Email)

	got, err := repo.GetByEmail(ctx, "ALICE@gym.tn")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Alice", got.FullName())

	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, got.Role)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: uuid.NewString(), Email: "bob@gym.tn", PasswordHash: "x", Role: domain.RoleMember}))
	err := repo.Create(ctx, &domain.User{ID: uuid.NewString(), Email: "BOB@gym.tn", PasswordHash: "y", Role: domain.RoleMember})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: reservations.member_id, reservations.session_id (2067)")))
	assert.False(t, IsUniqueViolation(errors.New("no such table")))
	assert.False(t, IsUniqueViolation(nil))
}

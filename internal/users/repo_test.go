package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/internal/testdb"
	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
)

func TestLoadIdentityPerRole(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customer := testdb.Customer(t, conn, "acme")
	user, err := repo.FindByID(ctx, customer.UserID)
	require.NoError(t, err)
	identity, err := repo.LoadIdentity(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, identity.Customer)
	assert.Equal(t, customer.ID, identity.Customer.ID)
	assert.Nil(t, identity.Distributor)

	distributor := testdb.Distributor(t, conn, "mouser")
	user, err = repo.FindByID(ctx, distributor.UserID)
	require.NoError(t, err)
	identity, err = repo.LoadIdentity(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, identity.Distributor)
	assert.Equal(t, distributor.ID, identity.Distributor.ID)

	admin, err := repo.Create(ctx, CreateUserDTO{Email: "ops@example.com", PasswordHash: "x", DisplayName: "Ops", Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	identity, err = repo.LoadIdentity(ctx, admin)
	require.NoError(t, err)
	assert.Nil(t, identity.Customer)
	assert.Nil(t, identity.Distributor)
}

func TestLoadIdentityMissingProfile(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	orphan, err := repo.Create(ctx, CreateUserDTO{Email: "orphan@example.com", PasswordHash: "x", DisplayName: "Orphan", Role: enums.UserRoleCustomer})
	require.NoError(t, err)

	_, err = repo.LoadIdentity(ctx, orphan)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_, err = repo.LoadIdentity(ctx, &models.User{ID: uuid.New(), Role: "auditor"})
	assert.Error(t, err)
}

func TestColumnUpdates(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	customer := testdb.Customer(t, conn, "volt")

	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, customer.UserID, at))
	require.NoError(t, repo.UpdatePasswordHash(ctx, customer.UserID, "$argon2id$new"))

	user, err := repo.FindByID(ctx, customer.UserID)
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)
	assert.True(t, at.Equal(*user.LastLoginAt))
	assert.Equal(t, "$argon2id$new", user.PasswordHash)

	byEmail, err := repo.FindByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
}

package admin

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRepositoryLookups(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:admin_repo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.AdminUser{}))

	repo := NewRepository(conn)
	ctx := context.Background()

	active := &models.AdminUser{Email: " Coach@Example.com ", PasswordHash: "hash", IsActive: true}
	require.NoError(t, repo.Create(ctx, active))
	require.NotEqual(t, uuid.Nil, active.ID)

	found, err := repo.FindByEmail(ctx, "COACH@example.com")
	require.NoError(t, err)
	require.Equal(t, active.ID, found.ID)

	byID, err := repo.FindActiveByID(ctx, active.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)

	missing, err := repo.FindActiveByID(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, active.ID, at))
	reloaded, err := repo.FindByEmail(ctx, "coach@example.com")
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	require.True(t, reloaded.LastLoginAt.Equal(at))
}

func TestRepositoryUpdatePasswordHash(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:admin_repo_rehash?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.AdminUser{}))

	repo := NewRepository(conn)
	ctx := context.Background()

	admin := &models.AdminUser{Email: "owner@example.com", PasswordHash: "old", IsActive: true}
	require.NoError(t, repo.Create(ctx, admin))
	require.NoError(t, repo.UpdatePasswordHash(ctx, admin.ID, "new"))

	reloaded, err := repo.FindByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	require.Equal(t, "new", reloaded.PasswordHash)
}

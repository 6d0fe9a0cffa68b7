package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/participant-registry/internal/models"
)

func TestActivityLogRepositoryListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	entries := []models.ActivityLog{
		{AdminName: "Admin", Action: models.ActionLogin, CreatedAt: now.Add(-2 * time.Hour)},
		{AdminName: "Admin", Action: models.ActionAdd, StudentName: "Alice", Metadata: datatypes.JSONMap{"field": "name"}, CreatedAt: now},
		{AdminName: "Admin", Action: models.ActionDelete, CreatedAt: now.Add(-time.Hour)},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	logs, err := repo.List(ctx, ActivityLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 3)
	require.Equal(t, models.ActionAdd, logs[0].Action)
	require.Equal(t, "name", logs[0].Metadata["field"])
	require.Equal(t, models.ActionLogin, logs[2].Action)

	logs, err = repo.List(ctx, ActivityLogFilter{Action: "delete"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, models.ActionDelete, logs[0].Action)
}

func TestActivityLogRepositoryClear(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.ActivityLog{AdminName: "Admin", Action: models.ActionLogin}))
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{AdminName: "Admin", Action: models.ActionLogout}))

	removed, err := repo.Clear(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	logs, err := repo.List(ctx, ActivityLogFilter{})
	require.NoError(t, err)
	require.Empty(t, logs)
}

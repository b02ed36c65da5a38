package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/ekklesia/internal/model"
)

func TestBackupExport(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	empty, err := NewBackupRepository(db).Export(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Rows())
	assert.NotNil(t, empty.Churches)

	user := newTestUser(t, db, "backup@example.com")
	_, err = NewMetricRepository(db).Seed(ctx, user.ID)
	require.NoError(t, err)

	root := &model.Church{UserID: user.ID, Name: "Main"}
	root.SetValues(model.MetricValues{"participants": 10})
	require.NoError(t, NewChurchRepository(db).Create(ctx, root))

	_, err = NewSettingsRepository(db).Upsert(ctx, user.ID, map[string]interface{}{"theme": "dark"})
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	backup, err := NewBackupRepository(db).Export(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, now, backup.ExportedAt)
	assert.Len(t, backup.Users, 1)
	require.Len(t, backup.Churches, 1)
	assert.Equal(t, model.MetricValues{"participants": 10}, backup.Churches[0].Values())
	require.Len(t, backup.Metrics, 4)
	assert.True(t, backup.Metrics[0].IsPrimary)
	require.Len(t, backup.Settings, 1)
	assert.Equal(t, "dark", backup.Settings[0].Settings["theme"])
	assert.Equal(t, 7, backup.Rows())
}

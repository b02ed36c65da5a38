package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/suteetoe/ekklesia/internal/model"
	"github.com/suteetoe/ekklesia/pkg/config"
	"github.com/suteetoe/ekklesia/pkg/database"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.InitDB(&config.DBConfig{
		Driver:          "sqlite",
		SQLitePath:      filepath.Join(t.TempDir(), "test.db"),
		ConnMaxLifetime: time.Hour,
		LogLevel:        gormlogger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateModels(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := &model.User{Email: email, Name: "Tester", PasswordHash: "x"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/ekklesia/internal/model"
	"github.com/suteetoe/ekklesia/pkg/config"
	gormlogger "gorm.io/gorm/logger"
)

func TestInitSQLiteAndMigrate(t *testing.T) {
	cfg := &config.DBConfig{
		Driver:          "sqlite",
		SQLitePath:      filepath.Join(t.TempDir(), "nested", "ekklesia.db"),
		ConnMaxLifetime: time.Hour,
		LogLevel:        gormlogger.Silent,
	}

	db, err := InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, MigrateModels(db))

	for _, m := range model.All() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&model.Metric{}, "idx_user_metric_key"))
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := InitDB(&config.DBConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMigrateWithoutDB(t *testing.T) {
	assert.Error(t, MigrateModels(nil))
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/suteetoe/ekklesia/internal/apperr"
	"github.com/suteetoe/ekklesia/internal/model"
	"github.com/suteetoe/ekklesia/prometheus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the user's settings blob, an empty map when nothing was stored
func (r *SettingsRepository) Get(ctx context.Context, userID string) (map[string]interface{}, error) {
	defer prometheus.TrackDBOperation("settings_get")(time.Now())

	var row model.Settings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve settings", err)
	}
	if row.Settings == nil {
		return map[string]interface{}{}, nil
	}
	return row.Settings, nil
}

// Upsert inserts the blob or merges it into the stored one in a single statement,
// then returns the merged result. Top-level keys of blob replace stored keys.
func (r *SettingsRepository) Upsert(ctx context.Context, userID string, blob map[string]interface{}) (map[string]interface{}, error) {
	defer prometheus.TrackDBOperation("settings_upsert")(time.Now())

	if blob == nil {
		blob = map[string]interface{}{}
	}
	db := r.db.WithContext(ctx)
	row := model.Settings{UserID: userID, Settings: datatypes.JSONMap(blob)}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"settings":   mergeExpr(db.Dialector.Name()),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, apperr.Internal("Failed to save settings", err)
	}

	return r.Get(ctx, userID)
}

// Delete removes the user's settings; deleting absent settings is not an error
func (r *SettingsRepository) Delete(ctx context.Context, userID string) error {
	defer prometheus.TrackDBOperation("settings_delete")(time.Now())

	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Settings{}).Error; err != nil {
		return apperr.Internal("Failed to delete settings", err)
	}
	return nil
}

// sqliteShallowMerge keeps stored keys the incoming blob does not name and takes every
// incoming key as is, matching jsonb || on postgres. json_each hands back SQL values,
// so each one is turned into JSON text before the object is rebuilt.
const sqliteShallowMerge = `(SELECT json_group_object(key, json(raw)) FROM (
	SELECT key, ` + sqliteRawJSON + ` AS raw FROM json_each("settings"."settings")
		WHERE key NOT IN (SELECT key FROM json_each(excluded."settings"))
	UNION ALL
	SELECT key, ` + sqliteRawJSON + ` AS raw FROM json_each(excluded."settings")
))`

const sqliteRawJSON = `CASE type
		WHEN 'true' THEN 'true'
		WHEN 'false' THEN 'false'
		WHEN 'null' THEN 'null'
		WHEN 'text' THEN json_quote(value)
		ELSE value
	END`

func mergeExpr(dialect string) clause.Expr {
	if dialect == "sqlite" {
		return gorm.Expr(sqliteShallowMerge)
	}
	return gorm.Expr(`"settings"."settings" || EXCLUDED."settings"`)
}

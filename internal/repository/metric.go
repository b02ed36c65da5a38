package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/suteetoe/ekklesia/internal/apperr"
	"github.com/suteetoe/ekklesia/internal/model"
	"github.com/suteetoe/ekklesia/prometheus"
	"gorm.io/gorm"
)

// MetricChanges lists the mutable fields of a metric definition
type MetricChanges struct {
	Name  *string
	Color *string
	Icon  *string
	Order *int
}

// OrderUpdate moves one metric to a new position
type OrderUpdate struct {
	ID    string
	Order int
}

type MetricRepository struct {
	db *gorm.DB
}

func NewMetricRepository(db *gorm.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

// ListByUser returns the user's metrics ordered by position
func (r *MetricRepository) ListByUser(ctx context.Context, userID string) ([]model.Metric, error) {
	defer prometheus.TrackDBOperation("metric_list")(time.Now())
	return listMetrics(r.db.WithContext(ctx), userID)
}

func (r *MetricRepository) GetByID(ctx context.Context, id, userID string) (*model.Metric, error) {
	defer prometheus.TrackDBOperation("metric_get")(time.Now())
	return firstMetric(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

func (r *MetricRepository) GetByKey(ctx context.Context, key, userID string) (*model.Metric, error) {
	defer prometheus.TrackDBOperation("metric_get")(time.Now())
	return firstMetric(r.db.WithContext(ctx).Where("key = ? AND user_id = ?", key, userID))
}

// GetPrimary returns the primary metric, or the first metric by position when none is flagged
func (r *MetricRepository) GetPrimary(ctx context.Context, userID string) (*model.Metric, error) {
	defer prometheus.TrackDBOperation("metric_get")(time.Now())

	db := r.db.WithContext(ctx)
	primary, err := firstMetric(db.Where("user_id = ? AND is_primary = ?", userID, true))
	if err != nil || primary != nil {
		return primary, err
	}
	return firstMetric(db.Where("user_id = ?", userID).Order("sort_order ASC, created_at ASC"))
}

// Create inserts the metric. When autoOrder is set it is placed after the last existing metric.
func (r *MetricRepository) Create(ctx context.Context, metric *model.Metric, autoOrder bool) error {
	defer prometheus.TrackDBOperation("metric_create")(time.Now())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := firstMetric(tx.Where("key = ? AND user_id = ?", metric.Key, metric.UserID))
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict("A metric with this key already exists")
		}

		if metric.IsPrimary {
			primary, err := firstMetric(tx.Where("user_id = ? AND is_primary = ?", metric.UserID, true))
			if err != nil {
				return err
			}
			if primary != nil {
				return apperr.Invariant("A primary metric already exists")
			}
		}

		if autoOrder {
			var maxOrder int
			err := tx.Model(&model.Metric{}).
				Where("user_id = ?", metric.UserID).
				Select("COALESCE(MAX(sort_order), -1)").
				Row().Scan(&maxOrder)
			if err != nil {
				return apperr.Internal("Failed to compute metric order", err)
			}
			metric.Order = maxOrder + 1
			return createMetric(tx, metric)
		}

		if err := createMetric(tx, metric); err != nil {
			return err
		}
		current, err := renumber(tx, metric.UserID, map[string]bool{metric.ID: true})
		if err != nil {
			return err
		}
		for _, m := range current {
			if m.ID == metric.ID {
				metric.Order = m.Order
			}
		}
		return nil
	})
}

// Update applies the non-nil changes. Key and primary flag are never modified.
func (r *MetricRepository) Update(ctx context.Context, id, userID string, changes MetricChanges) (*model.Metric, error) {
	defer prometheus.TrackDBOperation("metric_update")(time.Now())

	updates := map[string]interface{}{"updated_at": time.Now()}
	if changes.Name != nil {
		updates["name"] = *changes.Name
	}
	if changes.Color != nil {
		updates["color"] = *changes.Color
	}
	if changes.Icon != nil {
		updates["icon"] = *changes.Icon
	}
	if changes.Order != nil {
		updates["sort_order"] = *changes.Order
	}

	var metric *model.Metric
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Metric{}).Where("id = ? AND user_id = ?", id, userID).Updates(updates)
		if result.Error != nil {
			return apperr.Internal("Failed to update metric", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if changes.Order != nil {
			if _, err := renumber(tx, userID, map[string]bool{id: true}); err != nil {
				return err
			}
		}

		var err error
		metric, err = firstMetric(tx.Where("id = ? AND user_id = ?", id, userID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return metric, nil
}

// Delete removes a non-primary metric, reporting false when it does not exist for this user
func (r *MetricRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	defer prometheus.TrackDBOperation("metric_delete")(time.Now())

	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		metric, err := firstMetric(tx.Where("id = ? AND user_id = ?", id, userID))
		if err != nil || metric == nil {
			return err
		}
		found = true

		if metric.IsPrimary {
			return apperr.Invariant("Cannot delete the primary metric")
		}
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Metric{}).Error; err != nil {
			return apperr.Internal("Failed to delete metric", err)
		}
		return nil
	})
	return found, err
}

// Reorder applies every position update or none of them, then renumbers the user's
// metrics to 0..n-1. An id not owned by the user aborts the whole batch with NotFound.
func (r *MetricRepository) Reorder(ctx context.Context, userID string, updates []OrderUpdate) ([]model.Metric, error) {
	defer prometheus.TrackDBOperation("metric_reorder")(time.Now())

	var metrics []model.Metric
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		moved := make(map[string]bool, len(updates))

		for _, u := range updates {
			result := tx.Model(&model.Metric{}).
				Where("id = ? AND user_id = ?", u.ID, userID).
				Updates(map[string]interface{}{"sort_order": u.Order, "updated_at": now})
			if result.Error != nil {
				return apperr.Internal("Failed to reorder metrics", result.Error)
			}
			if result.RowsAffected == 0 {
				return apperr.NotFound("Metric not found")
			}
			moved[u.ID] = true
		}

		current, err := renumber(tx, userID, moved)
		if err != nil {
			return err
		}

		metrics = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

// Seed creates the primary metric and the default set when the user has no metrics yet
func (r *MetricRepository) Seed(ctx context.Context, userID string) ([]model.Metric, error) {
	defer prometheus.TrackDBOperation("metric_seed")(time.Now())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Metric{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return apperr.Internal("Failed to count metrics", err)
		}
		if count > 0 {
			return nil
		}

		primary := model.PrimaryMetricTemplate.Build(userID, true)
		if err := createMetric(tx, &primary); err != nil {
			return err
		}
		return createDefaults(tx, userID)
	})
	// A concurrent request seeded first; its rows are as good as ours
	if err != nil && !apperr.Is(err, apperr.KindConflict) {
		return nil, err
	}
	return r.ListByUser(ctx, userID)
}

// ResetToDefaults drops every non-primary metric and recreates the default set.
// The primary metric is kept, or created when missing.
func (r *MetricRepository) ResetToDefaults(ctx context.Context, userID string) ([]model.Metric, error) {
	defer prometheus.TrackDBOperation("metric_reset")(time.Now())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND is_primary = ?", userID, false).Delete(&model.Metric{}).Error
		if err != nil {
			return apperr.Internal("Failed to reset metrics", err)
		}

		primary, err := firstMetric(tx.Where("user_id = ? AND is_primary = ?", userID, true))
		if err != nil {
			return err
		}
		if primary == nil {
			created := model.PrimaryMetricTemplate.Build(userID, true)
			if err := createMetric(tx, &created); err != nil {
				return err
			}
		} else if primary.Order != 0 {
			// The defaults take positions 1..3, so the primary goes back to the front
			if err := tx.Model(primary).Update("sort_order", 0).Error; err != nil {
				return apperr.Internal("Failed to reset metrics", err)
			}
		}

		return createDefaults(tx, userID)
	})
	if err != nil {
		return nil, err
	}
	return r.ListByUser(ctx, userID)
}

func createDefaults(tx *gorm.DB, userID string) error {
	for _, tpl := range model.DefaultMetricTemplates {
		metric := tpl.Build(userID, false)
		if err := createMetric(tx, &metric); err != nil {
			return err
		}
	}
	return nil
}

func createMetric(tx *gorm.DB, metric *model.Metric) error {
	err := tx.Create(metric).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("A metric with this key already exists")
	}
	if err != nil {
		return apperr.Internal("Failed to create metric", err)
	}
	return nil
}

// renumber rewrites the user's positions to 0..n-1 keeping the current order.
// Metrics in moved win ties against metrics already at that position.
func renumber(tx *gorm.DB, userID string, moved map[string]bool) ([]model.Metric, error) {
	current, err := listMetrics(tx, userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(current, func(i, j int) bool {
		if current[i].Order != current[j].Order {
			return current[i].Order < current[j].Order
		}
		return moved[current[i].ID] && !moved[current[j].ID]
	})

	for i := range current {
		if current[i].Order == i {
			continue
		}
		err := tx.Model(&model.Metric{}).
			Where("id = ? AND user_id = ?", current[i].ID, userID).
			Update("sort_order", i).Error
		if err != nil {
			return nil, apperr.Internal("Failed to normalize metric order", err)
		}
		current[i].Order = i
	}
	return current, nil
}

func listMetrics(db *gorm.DB, userID string) ([]model.Metric, error) {
	metrics := []model.Metric{}
	err := db.Where("user_id = ?", userID).
		Order("sort_order ASC, created_at ASC").
		Find(&metrics).Error
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve metrics", err)
	}
	return metrics, nil
}

func firstMetric(query *gorm.DB) (*model.Metric, error) {
	var metric model.Metric
	err := query.First(&metric).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve metric", err)
	}
	return &metric, nil
}

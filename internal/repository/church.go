// Package repository holds the owner-scoped gorm queries. Lookups return a nil result,
// not an error, when the row is missing or belongs to another user.
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
)

// ChurchChanges lists the fields of a partial church update; nil fields are left untouched
type ChurchChanges struct {
	Name     *string
	ParentID *string
	Metrics  model.MetricValues
}

type ChurchRepository struct {
	db *gorm.DB
}

func NewChurchRepository(db *gorm.DB) *ChurchRepository {
	return &ChurchRepository{db: db}
}

// ListByUser returns the user's churches, newest first
func (r *ChurchRepository) ListByUser(ctx context.Context, userID string) ([]model.Church, error) {
	defer prometheus.TrackDBOperation("church_list")(time.Now())

	churches := []model.Church{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&churches).Error
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve churches", err)
	}
	return churches, nil
}

func (r *ChurchRepository) GetByID(ctx context.Context, id, userID string) (*model.Church, error) {
	defer prometheus.TrackDBOperation("church_get")(time.Now())
	return firstChurch(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

// GetChildren returns the direct children of parentID ordered by name
func (r *ChurchRepository) GetChildren(ctx context.Context, parentID, userID string) ([]model.Church, error) {
	defer prometheus.TrackDBOperation("church_children")(time.Now())

	children := []model.Church{}
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND user_id = ?", parentID, userID).
		Order("name ASC").
		Find(&children).Error
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve child churches", err)
	}
	return children, nil
}

// GetRoot returns the user's oldest parentless church
func (r *ChurchRepository) GetRoot(ctx context.Context, userID string) (*model.Church, error) {
	defer prometheus.TrackDBOperation("church_root")(time.Now())
	return firstChurch(r.db.WithContext(ctx).
		Where("parent_id IS NULL AND user_id = ?", userID).
		Order("created_at ASC"))
}

func (r *ChurchRepository) Create(ctx context.Context, church *model.Church) error {
	defer prometheus.TrackDBOperation("church_create")(time.Now())

	if church.Metrics.Data() == nil {
		church.SetValues(nil)
	}
	if err := r.db.WithContext(ctx).Create(church).Error; err != nil {
		return apperr.Internal("Failed to create church", err)
	}
	return nil
}

// Update applies the non-nil changes and refreshes updatedAt
func (r *ChurchRepository) Update(ctx context.Context, id, userID string, changes ChurchChanges) (*model.Church, error) {
	defer prometheus.TrackDBOperation("church_update")(time.Now())

	updates := map[string]interface{}{"updated_at": time.Now()}
	if changes.Name != nil {
		updates["name"] = *changes.Name
	}
	if changes.ParentID != nil {
		updates["parent_id"] = *changes.ParentID
	}
	if changes.Metrics != nil {
		updates["metrics"] = datatypes.NewJSONType(changes.Metrics)
	}

	db := r.db.WithContext(ctx)
	result := db.Model(&model.Church{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if result.Error != nil {
		return nil, apperr.Internal("Failed to update church", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return firstChurch(db.Where("id = ? AND user_id = ?", id, userID))
}

// SaveValues persists a church's metric map without touching other fields
func (r *ChurchRepository) SaveValues(ctx context.Context, church *model.Church) error {
	defer prometheus.TrackDBOperation("church_backfill")(time.Now())

	err := r.db.WithContext(ctx).Model(&model.Church{}).
		Where("id = ? AND user_id = ?", church.ID, church.UserID).
		Update("metrics", church.Metrics).Error
	if err != nil {
		return apperr.Internal("Failed to update church metrics", err)
	}
	return nil
}

// Delete removes the church and every descendant in one transaction.
// It reports false when the church does not exist for this user.
func (r *ChurchRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	defer prometheus.TrackDBOperation("church_delete")(time.Now())

	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		church, err := firstChurch(tx.Where("id = ? AND user_id = ?", id, userID))
		if err != nil || church == nil {
			return err
		}
		found = true

		if church.IsRoot() {
			return apperr.Invariant("Cannot delete the root church")
		}

		ids, err := collectSubtree(tx, id, userID)
		if err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND id IN ?", userID, ids).Delete(&model.Church{}).Error; err != nil {
			return apperr.Internal("Failed to delete church", err)
		}
		return nil
	})
	return found, err
}

// IsDescendant reports whether candidateID lies in the subtree rooted at ancestorID (inclusive)
func (r *ChurchRepository) IsDescendant(ctx context.Context, ancestorID, candidateID, userID string) (bool, error) {
	ids, err := collectSubtree(r.db.WithContext(ctx), ancestorID, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == candidateID {
			return true, nil
		}
	}
	return false, nil
}

func (r *ChurchRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	defer prometheus.TrackDBOperation("church_count")(time.Now())

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Church{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, apperr.Internal("Failed to count churches", err)
	}
	return count, nil
}

// collectSubtree walks parent_id links breadth first and returns rootID plus all descendants
func collectSubtree(tx *gorm.DB, rootID, userID string) ([]string, error) {
	all := []string{rootID}
	seen := map[string]bool{rootID: true}
	frontier := []string{rootID}

	for len(frontier) > 0 {
		var children []string
		err := tx.Model(&model.Church{}).
			Where("user_id = ? AND parent_id IN ?", userID, frontier).
			Pluck("id", &children).Error
		if err != nil {
			return nil, apperr.Internal("Failed to collect descendants", err)
		}

		frontier = frontier[:0]
		for _, child := range children {
			if seen[child] {
				continue
			}
			seen[child] = true
			all = append(all, child)
			frontier = append(frontier, child)
		}
	}
	return all, nil
}

func firstChurch(query *gorm.DB) (*model.Church, error) {
	var church model.Church
	err := query.First(&church).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve church", err)
	}
	return &church, nil
}

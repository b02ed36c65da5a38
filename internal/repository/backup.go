package repository

import (
	"context"
	"time"

	"github.com/suteetoe/ekklesia/internal/apperr"
	"github.com/suteetoe/ekklesia/internal/model"
	"github.com/suteetoe/ekklesia/prometheus"
	"gorm.io/gorm"
)

// Backup is a point-in-time copy of every user-owned table. Sessions are left out.
type Backup struct {
	ExportedAt time.Time        `json:"exportedAt"`
	Users      []model.User     `json:"users"`
	Churches   []model.Church   `json:"churches"`
	Metrics    []model.Metric   `json:"metrics"`
	Settings   []model.Settings `json:"settings"`
}

// Rows returns the number of rows captured in the backup
func (b *Backup) Rows() int {
	return len(b.Users) + len(b.Churches) + len(b.Metrics) + len(b.Settings)
}

type BackupRepository struct {
	db *gorm.DB
}

func NewBackupRepository(db *gorm.DB) *BackupRepository {
	return &BackupRepository{db: db}
}

// Export reads all tables inside one read transaction so the copy is consistent
func (r *BackupRepository) Export(ctx context.Context, now time.Time) (*Backup, error) {
	defer prometheus.TrackDBOperation("backup_export")(time.Now())

	backup := &Backup{
		ExportedAt: now.UTC(),
		Users:      []model.User{},
		Churches:   []model.Church{},
		Metrics:    []model.Metric{},
		Settings:   []model.Settings{},
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("created_at ASC").Find(&backup.Users).Error; err != nil {
			return err
		}
		if err := tx.Order("user_id ASC, created_at ASC").Find(&backup.Churches).Error; err != nil {
			return err
		}
		if err := tx.Order("user_id ASC, sort_order ASC").Find(&backup.Metrics).Error; err != nil {
			return err
		}
		return tx.Order("user_id ASC").Find(&backup.Settings).Error
	})
	if err != nil {
		return nil, apperr.Internal("Failed to export data", err)
	}

	return backup, nil
}

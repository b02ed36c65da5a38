package repository

import (
	"context"
	"errors"
	"time"

	"github.com/suteetoe/ekklesia/internal/apperr"
	"github.com/suteetoe/ekklesia/internal/model"
	"github.com/suteetoe/ekklesia/prometheus"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user; a taken email is reported as a conflict
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	defer prometheus.TrackDBOperation("user_create")(time.Now())

	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("Email already registered")
	}
	if err != nil {
		return apperr.Internal("Failed to create user", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_get")(time.Now())
	return firstUser(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_get")(time.Now())
	return firstUser(r.db.WithContext(ctx).Where("email = ?", email))
}

// UpdateName changes the profile name, the only user field callers may edit
func (r *UserRepository) UpdateName(ctx context.Context, id, name string) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_update")(time.Now())

	db := r.db.WithContext(ctx)
	result := db.Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "updated_at": time.Now()})
	if result.Error != nil {
		return nil, apperr.Internal("Failed to update profile", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return firstUser(db.Where("id = ?", id))
}

func firstUser(query *gorm.DB) (*model.User, error) {
	var user model.User
	err := query.First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve user", err)
	}
	return &user, nil
}

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	defer prometheus.TrackDBOperation("session_create")(time.Now())

	// sqlite compares timestamps as text, so expiries are kept in UTC
	session.ExpiresAt = session.ExpiresAt.UTC()
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return apperr.Internal("Failed to create session", err)
	}
	return nil
}

// GetActive returns the session when it exists, belongs to userID and has not expired
func (r *SessionRepository) GetActive(ctx context.Context, id, userID string, now time.Time) (*model.Session, error) {
	defer prometheus.TrackDBOperation("session_get")(time.Now())

	var session model.Session
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND expires_at > ?", id, userID, now.UTC()).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve session", err)
	}
	return &session, nil
}

// ListActive returns the user's unexpired sessions, newest first
func (r *SessionRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]model.Session, error) {
	defer prometheus.TrackDBOperation("session_list")(time.Now())

	sessions := []model.Session{}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now.UTC()).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve sessions", err)
	}
	return sessions, nil
}

// Delete revokes one of the user's sessions, reporting false when there was nothing to revoke
func (r *SessionRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	defer prometheus.TrackDBOperation("session_delete")(time.Now())

	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Session{})
	if result.Error != nil {
		return false, apperr.Internal("Failed to delete session", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteExpired purges sessions that expired before now
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	defer prometheus.TrackDBOperation("session_purge")(time.Now())

	result := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&model.Session{})
	if result.Error != nil {
		return 0, apperr.Internal("Failed to purge sessions", result.Error)
	}
	return result.RowsAffected, nil
}

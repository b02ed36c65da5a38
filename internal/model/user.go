package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account owner. Every other row belongs to exactly one user.
type User struct {
	ID            string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email         string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name          string    `json:"name" gorm:"type:varchar(255)"`
	EmailVerified bool      `json:"emailVerified" gorm:"not null;default:false"`
	PasswordHash  string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Session is a server-side login record; the cookie token references it by ID
type Session struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);index;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	IPAddress string    `json:"ipAddress" gorm:"type:varchar(64)"`
	UserAgent string    `json:"userAgent" gorm:"type:varchar(512)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the session is no longer usable at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Settings holds one free-form JSON object per user
type Settings struct {
	ID        string            `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    string            `json:"userId" gorm:"type:varchar(36);uniqueIndex;not null"`
	Settings  datatypes.JSONMap `json:"settings" gorm:"not null"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (s *Settings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MetricValues maps a metric key to its non-negative value on one church
type MetricValues map[string]float64

// Clone returns an independent copy; a nil receiver yields an empty map
func (m MetricValues) Clone() MetricValues {
	out := make(MetricValues, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Church is a node of a user's organization tree. A church without a parent is the root.
type Church struct {
	ID        string                           `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    string                           `json:"userId" gorm:"type:varchar(36);index;not null"`
	Name      string                           `json:"name" gorm:"type:varchar(255);not null"`
	ParentID  *string                          `json:"parentId" gorm:"type:varchar(36);index"`
	Metrics   datatypes.JSONType[MetricValues] `json:"metrics" gorm:"not null"`
	CreatedAt time.Time                        `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time                        `json:"updatedAt"`

	User   *User   `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Parent *Church `json:"-" gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (c *Church) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsRoot reports whether the church sits at the top of the tree
func (c *Church) IsRoot() bool {
	return c.ParentID == nil
}

// Values returns the church's metric map, never nil
func (c *Church) Values() MetricValues {
	values := c.Metrics.Data()
	if values == nil {
		return MetricValues{}
	}
	return values
}

// SetValues replaces the stored metric map
func (c *Church) SetValues(values MetricValues) {
	if values == nil {
		values = MetricValues{}
	}
	c.Metrics = datatypes.NewJSONType(values)
}

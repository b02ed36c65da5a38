package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MetricColors lists the accepted metric colors
var MetricColors = []string{"red", "blue", "green", "yellow", "purple", "pink", "orange", "gray"}

// Metric is a per-user counter definition. Every church carries a value for each metric key.
type Metric struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex:idx_user_metric_key;index"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Key       string    `json:"key" gorm:"type:varchar(50);not null;uniqueIndex:idx_user_metric_key"`
	Color     string    `json:"color" gorm:"type:varchar(16);not null"`
	Icon      string    `json:"icon" gorm:"type:varchar(50);not null"`
	IsPrimary bool      `json:"isPrimary" gorm:"not null;default:false"`
	Order     int       `json:"order" gorm:"column:sort_order;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName keeps metric definitions apart from the prometheus naming
func (Metric) TableName() string {
	return "user_metrics"
}

func (m *Metric) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// MetricTemplate describes a metric created on behalf of the user
type MetricTemplate struct {
	Name  string
	Key   string
	Color string
	Icon  string
	Order int
}

// PrimaryMetricTemplate is the undeletable reference metric seeded for every user
var PrimaryMetricTemplate = MetricTemplate{Name: "Participants", Key: "participants", Color: "blue", Icon: "users", Order: 0}

// DefaultMetricTemplates are the non-primary metrics restored by a reset
var DefaultMetricTemplates = []MetricTemplate{
	{Name: "Christians", Key: "christians", Color: "green", Icon: "check", Order: 1},
	{Name: "Baptized", Key: "baptized", Color: "purple", Icon: "star", Order: 2},
	{Name: "Reaching out", Key: "reaching_out", Color: "pink", Icon: "globe", Order: 3},
}

// Build turns the template into an unsaved metric owned by userID
func (t MetricTemplate) Build(userID string, primary bool) Metric {
	return Metric{
		UserID:    userID,
		Name:      t.Name,
		Key:       t.Key,
		Color:     t.Color,
		Icon:      t.Icon,
		IsPrimary: primary,
		Order:     t.Order,
	}
}

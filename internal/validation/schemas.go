package validation

import "github.com/suteetoe/ekklesia/internal/model"

// ChurchCreate is the body of POST /churches
type ChurchCreate struct {
	Name     string             `json:"name" validate:"required,max=255,safename"`
	ParentID *string            `json:"parentId" validate:"omitempty,uuid"`
	Metrics  model.MetricValues `json:"metrics" validate:"required,dive,gte=0"`
}

// ChurchUpdate is the body of PUT /churches/{id}; nil fields are left untouched
type ChurchUpdate struct {
	Name     *string            `json:"name" validate:"omitempty,min=1,max=255,safename"`
	ParentID *string            `json:"parentId" validate:"omitempty,uuid"`
	Metrics  model.MetricValues `json:"metrics" validate:"omitempty,dive,gte=0"`
}

// MetricCreate is the body of POST /metrics
type MetricCreate struct {
	Name      string `json:"name" validate:"required,max=100,metricname"`
	Key       string `json:"key" validate:"required,max=50,metrickey"`
	Color     string `json:"color" validate:"required,metriccolor"`
	Icon      string `json:"icon" validate:"required,max=50"`
	IsPrimary *bool  `json:"isPrimary"`
	Order     *int   `json:"order" validate:"omitempty,gte=0"`
}

// MetricUpdate is the body of PUT /metrics/{id}. The key and the primary flag are fixed at creation.
type MetricUpdate struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100,metricname"`
	Color *string `json:"color" validate:"omitempty,metriccolor"`
	Icon  *string `json:"icon" validate:"omitempty,min=1,max=50"`
	Order *int    `json:"order" validate:"omitempty,gte=0"`
}

// ReorderItem moves one metric to a new position
type ReorderItem struct {
	ID    string `json:"id" validate:"required,uuid"`
	Order *int   `json:"order" validate:"required,gte=0"`
}

// ReorderRequest wraps the JSON array posted to /metrics/reorder
type ReorderRequest struct {
	Items []ReorderItem `json:"items" validate:"required,min=1,dive"`
}

// SettingsUpdate is the body of PUT /settings
type SettingsUpdate struct {
	Settings map[string]interface{} `json:"settings" validate:"required"`
}

// SignUp registers a user with email and password
type SignUp struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required,max=255,safename"`
}

// SignIn opens a session for an existing user
type SignIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate changes the mutable profile fields of the caller
type ProfileUpdate struct {
	Name string `json:"name" validate:"required,max=255,safename"`
}

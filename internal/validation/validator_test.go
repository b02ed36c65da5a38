package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/ekklesia/internal/apperr"
	"github.com/suteetoe/ekklesia/internal/model"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func validationDetails(t *testing.T, err error) []apperr.Detail {
	t.Helper()
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindValidation, appErr.Kind)
	return appErr.Details
}

func TestChurchNameBoundaries(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   string
		wantErr bool
		message string
	}{
		{name: "max length accepted", input: strings.Repeat("a", 255)},
		{name: "too long", input: strings.Repeat("a", 256), wantErr: true, message: "Church name too long"},
		{name: "empty", input: "", wantErr: true, message: "Church name is required"},
		{name: "punctuation allowed", input: "St. Mary - North 2"},
		{name: "markup rejected", input: "<script>", wantErr: true, message: "Church name contains invalid characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&ChurchCreate{Name: tt.input, Metrics: model.MetricValues{}})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			details := validationDetails(t, err)
			require.NotEmpty(t, details)
			assert.Equal(t, "name", details[0].Path)
			assert.Equal(t, tt.message, details[0].Message)
		})
	}
}

func TestChurchCreateRequiresMetrics(t *testing.T) {
	details := validationDetails(t, New().Validate(&ChurchCreate{Name: "North"}))

	require.Len(t, details, 1)
	assert.Equal(t, "metrics", details[0].Path)
	assert.Equal(t, "invalid_type", details[0].Code)
}

func TestChurchMetricValuesNonNegative(t *testing.T) {
	details := validationDetails(t, New().Validate(&ChurchCreate{
		Name:    "North",
		Metrics: model.MetricValues{"participants": 3, "baptized": -1},
	}))

	require.Len(t, details, 1)
	assert.Equal(t, "metrics.baptized", details[0].Path)
	assert.Equal(t, "Metric values must be non-negative", details[0].Message)
	assert.Equal(t, "too_small", details[0].Code)
}

func TestChurchParentMustBeUUID(t *testing.T) {
	details := validationDetails(t, New().Validate(&ChurchCreate{
		Name:     "North",
		ParentID: strPtr("root"),
		Metrics:  model.MetricValues{},
	}))

	require.Len(t, details, 1)
	assert.Equal(t, "parentId", details[0].Path)
	assert.Equal(t, "Invalid ID format", details[0].Message)
}

func TestChurchUpdatePartial(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&ChurchUpdate{}))
	assert.NoError(t, v.Validate(&ChurchUpdate{Metrics: model.MetricValues{"x": 5, "y": 0}}))

	details := validationDetails(t, v.Validate(&ChurchUpdate{Name: strPtr("")}))
	assert.Equal(t, "Church name is required", details[0].Message)
}

func TestMetricCreate(t *testing.T) {
	v := New()
	valid := MetricCreate{Name: "Small groups", Key: "small_groups", Color: "orange", Icon: "home"}
	assert.NoError(t, v.Validate(&valid))

	tests := []struct {
		name    string
		mutate  func(m *MetricCreate)
		path    string
		message string
		code    string
	}{
		{
			name:    "uppercase key",
			mutate:  func(m *MetricCreate) { m.Key = "Small" },
			path:    "key",
			message: "Metric key must be lowercase letters, numbers, and underscores only",
			code:    "invalid_string",
		},
		{
			name:    "unknown color",
			mutate:  func(m *MetricCreate) { m.Color = "teal" },
			path:    "color",
			message: "Invalid color. Must be one of: red, blue, green, yellow, purple, pink, orange, gray",
			code:    "invalid_enum_value",
		},
		{
			name:    "negative order",
			mutate:  func(m *MetricCreate) { m.Order = intPtr(-1) },
			path:    "order",
			message: "Order must be a non-negative integer",
			code:    "too_small",
		},
		{
			name:    "dot in name",
			mutate:  func(m *MetricCreate) { m.Name = "v1.0" },
			path:    "name",
			message: "Metric name contains invalid characters",
			code:    "invalid_string",
		},
		{
			name:    "long icon",
			mutate:  func(m *MetricCreate) { m.Icon = strings.Repeat("i", 51) },
			path:    "icon",
			message: "Icon too long",
			code:    "too_big",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			details := validationDetails(t, v.Validate(&m))
			require.Len(t, details, 1)
			assert.Equal(t, tt.path, details[0].Path)
			assert.Equal(t, tt.message, details[0].Message)
			assert.Equal(t, tt.code, details[0].Code)
		})
	}
}

func TestMetricOrderZeroAccepted(t *testing.T) {
	err := New().Validate(&MetricCreate{Name: "Groups", Key: "groups", Color: "red", Icon: "home", Order: intPtr(0)})
	assert.NoError(t, err)
}

func TestReorderRequest(t *testing.T) {
	v := New()

	details := validationDetails(t, v.Validate(&ReorderRequest{Items: []ReorderItem{}}))
	assert.Equal(t, "items", details[0].Path)
	assert.Equal(t, "At least 1 item is required", details[0].Message)

	details = validationDetails(t, v.Validate(&ReorderRequest{Items: []ReorderItem{
		{ID: "5b0e2c1e-7d43-4a8e-9f0a-3c1b2d4e5f60", Order: intPtr(0)},
		{ID: "not-a-uuid", Order: intPtr(1)},
	}}))
	require.Len(t, details, 1)
	assert.Equal(t, "items.1.id", details[0].Path)

	details = validationDetails(t, v.Validate(&ReorderRequest{Items: []ReorderItem{
		{ID: "5b0e2c1e-7d43-4a8e-9f0a-3c1b2d4e5f60"},
	}}))
	assert.Equal(t, "items.0.order", details[0].Path)
}

func TestSettingsRequiresObject(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&SettingsUpdate{Settings: map[string]interface{}{}}))
	details := validationDetails(t, v.Validate(&SettingsUpdate{}))
	assert.Equal(t, "settings", details[0].Path)
}

func TestSignUp(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&SignUp{Email: "a@example.com", Password: "longenough", Name: "Ann"}))

	details := validationDetails(t, v.Validate(&SignUp{Email: "nope", Password: "short", Name: "Ann"}))
	require.Len(t, details, 2)
	assert.Equal(t, "Invalid email address", details[0].Message)
	assert.Equal(t, "Password must be at least 8 characters", details[1].Message)
}

package service

import (
	"context"

	"github.com/suteetoe/ekklesia/internal/apperr"
	"github.com/suteetoe/ekklesia/internal/model"
	"github.com/suteetoe/ekklesia/internal/repository"
	"github.com/suteetoe/ekklesia/internal/validation"
	"github.com/suteetoe/ekklesia/pkg/config"
	"github.com/suteetoe/ekklesia/pkg/logger"
	"github.com/suteetoe/ekklesia/prometheus"
	"go.uber.org/zap"
)

type MetricService struct {
	metrics  *repository.MetricRepository
	churches *repository.ChurchRepository
	defaults config.DefaultsConfig
}

func NewMetricService(metrics *repository.MetricRepository, churches *repository.ChurchRepository, defaults config.DefaultsConfig) *MetricService {
	return &MetricService{metrics: metrics, churches: churches, defaults: defaults}
}

// List returns the user's metrics by position, seeding the default set on first access
func (s *MetricService) List(ctx context.Context, userID string) ([]model.Metric, error) {
	return s.metrics.Seed(ctx, userID)
}

func (s *MetricService) Get(ctx context.Context, id, userID string) (*model.Metric, error) {
	metric, err := s.metrics.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if metric == nil {
		return nil, apperr.NotFound("Metric not found")
	}
	return metric, nil
}

// Create adds a metric definition and gives every church of the user a default value for it
func (s *MetricService) Create(ctx context.Context, userID string, req validation.MetricCreate) (*model.Metric, error) {
	metric := &model.Metric{
		UserID: userID,
		Name:   req.Name,
		Key:    req.Key,
		Color:  req.Color,
		Icon:   req.Icon,
	}
	if req.IsPrimary != nil {
		metric.IsPrimary = *req.IsPrimary
	}
	if req.Order != nil {
		metric.Order = *req.Order
	}

	if err := s.metrics.Create(ctx, metric, req.Order == nil); err != nil {
		return nil, err
	}
	if err := s.backfill(ctx, userID, *metric); err != nil {
		return nil, err
	}

	prometheus.RecordMetricOperation("create")
	return metric, nil
}

func (s *MetricService) Update(ctx context.Context, id, userID string, req validation.MetricUpdate) (*model.Metric, error) {
	metric, err := s.metrics.Update(ctx, id, userID, repository.MetricChanges{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
		Order: req.Order,
	})
	if err != nil {
		return nil, err
	}
	if metric == nil {
		return nil, apperr.NotFound("Metric not found")
	}

	prometheus.RecordMetricOperation("update")
	return metric, nil
}

// Delete removes a non-primary metric. Church values for its key are left in place.
func (s *MetricService) Delete(ctx context.Context, id, userID string) error {
	found, err := s.metrics.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("Metric not found")
	}

	prometheus.RecordMetricOperation("delete")
	return nil
}

// Reorder applies all position changes atomically and returns the full ordered list
func (s *MetricService) Reorder(ctx context.Context, userID string, items []validation.ReorderItem) ([]model.Metric, error) {
	updates := make([]repository.OrderUpdate, 0, len(items))
	for _, item := range items {
		updates = append(updates, repository.OrderUpdate{ID: item.ID, Order: *item.Order})
	}

	metrics, err := s.metrics.Reorder(ctx, userID, updates)
	if err != nil {
		return nil, err
	}

	prometheus.RecordMetricOperation("reorder")
	return metrics, nil
}

// Reset restores the default metric set, keeping the primary metric
func (s *MetricService) Reset(ctx context.Context, userID string) ([]model.Metric, error) {
	metrics, err := s.metrics.ResetToDefaults(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, metric := range metrics {
		if err := s.backfill(ctx, userID, metric); err != nil {
			return nil, err
		}
	}

	prometheus.RecordMetricOperation("reset")
	logger.FromContext(ctx).Info("Metrics reset to defaults", zap.String("user_id", userID))
	return metrics, nil
}

func (s *MetricService) backfill(ctx context.Context, userID string, metric model.Metric) error {
	churches, err := s.churches.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	value := defaultValue(metric, s.defaults)
	for i := range churches {
		values := churches[i].Values()
		if _, ok := values[metric.Key]; ok {
			continue
		}
		values = values.Clone()
		values[metric.Key] = value
		churches[i].SetValues(values)
		if err := s.churches.SaveValues(ctx, &churches[i]); err != nil {
			return err
		}
	}
	return nil
}

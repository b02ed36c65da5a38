// Package service applies the domain rules that span repositories: lazy root creation,
// metric seeding and backfill, parent checks and the primary metric ceiling.
package service

import (
	"context"
	"fmt"
	"math"

	"github.com/suteetoe/ekklesia/internal/apperr"
	"github.com/suteetoe/ekklesia/internal/model"
	"github.com/suteetoe/ekklesia/internal/repository"
	"github.com/suteetoe/ekklesia/internal/validation"
	"github.com/suteetoe/ekklesia/pkg/config"
	"github.com/suteetoe/ekklesia/pkg/logger"
	"github.com/suteetoe/ekklesia/prometheus"
	"go.uber.org/zap"
)

// Stats aggregates metric values over all of a user's churches
type Stats struct {
	Totals      map[string]float64 `json:"totals"`
	Percentages map[string]float64 `json:"percentages"`
	Count       int                `json:"count"`
}

type ChurchService struct {
	churches *repository.ChurchRepository
	metrics  *repository.MetricRepository
	defaults config.DefaultsConfig
}

func NewChurchService(churches *repository.ChurchRepository, metrics *repository.MetricRepository, defaults config.DefaultsConfig) *ChurchService {
	return &ChurchService{churches: churches, metrics: metrics, defaults: defaults}
}

// List returns the user's churches newest first, filling in values for metrics added since
// each church was last saved
func (s *ChurchService) List(ctx context.Context, userID string) ([]model.Church, error) {
	churches, err := s.churches.ListByUser(ctx, userID)
	if err != nil || len(churches) == 0 {
		return churches, err
	}

	definitions, err := s.metrics.Seed(ctx, userID)
	if err != nil {
		return nil, err
	}

	backfilled := 0
	for i := range churches {
		if !fillDefaults(&churches[i], definitions, s.defaults) {
			continue
		}
		if err := s.churches.SaveValues(ctx, &churches[i]); err != nil {
			return nil, err
		}
		backfilled++
	}
	if backfilled > 0 {
		logger.FromContext(ctx).Info("Backfilled church metrics",
			zap.String("user_id", userID),
			zap.Int("churches", backfilled))
	}

	return churches, nil
}

func (s *ChurchService) Get(ctx context.Context, id, userID string) (*model.Church, error) {
	church, err := s.churches.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if church == nil {
		return nil, apperr.NotFound("Church not found")
	}
	return church, nil
}

// Root returns the user's root church, creating it on first access
func (s *ChurchService) Root(ctx context.Context, userID string) (*model.Church, error) {
	root, err := s.churches.GetRoot(ctx, userID)
	if err != nil || root != nil {
		return root, err
	}

	definitions, err := s.metrics.Seed(ctx, userID)
	if err != nil {
		return nil, err
	}

	root = &model.Church{UserID: userID, Name: s.defaults.RootChurchName}
	fillDefaults(root, definitions, s.defaults)
	if err := s.churches.Create(ctx, root); err != nil {
		return nil, err
	}

	prometheus.RecordChurchOperation("create_root")
	logger.FromContext(ctx).Info("Created root church",
		zap.String("user_id", userID),
		zap.String("church_id", root.ID))
	return root, nil
}

// Children lists the direct children of a church the user owns
func (s *ChurchService) Children(ctx context.Context, id, userID string) ([]model.Church, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.churches.GetChildren(ctx, id, userID)
}

func (s *ChurchService) Create(ctx context.Context, userID string, req validation.ChurchCreate) (*model.Church, error) {
	if req.ParentID == nil {
		root, err := s.churches.GetRoot(ctx, userID)
		if err != nil {
			return nil, err
		}
		if root != nil {
			return nil, apperr.Invariant("A root church already exists")
		}
	} else if err := s.requireParent(ctx, *req.ParentID, userID); err != nil {
		return nil, err
	}

	if err := s.checkPrimaryCeiling(ctx, userID, req.Metrics); err != nil {
		return nil, err
	}

	church := &model.Church{UserID: userID, Name: req.Name, ParentID: req.ParentID}
	church.SetValues(req.Metrics)
	if err := s.churches.Create(ctx, church); err != nil {
		return nil, err
	}

	prometheus.RecordChurchOperation("create")
	return church, nil
}

func (s *ChurchService) Update(ctx context.Context, id, userID string, req validation.ChurchUpdate) (*model.Church, error) {
	church, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		if err := s.checkMove(ctx, church, *req.ParentID); err != nil {
			return nil, err
		}
	}
	if req.Metrics != nil {
		if err := s.checkPrimaryCeiling(ctx, userID, req.Metrics); err != nil {
			return nil, err
		}
	}

	updated, err := s.churches.Update(ctx, id, userID, repository.ChurchChanges{
		Name:     req.Name,
		ParentID: req.ParentID,
		Metrics:  req.Metrics,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("Church not found")
	}

	prometheus.RecordChurchOperation("update")
	return updated, nil
}

// Delete removes a non-root church together with its subtree
func (s *ChurchService) Delete(ctx context.Context, id, userID string) error {
	found, err := s.churches.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("Church not found")
	}

	prometheus.RecordChurchOperation("delete")
	return nil
}

// Stats sums every metric over the user's churches. Non-primary totals are also reported as a
// rounded percentage of the primary total.
func (s *ChurchService) Stats(ctx context.Context, userID string) (*Stats, error) {
	churches, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	definitions, err := s.metrics.Seed(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Totals:      make(map[string]float64, len(definitions)),
		Percentages: make(map[string]float64, len(definitions)),
		Count:       len(churches),
	}
	for _, metric := range definitions {
		stats.Totals[metric.Key] = 0
	}
	for _, church := range churches {
		values := church.Values()
		for _, metric := range definitions {
			stats.Totals[metric.Key] += values[metric.Key]
		}
	}

	primary := primaryOf(definitions)
	for _, metric := range definitions {
		stats.Percentages[metric.Key] = 0
		if primary == nil || metric.IsPrimary {
			continue
		}
		if total := stats.Totals[primary.Key]; total > 0 {
			stats.Percentages[metric.Key] = math.Round(stats.Totals[metric.Key] / total * 100)
		}
	}
	return stats, nil
}

func (s *ChurchService) requireParent(ctx context.Context, parentID, userID string) error {
	parent, err := s.churches.GetByID(ctx, parentID, userID)
	if err != nil {
		return err
	}
	if parent == nil {
		return apperr.Invariant("Parent church not found")
	}
	return nil
}

func (s *ChurchService) checkMove(ctx context.Context, church *model.Church, parentID string) error {
	if church.ParentID != nil && *church.ParentID == parentID {
		return nil
	}
	if church.IsRoot() {
		return apperr.Invariant("The root church cannot be moved")
	}
	if parentID == church.ID {
		return apperr.Invariant("A church cannot be its own parent")
	}
	if err := s.requireParent(ctx, parentID, church.UserID); err != nil {
		return err
	}

	inside, err := s.churches.IsDescendant(ctx, church.ID, parentID, church.UserID)
	if err != nil {
		return err
	}
	if inside {
		return apperr.Invariant("A church cannot be moved under its own descendant")
	}
	return nil
}

// checkPrimaryCeiling rejects values where a non-primary metric exceeds the primary one.
// The check only applies when the primary key is present.
func (s *ChurchService) checkPrimaryCeiling(ctx context.Context, userID string, values model.MetricValues) error {
	definitions, err := s.metrics.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	primary := primaryOf(definitions)
	if primary == nil {
		return nil
	}
	ceiling, ok := values[primary.Key]
	if !ok {
		return nil
	}

	for _, metric := range definitions {
		if metric.IsPrimary {
			continue
		}
		if values[metric.Key] > ceiling {
			return apperr.Invariant(fmt.Sprintf("%s cannot exceed %s", metric.Name, primary.Name))
		}
	}
	return nil
}

// fillDefaults adds a value for every defined metric the church lacks and reports whether
// anything changed
func fillDefaults(church *model.Church, definitions []model.Metric, defaults config.DefaultsConfig) bool {
	values := church.Values().Clone()
	changed := false
	for _, metric := range definitions {
		if _, ok := values[metric.Key]; ok {
			continue
		}
		values[metric.Key] = defaultValue(metric, defaults)
		changed = true
	}
	if changed || church.Metrics.Data() == nil {
		church.SetValues(values)
	}
	return changed
}

func defaultValue(metric model.Metric, defaults config.DefaultsConfig) float64 {
	if metric.IsPrimary {
		return defaults.PrimaryMetricValue
	}
	return defaults.MetricValue
}

func primaryOf(definitions []model.Metric) *model.Metric {
	for i := range definitions {
		if definitions[i].IsPrimary {
			return &definitions[i]
		}
	}
	if len(definitions) > 0 {
		return &definitions[0]
	}
	return nil
}

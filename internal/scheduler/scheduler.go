// Package scheduler runs periodic analysis of every active plan
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"

	"runcoach/internal/coach"
	"runcoach/internal/logger"
	"runcoach/internal/metrics"
	"runcoach/internal/models"
)

// PlanLister lists plans to analyze
type PlanLister interface {
	ListActivePlans(ctx context.Context) ([]models.TrainingPlanListItem, error)
}

// PlanAnalyzer analyzes a single plan
type PlanAnalyzer interface {
	Analyze(ctx context.Context, planID string, now time.Time) (*coach.Analysis, error)
}

// Result counts the outcome of one pass
type Result struct {
	Analyzed int
	Failed   int
	Urgent   int
}

// Scheduler triggers plan analysis on a cron schedule
type Scheduler struct {
	cron     *cron.Cron
	plans    PlanLister
	analyzer PlanAnalyzer
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates a scheduler. Nothing runs until Start.
func New(plans PlanLister, analyzer PlanAnalyzer) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		plans:    plans,
		analyzer: analyzer,
		now:      time.Now,
		logger:   logger.WithComponent("scheduler"),
	}
}

// Start registers the analysis job on spec (e.g. "@daily") and starts the cron
func (s *Scheduler) Start(spec string) error {
	err := s.cron.AddFunc(spec, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid analysis schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info().Str("schedule", spec).Msg("Scheduler started")
	return nil
}

// Stop stops the cron. A pass already running is not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Scheduler stopped")
}

// RunOnce analyzes every active plan. A failing plan is logged and counted
// without stopping the pass.
func (s *Scheduler) RunOnce(ctx context.Context) Result {
	var res Result

	items, err := s.plans.ListActivePlans(ctx)
	if err != nil {
		metrics.ScheduledRuns.WithLabelValues("list_error").Inc()
		s.logger.Error().Err(err).Msg("Failed to list active plans")
		return res
	}

	now := s.now()
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		analysis, err := s.analyzer.Analyze(ctx, item.ID, now)
		if err != nil {
			res.Failed++
			metrics.ScheduledRuns.WithLabelValues("error").Inc()
			s.logger.Error().Err(err).Str("plan_id", item.ID).Msg("Plan analysis failed")
			continue
		}
		res.Analyzed++
		metrics.ScheduledRuns.WithLabelValues("ok").Inc()

		for _, rec := range analysis.Recommendations {
			if rec.Severity != models.SeverityUrgent {
				continue
			}
			res.Urgent++
			s.logger.Warn().
				Str("plan_id", item.ID).
				Str("athlete_id", item.AthleteID).
				Str("type", string(rec.Type)).
				Msg(rec.Title)
		}
	}

	s.logger.Info().
		Int("plans", len(items)).
		Int("analyzed", res.Analyzed).
		Int("failed", res.Failed).
		Int("urgent", res.Urgent).
		Msg("Scheduled analysis finished")
	return res
}

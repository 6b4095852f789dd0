// Package coach ties the planner and the adjustment engine to storage. It is
// the only layer that reads stores, records metrics and writes logs.
package coach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"runcoach/internal/adaptation"
	"runcoach/internal/config"
	"runcoach/internal/fitness"
	"runcoach/internal/logger"
	"runcoach/internal/metrics"
	"runcoach/internal/models"
	"runcoach/internal/repository"
	"runcoach/internal/training"
)

// PlanStore persists plans
type PlanStore interface {
	SavePlan(ctx context.Context, plan *models.TrainingPlan) error
	GetPlan(ctx context.Context, id string) (*models.TrainingPlan, error)
	ActivePlanForAthlete(ctx context.Context, athleteID string) (*models.TrainingPlan, error)
	ListActivePlans(ctx context.Context) ([]models.TrainingPlanListItem, error)
	UpdateStatus(ctx context.Context, planID string, status models.PlanStatus) error
}

// RunHistory provides recorded runs
type RunHistory interface {
	SaveRun(ctx context.Context, run *models.Run) error
	RunsForAthlete(ctx context.Context, athleteID string) ([]models.Run, error)
}

// RaceStore provides races
type RaceStore interface {
	GetRace(ctx context.Context, id string) (*models.Race, error)
	RacesForAthlete(ctx context.Context, athleteID string) ([]models.Race, error)
}

// RecoveryScores provides daily recovery scores
type RecoveryScores interface {
	LatestScore(ctx context.Context, athleteID string, asOf time.Time) (float64, bool, error)
}

// AthleteStore provides athlete profiles
type AthleteStore interface {
	GetAthlete(ctx context.Context, id string) (*models.Athlete, error)
}

// Stores groups the backends a Service reads from
type Stores struct {
	Plans    PlanStore
	Runs     RunHistory
	Races    RaceStore
	Recovery RecoveryScores
	Athletes AthleteStore
}

// volumeEstimateWeeks is the run history window used when an athlete has no
// recorded weekly volume
const volumeEstimateWeeks = 4

// Service runs plan operations against the stores
type Service struct {
	stores   Stores
	planner  *training.Planner
	analyzer *adaptation.Analyzer
	logger   zerolog.Logger
}

// NewService creates a service using the given thresholds
func NewService(stores Stores, th config.Thresholds) *Service {
	return &Service{
		stores:   stores,
		planner:  training.NewPlanner(th),
		analyzer: adaptation.NewAnalyzer(th),
		logger:   logger.WithComponent("coach"),
	}
}

// Analysis is the outcome of analyzing one plan
type Analysis struct {
	PlanID                  string                                `json:"plan_id"`
	AsOf                    time.Time                             `json:"as_of"`
	Fitness                 models.FitnessSnapshot                `json:"fitness"`
	RecoveryScore           *float64                              `json:"recovery_score,omitempty"`
	Recommendations         []models.PlanAdjustmentRecommendation `json:"recommendations"`
	UnrecoverableDistanceKm float64                               `json:"unrecoverable_distance_km"`
}

// GeneratePlan builds a new active plan toward targetRaceID. A previous
// active plan of the athlete is archived once the new one is saved.
func (s *Service) GeneratePlan(ctx context.Context, athleteID, targetRaceID string, now time.Time) (*models.TrainingPlan, error) {
	log := logger.WithAthleteID(athleteID).With().
		Str("component", "coach").
		Str("race_id", targetRaceID).
		Logger()

	plan, err := s.build(ctx, athleteID, targetRaceID, now)
	if err != nil {
		recordGenerationFailure(err)
		log.Error().Err(err).Msg("Plan generation failed")
		return nil, err
	}

	previous, err := s.stores.Plans.ActivePlanForAthlete(ctx, athleteID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load active plan: %w", err)
	}

	if err := s.stores.Plans.SavePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	if previous != nil {
		if err := s.stores.Plans.UpdateStatus(ctx, previous.ID, models.PlanStatusArchived); err != nil {
			return nil, fmt.Errorf("archive plan %s: %w", previous.ID, err)
		}
		log.Info().Str("plan_id", previous.ID).Msg("Archived previous plan")
	}

	metrics.PlansGenerated.Inc()
	log.Info().
		Str("plan_id", plan.ID).
		Int("weeks", len(plan.Weeks)).
		Msg("Plan generated")
	return plan, nil
}

// RegeneratePlan rebuilds a plan from today while keeping completion state
// of sessions that still exist in the new layout. The old plan is archived.
func (s *Service) RegeneratePlan(ctx context.Context, planID string, now time.Time) (*models.TrainingPlan, error) {
	old, err := s.stores.Plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	log := logger.WithPlanID(planID).With().Str("component", "coach").Logger()

	snapshots := training.SnapshotProgress(old)

	plan, err := s.build(ctx, old.AthleteID, old.TargetRaceID, now)
	if err != nil {
		recordGenerationFailure(err)
		log.Error().Err(err).Msg("Plan regeneration failed")
		return nil, err
	}
	// the new plan starts next Monday so week numbers shift
	rebased := training.RebaseProgress(snapshots, old, plan)
	restored := training.RestoreProgress(rebased, plan)

	if err := s.stores.Plans.SavePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	if err := s.stores.Plans.UpdateStatus(ctx, old.ID, models.PlanStatusArchived); err != nil {
		return nil, fmt.Errorf("archive plan %s: %w", old.ID, err)
	}

	metrics.PlansGenerated.Inc()
	log.Info().
		Str("new_plan_id", plan.ID).
		Int("snapshots", len(snapshots)).
		Int("in_range", len(rebased)).
		Int("restored", restored).
		Msg("Plan regenerated")
	return plan, nil
}

func (s *Service) build(ctx context.Context, athleteID, targetRaceID string, now time.Time) (*models.TrainingPlan, error) {
	athlete, err := s.stores.Athletes.GetAthlete(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("load athlete: %w", err)
	}
	target, err := s.stores.Races.GetRace(ctx, targetRaceID)
	if err != nil {
		return nil, fmt.Errorf("load target race: %w", err)
	}
	races, err := s.stores.Races.RacesForAthlete(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("load races: %w", err)
	}

	var intermediates []models.Race
	for _, r := range races {
		if !r.IsCompleted {
			intermediates = append(intermediates, r)
		}
	}

	if athlete.WeeklyVolumeKm <= 0 {
		runs, err := s.stores.Runs.RunsForAthlete(ctx, athleteID)
		if err != nil {
			return nil, fmt.Errorf("load runs: %w", err)
		}
		volume, err := fitness.EstimateWeeklyVolume(runs, now, volumeEstimateWeeks)
		if err != nil {
			return nil, fmt.Errorf("athlete %s has no weekly volume: %w", athleteID, err)
		}
		athlete.WeeklyVolumeKm = volume
		s.logger.Debug().
			Str("athlete_id", athleteID).
			Float64("weekly_km", volume).
			Msg("Weekly volume estimated from run history")
	}

	return s.planner.Generate(*athlete, *target, intermediates, now)
}

func recordGenerationFailure(err error) {
	reason := "error"
	switch {
	case errors.Is(err, training.ErrInvalidPlanParameters):
		reason = "invalid_parameters"
	case errors.Is(err, repository.ErrNotFound):
		reason = "not_found"
	case errors.Is(err, fitness.ErrInsufficientData):
		reason = "insufficient_data"
	}
	metrics.PlanGenerationFailures.WithLabelValues(reason).Inc()
}

// Analyze computes the athlete's fitness from run history and runs the
// adjustment detectors over the plan. The plan is not modified.
func (s *Service) Analyze(ctx context.Context, planID string, now time.Time) (*Analysis, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.AnalysisDuration)

	plan, err := s.stores.Plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	runs, err := s.stores.Runs.RunsForAthlete(ctx, plan.AthleteID)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	snapshot := fitness.Compute(runs, now)

	var recovery *float64
	score, ok, err := s.stores.Recovery.LatestScore(ctx, plan.AthleteID, now)
	if err != nil {
		return nil, fmt.Errorf("load recovery score: %w", err)
	}
	if ok {
		recovery = &score
	}

	report := s.analyzer.Report(plan, now, &snapshot, recovery)
	for _, r := range report.Recommendations {
		metrics.Recommendations.WithLabelValues(string(r.Type), r.Severity.String()).Inc()
	}
	metrics.UnrecoverableDistanceKm.Add(report.Redistribution.UnrecoverableDistanceKm)

	s.logger.Debug().
		Str("plan_id", planID).
		Int("recommendations", len(report.Recommendations)).
		Float64("form", snapshot.Form).
		Float64("acr", snapshot.AcuteChronicRatio).
		Msg("Plan analyzed")

	return &Analysis{
		PlanID:                  planID,
		AsOf:                    now,
		Fitness:                 snapshot,
		RecoveryScore:           recovery,
		Recommendations:         report.Recommendations,
		UnrecoverableDistanceKm: report.Redistribution.UnrecoverableDistanceKm,
	}, nil
}

// ApplyRecommendation applies an accepted recommendation and saves the plan
func (s *Service) ApplyRecommendation(ctx context.Context, planID string, rec models.PlanAdjustmentRecommendation) (*models.TrainingPlan, error) {
	plan, err := s.stores.Plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if err := adaptation.Apply(plan, rec); err != nil {
		return nil, err
	}
	if err := s.stores.Plans.SavePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}

	metrics.RecommendationsApplied.WithLabelValues(string(rec.Type)).Inc()
	s.logger.Info().
		Str("plan_id", planID).
		Str("recommendation_id", rec.ID).
		Str("type", string(rec.Type)).
		Int("sessions", len(rec.AffectedSessionIDs)).
		Msg("Recommendation applied")
	return plan, nil
}

// LoadSummary returns the training load summary for the plan's athlete
func (s *Service) LoadSummary(ctx context.Context, planID string, now time.Time) (models.TrainingLoadSummary, error) {
	plan, err := s.stores.Plans.GetPlan(ctx, planID)
	if err != nil {
		return models.TrainingLoadSummary{}, fmt.Errorf("load plan: %w", err)
	}
	runs, err := s.stores.Runs.RunsForAthlete(ctx, plan.AthleteID)
	if err != nil {
		return models.TrainingLoadSummary{}, fmt.Errorf("load runs: %w", err)
	}
	if len(runs) == 0 {
		return models.TrainingLoadSummary{}, fmt.Errorf("athlete %s: %w", plan.AthleteID, fitness.ErrInsufficientData)
	}
	return fitness.Summarize(runs, plan, now), nil
}

// RecordRun stores a run and links it to the first open non-rest session
// on the same day of the athlete's active plan. It returns the linked
// session, or nil when nothing matched.
func (s *Service) RecordRun(ctx context.Context, run *models.Run) (*models.TrainingSession, error) {
	if err := s.stores.Runs.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	plan, err := s.stores.Plans.ActivePlanForAthlete(ctx, run.AthleteID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active plan: %w", err)
	}

	session := matchSession(plan, run)
	if session == nil {
		s.logger.Debug().Str("run_id", run.ID).Msg("Run not matched to a session")
		return nil, nil
	}
	session.IsCompleted = true
	session.IsSkipped = false
	session.LinkedRunID = run.ID

	if err := s.stores.Plans.SavePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	s.logger.Info().
		Str("run_id", run.ID).
		Str("session_id", session.ID).
		Msg("Run linked to session")
	return session, nil
}

func matchSession(plan *models.TrainingPlan, run *models.Run) *models.TrainingSession {
	day := models.StartOfDay(run.Date)
	idx := plan.WeekIndexFor(day)
	if idx < 0 {
		return nil
	}
	week := &plan.Weeks[idx]
	for i := range week.Sessions {
		s := &week.Sessions[i]
		if s.Type.IsRest() || s.IsCompleted || s.LinkedRunID != "" {
			continue
		}
		if models.StartOfDay(s.Date).Equal(day) {
			return s
		}
	}
	return nil
}

package coach

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runcoach/internal/adaptation"
	"runcoach/internal/config"
	"runcoach/internal/fitness"
	"runcoach/internal/models"
	"runcoach/internal/repository"
	"runcoach/internal/training"
)

var (
	now       = time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC)
	raceDay   = time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	athleteID = "ath-1"
)

func setup(t *testing.T) (*Service, *repository.BoltStore) {
	t.Helper()
	ctx := context.Background()

	store, err := repository.NewBoltStore(filepath.Join(t.TempDir(), "coach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.SaveAthlete(ctx, &models.Athlete{
		ID:             athleteID,
		Name:           "Test Runner",
		Experience:     models.ExperienceIntermediate,
		WeeklyVolumeKm: 30,
	}))
	require.NoError(t, store.SaveRace(ctx, &models.Race{
		ID: "target", AthleteID: athleteID, Name: "Mountain 100", Date: raceDay,
		DistanceKm: 100, ElevationGainM: 5000, Priority: models.PriorityA,
	}))
	require.NoError(t, store.SaveRace(ctx, &models.Race{
		ID: "tune-up", AthleteID: athleteID, Name: "Spring 30K", Date: time.Date(2026, 4, 18, 0, 0, 0, 0, time.UTC),
		DistanceKm: 30, ElevationGainM: 900, Priority: models.PriorityB,
	}))
	require.NoError(t, store.SaveRace(ctx, &models.Race{
		ID: "done", AthleteID: athleteID, Name: "Winter 10K", Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		DistanceKm: 10, Priority: models.PriorityC, IsCompleted: true,
	}))

	svc := NewService(Stores{
		Plans:    store,
		Runs:     store,
		Races:    store,
		Recovery: store,
		Athletes: store,
	}, config.DefaultThresholds())
	return svc, store
}

func firstTrainingSession(plan *models.TrainingPlan, week int) *models.TrainingSession {
	for i := range plan.Weeks[week].Sessions {
		s := &plan.Weeks[week].Sessions[i]
		if !s.Type.IsRest() {
			return s
		}
	}
	return nil
}

func TestService_GeneratePlan(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)

	plan, err := svc.GeneratePlan(ctx, athleteID, "target", now)
	require.NoError(t, err)
	assert.Len(t, plan.Weeks, 16)
	assert.Equal(t, []string{"tune-up"}, plan.IntermediateRaceIDs)

	stored, err := store.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusActive, stored.Status)

	second, err := svc.GeneratePlan(ctx, athleteID, "target", now.Add(time.Hour))
	require.NoError(t, err)

	first, err := store.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusArchived, first.Status)

	items, err := store.ListActivePlans(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].ID)
}

func TestService_GeneratePlanErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	_, err := svc.GeneratePlan(ctx, athleteID, "target", raceDay.AddDate(0, 0, -20))
	assert.True(t, errors.Is(err, training.ErrInvalidPlanParameters))

	_, err = svc.GeneratePlan(ctx, "nobody", "target", now)
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	_, err = svc.GeneratePlan(ctx, athleteID, "missing", now)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestService_GeneratePlanSeedsWeeklyVolume(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)

	require.NoError(t, store.SaveAthlete(ctx, &models.Athlete{
		ID: "ath-2", Name: "New Runner", Experience: models.ExperienceIntermediate,
	}))
	require.NoError(t, store.SaveAthlete(ctx, &models.Athlete{
		ID: "ath-3", Name: "Known Runner", Experience: models.ExperienceIntermediate, WeeklyVolumeKm: 20,
	}))

	_, err := svc.GeneratePlan(ctx, "ath-2", "target", now)
	assert.True(t, errors.Is(err, fitness.ErrInsufficientData))

	// 8 runs of 10 km over the trailing four weeks average 20 km a week
	for i := 0; i < 8; i++ {
		require.NoError(t, store.SaveRun(ctx, &models.Run{
			ID:         "seed-" + string(rune('a'+i)),
			AthleteID:  "ath-2",
			Date:       now.AddDate(0, 0, -3*i),
			DistanceKm: 10,
			Duration:   time.Hour,
		}))
	}

	seeded, err := svc.GeneratePlan(ctx, "ath-2", "target", now)
	require.NoError(t, err)
	known, err := svc.GeneratePlan(ctx, "ath-3", "target", now)
	require.NoError(t, err)

	require.Len(t, seeded.Weeks, len(known.Weeks))
	for i := range seeded.Weeks {
		assert.InDelta(t, known.Weeks[i].PlannedDistanceKm(), seeded.Weeks[i].PlannedDistanceKm(), 0.01, "week %d", i+1)
	}

	stored, err := store.GetAthlete(ctx, "ath-2")
	require.NoError(t, err)
	assert.Zero(t, stored.WeeklyVolumeKm)
}

func TestService_RegenerateKeepsProgress(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)

	plan, err := svc.GeneratePlan(ctx, athleteID, "target", now)
	require.NoError(t, err)

	done := firstTrainingSession(plan, 0)
	done.IsCompleted = true
	done.LinkedRunID = "run-1"
	skipped := firstTrainingSession(plan, 1)
	skipped.IsSkipped = true
	require.NoError(t, store.SavePlan(ctx, plan))

	regenerated, err := svc.RegeneratePlan(ctx, plan.ID, now)
	require.NoError(t, err)
	assert.NotEqual(t, plan.ID, regenerated.ID)

	s := firstTrainingSession(regenerated, 0)
	assert.True(t, s.IsCompleted)
	assert.Equal(t, "run-1", s.LinkedRunID)
	assert.True(t, firstTrainingSession(regenerated, 1).IsSkipped)

	old, err := store.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusArchived, old.Status)

	active, err := store.ActivePlanForAthlete(ctx, athleteID)
	require.NoError(t, err)
	assert.Equal(t, regenerated.ID, active.ID)
}

func TestService_RegenerateMidPlanShiftsWeeks(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)

	plan, err := svc.GeneratePlan(ctx, athleteID, "target", now)
	require.NoError(t, err)

	past := firstTrainingSession(plan, 0)
	past.IsCompleted = true
	past.LinkedRunID = "run-1"
	ahead := firstTrainingSession(plan, 3)
	ahead.IsCompleted = true
	ahead.LinkedRunID = "run-4"
	require.NoError(t, store.SavePlan(ctx, plan))

	later := now.AddDate(0, 0, 21)
	regenerated, err := svc.RegeneratePlan(ctx, plan.ID, later)
	require.NoError(t, err)
	require.Len(t, regenerated.Weeks, 13)
	assert.Equal(t, time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC), regenerated.Weeks[0].StartDate)

	for _, w := range regenerated.Weeks {
		for _, s := range w.Sessions {
			assert.NotEqual(t, "run-1", s.LinkedRunID, "session %s on %s", s.Type, s.Date.Format("2006-01-02"))
		}
	}

	s := firstTrainingSession(regenerated, 0)
	assert.True(t, s.Date.Equal(ahead.Date))
	assert.True(t, s.IsCompleted)
	assert.Equal(t, "run-4", s.LinkedRunID)
}

func TestService_RecordRun(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)

	plan, err := svc.GeneratePlan(ctx, athleteID, "target", now)
	require.NoError(t, err)
	target := firstTrainingSession(plan, 0)

	run := &models.Run{
		ID:         "run-1",
		AthleteID:  athleteID,
		Date:       target.Date.Add(7 * time.Hour),
		DistanceKm: target.PlannedDistanceKm,
		Duration:   45 * time.Minute,
	}
	linked, err := svc.RecordRun(ctx, run)
	require.NoError(t, err)
	require.NotNil(t, linked)
	assert.Equal(t, target.ID, linked.ID)

	stored, err := store.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	s := stored.Session(target.ID)
	require.NotNil(t, s)
	assert.True(t, s.IsCompleted)
	assert.Equal(t, "run-1", s.LinkedRunID)

	// outside the plan the run is stored but not linked
	early := &models.Run{ID: "run-0", AthleteID: athleteID, Date: now.AddDate(0, 0, -10), DistanceKm: 5}
	linked, err = svc.RecordRun(ctx, early)
	require.NoError(t, err)
	assert.Nil(t, linked)

	runs, err := store.RunsForAthlete(ctx, athleteID)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestService_AnalyzeAndApply(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)

	plan, err := svc.GeneratePlan(ctx, athleteID, "target", now)
	require.NoError(t, err)

	asOf := time.Date(2026, 3, 18, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveScore(ctx, athleteID, asOf.Add(-2*time.Hour), 20))

	analysis, err := svc.Analyze(ctx, plan.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, analysis.PlanID)
	require.NotNil(t, analysis.RecoveryScore)
	assert.Equal(t, 20.0, *analysis.RecoveryScore)
	require.NotEmpty(t, analysis.Recommendations)

	for i := 1; i < len(analysis.Recommendations); i++ {
		assert.GreaterOrEqual(t, analysis.Recommendations[i-1].Severity, analysis.Recommendations[i].Severity)
	}

	var skip *models.PlanAdjustmentRecommendation
	for i := range analysis.Recommendations {
		if analysis.Recommendations[i].Type == models.AdjustMarkSessionsSkipped {
			skip = &analysis.Recommendations[i]
		}
	}
	require.NotNil(t, skip)

	_, err = svc.ApplyRecommendation(ctx, plan.ID, *skip)
	require.NoError(t, err)

	stored, err := store.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	for _, id := range skip.AffectedSessionIDs {
		assert.True(t, stored.Session(id).IsSkipped, id)
	}
}

func TestService_ApplyUnknownSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	plan, err := svc.GeneratePlan(ctx, athleteID, "target", now)
	require.NoError(t, err)

	_, err = svc.ApplyRecommendation(ctx, plan.ID, models.PlanAdjustmentRecommendation{
		Type:               models.AdjustMarkSessionsSkipped,
		AffectedSessionIDs: []string{"nope"},
	})
	assert.True(t, errors.Is(err, adaptation.ErrUnknownSession))
}

func TestService_LoadSummary(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)

	plan, err := svc.GeneratePlan(ctx, athleteID, "target", now)
	require.NoError(t, err)

	_, err = svc.LoadSummary(ctx, plan.ID, now)
	assert.True(t, errors.Is(err, fitness.ErrInsufficientData))

	for i := 0; i < 10; i++ {
		require.NoError(t, store.SaveRun(ctx, &models.Run{
			ID:         "r" + string(rune('a'+i)),
			AthleteID:  athleteID,
			Date:       now.AddDate(0, 0, -2*i),
			DistanceKm: 10,
			Duration:   time.Hour,
		}))
	}

	summary, err := svc.LoadSummary(ctx, plan.ID, now)
	require.NoError(t, err)
	assert.Greater(t, summary.Current.Fitness, 0.0)
	assert.NotEmpty(t, summary.FormStatus)
}

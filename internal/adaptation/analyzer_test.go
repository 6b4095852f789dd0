package adaptation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runcoach/internal/models"
)

func TestAnalyze_NoSignals(t *testing.T) {
	plan := makePlan(standardWeek, standardWeek)

	recs := testAnalyzer().Analyze(plan, at(0, 0), &models.FitnessSnapshot{Form: 2, AcuteChronicRatio: 1.0}, ptr(80))

	assert.Empty(t, recs)
}

func TestAnalyze_OutsidePlan(t *testing.T) {
	plan := makePlan(standardWeek)

	assert.Nil(t, testAnalyzer().Analyze(plan, planStart.AddDate(0, 0, -3), nil, nil))
	assert.Nil(t, testAnalyzer().Analyze(plan, planStart.AddDate(0, 0, 10), nil, nil))
	assert.Nil(t, testAnalyzer().Analyze(nil, planStart, nil, nil))
}

func TestAnalyze_Fatigue(t *testing.T) {
	tests := []struct {
		name     string
		form     float64
		acr      float64
		severity models.Severity
		pct      float64
	}{
		{"moderate form and ratio", -20, 1.4, models.SeverityRecommended, 15},
		{"form only", -16, 1.0, models.SeverityRecommended, 15},
		{"ratio only", 0, 1.35, models.SeverityRecommended, 15},
		{"deep form", -30, 1.2, models.SeverityUrgent, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := makePlan(standardWeek)
			recs := testAnalyzer().Analyze(plan, at(0, 0), &models.FitnessSnapshot{Form: tt.form, AcuteChronicRatio: tt.acr}, nil)

			require.Len(t, recs, 1)
			rec := recs[0]
			assert.Equal(t, models.AdjustReduceVolume, rec.Type)
			assert.Equal(t, tt.severity, rec.Severity)
			assert.Equal(t, tt.pct, rec.ReductionPercent)
			assert.Equal(t, []string{"w1d2", "w1d3", "w1d4", "w1d6", "w1d7"}, rec.AffectedSessionIDs)

			for _, adj := range rec.VolumeAdjustments {
				s := plan.Session(adj.SessionID)
				assert.InDelta(t, -s.PlannedDistanceKm*tt.pct/100, adj.AddedDistanceKm, 1e-9)
			}
		})
	}
}

func TestAnalyze_RatioSpikeSwapsNextHardSession(t *testing.T) {
	plan := makePlan(standardWeek)

	recs := testAnalyzer().Analyze(plan, at(0, 0), &models.FitnessSnapshot{Form: -5, AcuteChronicRatio: 1.6}, nil)

	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, models.SeverityUrgent, r.Severity)
	}

	swaps := ofType(recs, models.AdjustSwapToRecovery)
	require.Len(t, swaps, 1)
	assert.Equal(t, []string{"w1d3"}, swaps[0].AffectedSessionIDs)
	adj := swaps[0].VolumeAdjustments[0]
	require.NotNil(t, adj.TypeOverride)
	assert.Equal(t, models.SessionRecovery, *adj.TypeOverride)
	assert.InDelta(t, -4, adj.AddedDistanceKm, 1e-9)

	reductions := ofType(recs, models.AdjustReduceVolume)
	require.Len(t, reductions, 1)
	assert.Equal(t, 25.0, reductions[0].ReductionPercent)
}

func TestAnalyze_LowRecovery(t *testing.T) {
	t.Run("low", func(t *testing.T) {
		plan := makePlan(standardWeek)
		recs := testAnalyzer().Analyze(plan, at(0, 0), nil, ptr(30))

		require.Len(t, recs, 1)
		assert.Equal(t, models.AdjustReduceIntensity, recs[0].Type)
		assert.Equal(t, models.SeverityRecommended, recs[0].Severity)
		assert.Equal(t, 20.0, recs[0].ReductionPercent)
		assert.Equal(t, []string{"w1d3"}, recs[0].AffectedSessionIDs)
	})

	t.Run("critical", func(t *testing.T) {
		plan := makePlan(standardWeek)
		recs := testAnalyzer().Analyze(plan, at(0, 0), nil, ptr(20))

		require.Len(t, recs, 1)
		assert.Equal(t, models.AdjustSwapToRecovery, recs[0].Type)
		assert.Equal(t, models.SeverityUrgent, recs[0].Severity)
	})

	t.Run("fine", func(t *testing.T) {
		plan := makePlan(standardWeek)
		assert.Empty(t, testAnalyzer().Analyze(plan, at(0, 0), nil, ptr(40)))
	})

	t.Run("no hard session left", func(t *testing.T) {
		plan := makePlan(standardWeek)
		complete(plan, "w1d2", "w1d3")
		assert.Empty(t, testAnalyzer().Analyze(plan, at(0, 3), nil, ptr(30)))
	})
}

func TestAnalyze_RescheduleMissedKeySessions(t *testing.T) {
	plan := makePlan(standardWeek, standardWeek, standardWeek)
	complete(plan, "w1d2", "w1d4", "w1d7", "w2d2")

	recs := testAnalyzer().Analyze(plan, at(1, 2), nil, nil)
	assertSeveritySorted(t, recs)

	reschedules := ofType(recs, models.AdjustRescheduleMissedSession)
	require.Len(t, reschedules, 2)

	// oldest missed first, earliest open rest day first
	assert.Equal(t, []string{"w1d3", "w2d5"}, reschedules[0].AffectedSessionIDs)
	assert.Equal(t, []string{"w1d6", "w3d1"}, reschedules[1].AffectedSessionIDs)
	assert.Equal(t, models.SeverityRecommended, reschedules[0].Severity)

	adj := reschedules[1].VolumeAdjustments[0]
	assert.Equal(t, "w3d1", adj.SessionID)
	assert.Equal(t, 20.0, adj.AddedDistanceKm)
	require.NotNil(t, adj.TypeOverride)
	assert.Equal(t, models.SessionLongRun, *adj.TypeOverride)

	// both missed sessions are handled, so nothing is redistributed
	assert.Empty(t, ofType(recs, models.AdjustRedistributeMissedVolume))
	// 3 of 5 completed last week is enough
	for _, r := range ofType(recs, models.AdjustReduceVolume) {
		assert.NotEqual(t, 20.0, r.ReductionPercent)
	}
}

func TestAnalyze_RescheduleKeepsRaceRestDaysFree(t *testing.T) {
	raceWeek := [7]slotDef{
		{models.SessionRest, 0},
		{models.SessionEasy, 6},
		{models.SessionEasy, 5},
		{models.SessionRecovery, 4},
		{models.SessionRest, 0},
		{models.SessionRace, 30},
		{models.SessionRecovery, 4},
	}

	t.Run("rest day before race", func(t *testing.T) {
		plan := makePlan(standardWeek, raceWeek)
		complete(plan, "w1d2", "w1d4", "w1d7")

		recs := testAnalyzer().Analyze(plan, at(1, 0), nil, nil)

		reschedules := ofType(recs, models.AdjustRescheduleMissedSession)
		require.Len(t, reschedules, 1)
		// the long run has no slot left since w2d5 is the day before the race
		assert.Equal(t, []string{"w1d3", "w2d1"}, reschedules[0].AffectedSessionIDs)
	})

	t.Run("race phase week", func(t *testing.T) {
		plan := makePlan(standardWeek, standardWeek)
		plan.Weeks[1].Phase = models.PhaseRace
		complete(plan, "w1d2", "w1d4", "w1d7")

		recs := testAnalyzer().Analyze(plan, at(1, 0), nil, nil)

		assert.Empty(t, ofType(recs, models.AdjustRescheduleMissedSession))
	})
}

func TestAnalyze_MoreMissedThanRestSlots(t *testing.T) {
	plan := makePlan(standardWeek, standardWeek)
	complete(plan, "w1d2", "w1d4", "w1d7", "w2d2", "w2d3", "w2d4")

	// week 2 Saturday: no open rest day remains
	recs := testAnalyzer().Analyze(plan, at(1, 5), nil, nil)

	assert.Empty(t, ofType(recs, models.AdjustRescheduleMissedSession))
	redistributed := ofType(recs, models.AdjustRedistributeMissedVolume)
	require.NotEmpty(t, redistributed)
	assert.Equal(t, "w1d3", redistributed[0].AffectedSessionIDs[0])
}

func TestAnalyze_LowAdherenceAndStale(t *testing.T) {
	plan := makePlan(standardWeek, standardWeek)
	complete(plan, "w1d7")

	recs := testAnalyzer().Analyze(plan, at(1, 0), nil, nil)
	assertSeveritySorted(t, recs)

	var lowAdherence []models.PlanAdjustmentRecommendation
	for _, r := range ofType(recs, models.AdjustReduceVolume) {
		if r.ReductionPercent == 20 {
			lowAdherence = append(lowAdherence, r)
		}
	}
	require.Len(t, lowAdherence, 1)
	assert.Equal(t, models.SeverityRecommended, lowAdherence[0].Severity)
	assert.Equal(t, []string{"w2d2", "w2d3", "w2d4", "w2d6", "w2d7"}, lowAdherence[0].AffectedSessionIDs)

	stale := ofType(recs, models.AdjustMarkSessionsSkipped)
	require.Len(t, stale, 1)
	assert.Equal(t, models.SeveritySuggestion, stale[0].Severity)
	assert.Equal(t, []string{"w1d2", "w1d3", "w1d4", "w1d6"}, stale[0].AffectedSessionIDs)
	assert.Equal(t, stale[0], recs[len(recs)-1])

	accumulated := ofType(recs, models.AdjustReduceVolume)
	var urgent int
	for _, r := range accumulated {
		if r.Severity == models.SeverityUrgent {
			urgent++
			assert.Equal(t, 15.0, r.ReductionPercent)
		}
	}
	assert.Equal(t, 1, urgent, "46 km missed crosses the accumulated threshold")
}

func TestAnalyze_ExtendedGapSuppressesReschedule(t *testing.T) {
	plan := makePlan(standardWeek, standardWeek, standardWeek)

	// nothing completed since the plan started nine days ago
	recs := testAnalyzer().Analyze(plan, at(1, 2), nil, nil)
	assertSeveritySorted(t, recs)

	gaps := ofType(recs, models.AdjustConvertToRecoveryWeek)
	require.Len(t, gaps, 1)
	gap := gaps[0]
	assert.Equal(t, models.SeverityUrgent, gap.Severity)
	assert.Equal(t, []string{"w2d3", "w2d4", "w2d6", "w2d7"}, gap.AffectedSessionIDs)
	for _, adj := range gap.VolumeAdjustments {
		s := plan.Session(adj.SessionID)
		assert.InDelta(t, -s.PlannedDistanceKm*0.3, adj.AddedDistanceKm, 1e-9)
		if s.Type.IsHard() {
			require.NotNil(t, adj.TypeOverride)
			assert.Equal(t, models.SessionRecovery, *adj.TypeOverride)
		} else {
			assert.Nil(t, adj.TypeOverride)
		}
	}

	assert.Empty(t, ofType(recs, models.AdjustRescheduleMissedSession))
	for _, r := range ofType(recs, models.AdjustReduceVolume) {
		assert.NotEqual(t, 20.0, r.ReductionPercent, "low adherence is suppressed")
	}
	assert.Len(t, ofType(recs, models.AdjustMarkSessionsSkipped), 1)
}

func TestAnalyze_ExtendedGapSkippedInRecoveryWeek(t *testing.T) {
	plan := makePlan(standardWeek, standardWeek)
	plan.Weeks[1].IsRecoveryWeek = true

	recs := testAnalyzer().Analyze(plan, at(1, 2), nil, nil)

	assert.Empty(t, ofType(recs, models.AdjustConvertToRecoveryWeek))
	assert.NotEmpty(t, ofType(recs, models.AdjustRescheduleMissedSession))
}

func TestAnalyze_RecentCompletionResetsGap(t *testing.T) {
	plan := makePlan(standardWeek, standardWeek)
	complete(plan, "w1d6")

	recs := testAnalyzer().Analyze(plan, at(1, 2), nil, nil)

	assert.Empty(t, ofType(recs, models.AdjustConvertToRecoveryWeek))
}

func TestAnalyze_SeverityOrdering(t *testing.T) {
	plan := makePlan(standardWeek, standardWeek, standardWeek)
	complete(plan, "w1d7")

	recs := testAnalyzer().Analyze(plan, at(1, 1), &models.FitnessSnapshot{Form: -30, AcuteChronicRatio: 1.7}, ptr(35))

	require.NotEmpty(t, recs)
	assertSeveritySorted(t, recs)

	ids := map[string]bool{}
	for _, r := range recs {
		assert.False(t, ids[r.ID], "duplicate recommendation id %s", r.ID)
		ids[r.ID] = true
	}
}

func ptr(v float64) *float64 {
	return &v
}

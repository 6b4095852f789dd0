package adaptation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runcoach/internal/models"
)

func TestAnalyzeRedistribution_SplitCappedBySessionIncrease(t *testing.T) {
	plan := makePlan([7]slotDef{
		{models.SessionRest, 0},
		{models.SessionLongRun, 20},
		{models.SessionRest, 0},
		{models.SessionEasy, 10},
		{models.SessionEasy, 8},
		{models.SessionRecovery, 6},
		{models.SessionRest, 0},
	})

	res := testRedistributor().AnalyzeRedistribution(plan, at(0, 2), 0, nil)

	assert.InDelta(t, 20, res.MissedDistanceKm, 1e-9)
	assert.InDelta(t, 2.4, res.DistributedDistanceKm, 1e-9)
	assert.InDelta(t, 17.6, res.UnrecoverableDistanceKm, 1e-9)
	assert.InDelta(t, 400, res.MissedElevationM, 1e-9)
	assert.InDelta(t, 48, res.DistributedElevationM, 1e-9)
	assert.InDelta(t, 352, res.UnrecoverableElevationM, 1e-9)

	require.Len(t, res.Recommendations, 1)
	rec := res.Recommendations[0]
	assert.Equal(t, models.AdjustRedistributeMissedVolume, rec.Type)
	assert.Equal(t, []string{"w1d2", "w1d4", "w1d5", "w1d6"}, rec.AffectedSessionIDs)
	require.Len(t, rec.VolumeAdjustments, 3)
	assert.InDelta(t, 1.0, rec.VolumeAdjustments[0].AddedDistanceKm, 1e-9)
	assert.InDelta(t, 0.8, rec.VolumeAdjustments[1].AddedDistanceKm, 1e-9)
	assert.InDelta(t, 0.6, rec.VolumeAdjustments[2].AddedDistanceKm, 1e-9)
	for _, adj := range rec.VolumeAdjustments {
		assert.Nil(t, adj.TypeOverride)
	}
}

func TestAnalyzeRedistribution_SharesWhenCapacityIsLarge(t *testing.T) {
	plan := makePlan([7]slotDef{
		{models.SessionRest, 0},
		{models.SessionLongRun, 10},
		{models.SessionRest, 0},
		{models.SessionEasy, 100},
		{models.SessionEasy, 100},
		{models.SessionEasy, 100},
		{models.SessionEasy, 100},
	})

	res := testRedistributor().AnalyzeRedistribution(plan, at(0, 2), 0, nil)

	require.Len(t, res.Recommendations, 1)
	adj := res.Recommendations[0].VolumeAdjustments
	require.Len(t, adj, 3, "only the first three candidates take volume")
	assert.InDelta(t, 4.0, adj[0].AddedDistanceKm, 1e-9)
	assert.InDelta(t, 3.5, adj[1].AddedDistanceKm, 1e-9)
	assert.InDelta(t, 2.5, adj[2].AddedDistanceKm, 1e-9)
	assert.InDelta(t, 0, res.UnrecoverableDistanceKm, 1e-9)
}

func TestAnalyzeRedistribution_QualityConvertsRecovery(t *testing.T) {
	plan := makePlan([7]slotDef{
		{models.SessionRest, 0},
		{models.SessionIntervals, 10},
		{models.SessionRest, 0},
		{models.SessionEasy, 8},
		{models.SessionRest, 0},
		{models.SessionRecovery, 6},
		{models.SessionRecovery, 6},
	})

	res := testRedistributor().AnalyzeRedistribution(plan, at(0, 2), 0, nil)

	require.Len(t, res.Recommendations, 1)
	adj := res.Recommendations[0].VolumeAdjustments
	require.Len(t, adj, 1)
	assert.Equal(t, "w1d6", adj[0].SessionID)
	require.NotNil(t, adj[0].TypeOverride)
	assert.Equal(t, models.SessionIntervals, *adj[0].TypeOverride)
	assert.InDelta(t, 4, adj[0].AddedDistanceKm, 1e-9)
	assert.InDelta(t, 10, res.DistributedDistanceKm, 1e-9)
	assert.InDelta(t, 0, res.UnrecoverableDistanceKm, 1e-9)
}

func TestAnalyzeRedistribution_QualityWithoutRecoverySlot(t *testing.T) {
	plan := makePlan([7]slotDef{
		{models.SessionRest, 0},
		{models.SessionTempo, 9},
		{models.SessionRest, 0},
		{models.SessionEasy, 8},
		{models.SessionRest, 0},
		{models.SessionLongRun, 20},
		{models.SessionEasy, 6},
	})

	res := testRedistributor().AnalyzeRedistribution(plan, at(0, 2), 0, nil)

	assert.Empty(t, res.Recommendations)
	assert.InDelta(t, 9, res.UnrecoverableDistanceKm, 1e-9)
	assert.InDelta(t, 180, res.UnrecoverableElevationM, 1e-9)
}

func TestAnalyzeRedistribution_Excluded(t *testing.T) {
	plan := makePlan(standardWeek)

	res := testRedistributor().AnalyzeRedistribution(plan, at(0, 6), 0, map[string]bool{"w1d3": true, "w1d6": true})

	assert.Empty(t, res.Recommendations)
	assert.Zero(t, res.MissedDistanceKm)
}

func TestAnalyzeRedistribution_CapacitySharedAcrossMissedSessions(t *testing.T) {
	prior := [7]slotDef{
		{models.SessionRest, 0},
		{models.SessionEasy, 8},
		{models.SessionRest, 0},
		{models.SessionEasy, 8},
		{models.SessionRest, 0},
		{models.SessionLongRun, 20},
		{models.SessionBackToBack, 10},
	}
	current := [7]slotDef{
		{models.SessionRest, 0},
		{models.SessionEasy, 10},
		{models.SessionEasy, 8},
		{models.SessionEasy, 6},
		{models.SessionRest, 0},
		{models.SessionRest, 0},
		{models.SessionRest, 0},
	}
	plan := makePlan(prior, current)

	res := testRedistributor().AnalyzeRedistribution(plan, at(1, 0), 1, nil)

	require.Len(t, res.Recommendations, 1, "back-to-back finds no capacity left")
	assert.InDelta(t, 30, res.MissedDistanceKm, 1e-9)
	assert.InDelta(t, 2.4, res.DistributedDistanceKm, 1e-9)
	assert.InDelta(t, 27.6, res.UnrecoverableDistanceKm, 1e-9)
}

func TestAnalyzeRedistribution_Conservation(t *testing.T) {
	scenarios := []struct {
		name string
		plan *models.TrainingPlan
		idx  int
		day  int
	}{
		{"standard week mid-week", makePlan(standardWeek, standardWeek), 0, 6},
		{"second week monday", makePlan(standardWeek, standardWeek), 1, 0},
		{"second week friday", makePlan(standardWeek, standardWeek), 1, 4},
	}

	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			res := testRedistributor().AnalyzeRedistribution(sc.plan, at(sc.idx, sc.day), sc.idx, nil)

			assert.LessOrEqual(t, res.DistributedDistanceKm, res.MissedDistanceKm+1e-9)
			assert.InDelta(t, res.MissedDistanceKm-res.DistributedDistanceKm, res.UnrecoverableDistanceKm, 1e-9)
			assert.InDelta(t, res.MissedElevationM-res.DistributedElevationM, res.UnrecoverableElevationM, 1e-9)
			assert.GreaterOrEqual(t, res.UnrecoverableDistanceKm, -1e-9)

			var added float64
			for _, r := range res.Recommendations {
				for _, a := range r.VolumeAdjustments {
					if a.TypeOverride == nil {
						added += a.AddedDistanceKm
					}
				}
			}
			assert.LessOrEqual(t, added, res.DistributedDistanceKm+1e-9)
		})
	}
}

func TestAnalyzeRedistribution_OutOfRangeWeek(t *testing.T) {
	plan := makePlan(standardWeek)
	assert.Empty(t, testRedistributor().AnalyzeRedistribution(plan, at(0, 6), -1, nil).Recommendations)
	assert.Empty(t, testRedistributor().AnalyzeRedistribution(plan, at(0, 6), 3, nil).Recommendations)
}

func TestAccumulatedMissedVolume(t *testing.T) {
	plan := makePlan(standardWeek, standardWeek, standardWeek)
	complete(plan, "w1d2", "w2d2")
	plan.Session("w2d3").IsSkipped = true

	// now is week 3 Wednesday: a one week window starts week 2 Wednesday
	km, elev := AccumulatedMissedVolume(plan, at(2, 2), 1)

	// week2 Thu 8, Sat 20, Sun 6; week3 Tue 8
	assert.InDelta(t, 42, km, 1e-9)
	assert.InDelta(t, 840, elev, 1e-9)

	// two weeks add week1 Wed 10, Thu 8, Sat 20, Sun 6
	km, _ = AccumulatedMissedVolume(plan, at(2, 2), 2)
	assert.InDelta(t, 86, km, 1e-9)

	km, _ = AccumulatedMissedVolume(plan, at(0, 0), 2)
	assert.Zero(t, km)
}

package adaptation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"runcoach/internal/config"
	"runcoach/internal/models"
	"runcoach/internal/training"
)

// planStart is a Monday
var planStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type slotDef struct {
	typ models.SessionType
	km  float64
}

var standardWeek = [7]slotDef{
	{models.SessionRest, 0},
	{models.SessionEasy, 8},
	{models.SessionIntervals, 10},
	{models.SessionEasy, 8},
	{models.SessionRest, 0},
	{models.SessionLongRun, 20},
	{models.SessionRecovery, 6},
}

// makePlan builds weeks from planStart; session ids are w<week>d<isoDay>
// and elevation is 20 m per km
func makePlan(weeks ...[7]slotDef) *models.TrainingPlan {
	plan := &models.TrainingPlan{ID: "plan-1", Status: models.PlanStatusActive}
	for wi, days := range weeks {
		start := planStart.AddDate(0, 0, 7*wi)
		week := models.TrainingWeek{
			WeekNumber: wi + 1,
			StartDate:  start,
			EndDate:    start.AddDate(0, 0, 6),
			Phase:      models.PhaseBuild,
		}
		for di, d := range days {
			intensity := d.typ.DefaultIntensity()
			week.Sessions = append(week.Sessions, models.TrainingSession{
				ID:                fmt.Sprintf("w%dd%d", wi+1, di+1),
				Date:              start.AddDate(0, 0, di),
				Type:              d.typ,
				Intensity:         intensity,
				PlannedDistanceKm: d.km,
				PlannedElevationM: d.km * 20,
				PlannedDuration:   training.EstimateDuration(d.km, intensity),
			})
		}
		plan.Weeks = append(plan.Weeks, week)
	}
	return plan
}

func complete(plan *models.TrainingPlan, ids ...string) {
	for _, id := range ids {
		plan.Session(id).IsCompleted = true
	}
}

func testAnalyzer() *Analyzer {
	n := 0
	return &Analyzer{
		Thresholds: config.DefaultThresholds(),
		NewID: func() string {
			n++
			return fmt.Sprintf("rec-%d", n)
		},
	}
}

func testRedistributor() *Redistributor {
	return &Redistributor{Thresholds: config.DefaultThresholds(), NewID: func() string { return "rec" }}
}

func at(weekIdx, dayOffset int) time.Time {
	return planStart.AddDate(0, 0, 7*weekIdx+dayOffset).Add(8 * time.Hour)
}

func ofType(recs []models.PlanAdjustmentRecommendation, typ models.AdjustmentType) []models.PlanAdjustmentRecommendation {
	var out []models.PlanAdjustmentRecommendation
	for _, r := range recs {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

func assertSeveritySorted(t *testing.T, recs []models.PlanAdjustmentRecommendation) {
	t.Helper()
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Severity, recs[i].Severity, "position %d", i)
	}
}

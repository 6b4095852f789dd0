package adaptation

import (
	"fmt"
	"math"
	"time"

	"runcoach/internal/config"
	"runcoach/internal/models"
)

// splitShares are the portions of a missed splittable session offered to the
// first three future candidates
var splitShares = []float64{0.40, 0.35, 0.25}

// RedistributionResult reports what happened to missed key volume
type RedistributionResult struct {
	Recommendations         []models.PlanAdjustmentRecommendation
	MissedDistanceKm        float64
	DistributedDistanceKm   float64
	UnrecoverableDistanceKm float64
	MissedElevationM        float64
	DistributedElevationM   float64
	UnrecoverableElevationM float64
}

// Redistributor moves missed key-session volume into future sessions
type Redistributor struct {
	Thresholds config.Thresholds
	NewID      func() string
}

// AnalyzeRedistribution proposes where missed long runs, vertical sessions,
// back-to-backs and quality sessions from the prior and current week can be
// made up. Sessions whose id is in excluded are already handled elsewhere.
// Splittable sessions are spread over up to three future sessions, each
// addition capped at MaxSessionIncreasePercent of that session's planned
// distance. A quality session converts the first future recovery session.
// Whatever cannot be placed is reported as unrecoverable.
func (r *Redistributor) AnalyzeRedistribution(plan *models.TrainingPlan, now time.Time, currentWeekIndex int, excluded map[string]bool) RedistributionResult {
	var res RedistributionResult
	if currentWeekIndex < 0 || currentWeekIndex >= len(plan.Weeks) {
		return res
	}
	today := models.StartOfDay(now)

	var missed []*models.TrainingSession
	for _, s := range sessionsIn(plan, currentWeekIndex-1, currentWeekIndex) {
		if !s.IsMissed(today) || excluded[s.ID] {
			continue
		}
		if s.Type.IsSplittable() || s.Type.IsQuality() {
			missed = append(missed, s)
		}
	}
	if len(missed) == 0 {
		return res
	}

	candidates := remaining(sessionsIn(plan, currentWeekIndex, currentWeekIndex+1), today)
	used := make(map[string]float64)
	converted := make(map[string]bool)
	maxPct := r.Thresholds.MaxSessionIncreasePercent

	for _, m := range missed {
		res.MissedDistanceKm += m.PlannedDistanceKm
		res.MissedElevationM += m.PlannedElevationM

		var adjustments []models.VolumeAdjustment
		var placedKm, placedElev float64

		if m.Type.IsSplittable() {
			n := 0
			for _, c := range candidates {
				if n == len(splitShares) {
					break
				}
				if converted[c.ID] {
					continue
				}
				share := splitShares[n]
				n++

				capacity := c.PlannedDistanceKm*maxPct/100 - used[c.ID]
				add := math.Min(m.PlannedDistanceKm*share, capacity)
				if add <= 0 {
					continue
				}
				elev := 0.0
				if m.PlannedDistanceKm > 0 {
					elev = m.PlannedElevationM * add / m.PlannedDistanceKm
				}
				used[c.ID] += add
				placedKm += add
				placedElev += elev
				adjustments = append(adjustments, models.VolumeAdjustment{
					SessionID:       c.ID,
					AddedDistanceKm: add,
					AddedElevationM: elev,
				})
			}
		} else {
			for _, c := range candidates {
				if c.Type != models.SessionRecovery || converted[c.ID] || used[c.ID] > 0 {
					continue
				}
				converted[c.ID] = true
				typ := m.Type
				adjustments = append(adjustments, models.VolumeAdjustment{
					SessionID:       c.ID,
					AddedDistanceKm: math.Max(c.PlannedDistanceKm, m.PlannedDistanceKm) - c.PlannedDistanceKm,
					AddedElevationM: math.Max(c.PlannedElevationM, m.PlannedElevationM) - c.PlannedElevationM,
					TypeOverride:    &typ,
				})
				placedKm = m.PlannedDistanceKm
				placedElev = m.PlannedElevationM
				break
			}
		}

		res.DistributedDistanceKm += placedKm
		res.DistributedElevationM += placedElev
		if len(adjustments) == 0 {
			continue
		}

		ids := []string{m.ID}
		for _, a := range adjustments {
			ids = append(ids, a.SessionID)
		}
		res.Recommendations = append(res.Recommendations, models.PlanAdjustmentRecommendation{
			ID:                 r.NewID(),
			Type:               models.AdjustRedistributeMissedVolume,
			Severity:           models.SeverityRecommended,
			Title:              "Make up missed " + m.Type.Name(),
			Message:            redistributionMessage(m, placedKm, len(adjustments)),
			ActionLabel:        "Redistribute",
			AffectedSessionIDs: ids,
			VolumeAdjustments:  adjustments,
		})
	}

	res.UnrecoverableDistanceKm = res.MissedDistanceKm - res.DistributedDistanceKm
	res.UnrecoverableElevationM = res.MissedElevationM - res.DistributedElevationM
	return res
}

func redistributionMessage(m *models.TrainingSession, placedKm float64, targets int) string {
	if m.Type.IsQuality() {
		return fmt.Sprintf("%s from %s moved into an upcoming recovery day.", m.Type.Name(), m.Date.Format("Mon Jan 2"))
	}
	return fmt.Sprintf("%.1f of %.1f km from %s spread over %d upcoming sessions; the rest is dropped to keep increases safe.",
		placedKm, m.PlannedDistanceKm, m.Date.Format("Mon Jan 2"), targets)
}

// AccumulatedMissedVolume sums distance and elevation of non-rest sessions in
// the trailing lookbackWeeks that were neither completed nor skipped
func AccumulatedMissedVolume(plan *models.TrainingPlan, now time.Time, lookbackWeeks int) (float64, float64) {
	today := models.StartOfDay(now)
	from := today.AddDate(0, 0, -7*lookbackWeeks)

	var km, elev float64
	for wi := range plan.Weeks {
		for si := range plan.Weeks[wi].Sessions {
			s := &plan.Weeks[wi].Sessions[si]
			if s.Type.IsRest() || s.Date.Before(from) || !s.IsMissed(today) {
				continue
			}
			km += s.PlannedDistanceKm
			elev += s.PlannedElevationM
		}
	}
	return km, elev
}

// Package adaptation inspects a live plan against completion, fitness and
// recovery signals and proposes adjustments. Nothing here mutates a plan
// except Apply.
package adaptation

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"runcoach/internal/config"
	"runcoach/internal/models"
)

const (
	fatigueFormThreshold       = -15.0
	fatigueACRThreshold        = 1.3
	severeFatigueFormThreshold = -25.0
	severeFatigueACRThreshold  = 1.5
	fatigueReductionPercent    = 15.0
	severeReductionPercent     = 25.0
	intensityReductionPercent  = 20.0
	swapDistanceFactor         = 0.6
)

// Analyzer runs the adjustment detectors over a plan
type Analyzer struct {
	Thresholds config.Thresholds
	NewID      func() string
}

// NewAnalyzer creates an analyzer with uuid recommendation ids
func NewAnalyzer(th config.Thresholds) *Analyzer {
	return &Analyzer{Thresholds: th, NewID: uuid.NewString}
}

// Report is the full outcome of one analysis
type Report struct {
	Recommendations []models.PlanAdjustmentRecommendation
	Redistribution  RedistributionResult
}

// Analyze returns recommendations sorted by severity, most pressing first.
// snapshot and recoveryScore are optional; detectors that need them are
// skipped when nil. The plan is not modified.
func (a *Analyzer) Analyze(plan *models.TrainingPlan, now time.Time, snapshot *models.FitnessSnapshot, recoveryScore *float64) []models.PlanAdjustmentRecommendation {
	return a.Report(plan, now, snapshot, recoveryScore).Recommendations
}

// Report runs every detector and also returns the redistribution totals
func (a *Analyzer) Report(plan *models.TrainingPlan, now time.Time, snapshot *models.FitnessSnapshot, recoveryScore *float64) Report {
	if plan == nil {
		return Report{}
	}
	today := models.StartOfDay(now)
	idx := plan.WeekIndexFor(today)
	if idx < 0 {
		return Report{}
	}

	var recs []models.PlanAdjustmentRecommendation
	add := func(r *models.PlanAdjustmentRecommendation) {
		if r != nil {
			r.ID = a.NewID()
			recs = append(recs, *r)
		}
	}

	gap := a.extendedGap(plan, today, idx)
	add(gap)

	handled := make(map[string]bool)
	if gap == nil {
		for _, r := range a.rescheduleMissed(plan, today, idx) {
			handled[r.AffectedSessionIDs[0]] = true
			add(&r)
		}
		add(a.lowAdherence(plan, today, idx))
	}

	add(a.staleMissed(plan, today))

	redistributor := &Redistributor{Thresholds: a.Thresholds, NewID: a.NewID}
	redistribution := redistributor.AnalyzeRedistribution(plan, now, idx, handled)
	recs = append(recs, redistribution.Recommendations...)

	add(a.accumulatedMissed(plan, today, idx))

	if snapshot != nil {
		add(a.fatigue(plan, today, idx, *snapshot))
		if snapshot.AcuteChronicRatio > severeFatigueACRThreshold {
			add(swapNextHard(plan, today, idx, "Training load spike",
				fmt.Sprintf("Acute:chronic ratio is %.2f. Swap the next hard session for easy recovery.", snapshot.AcuteChronicRatio)))
		}
	}

	if recoveryScore != nil {
		add(a.lowRecovery(plan, today, idx, *recoveryScore))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Severity > recs[j].Severity
	})
	return Report{Recommendations: recs, Redistribution: redistribution}
}

// extendedGap fires when nothing has been completed for ExtendedGapDays.
// Without any completed session the gap is measured from the plan start.
func (a *Analyzer) extendedGap(plan *models.TrainingPlan, today time.Time, idx int) *models.PlanAdjustmentRecommendation {
	if plan.Weeks[idx].IsRecoveryWeek || a.Thresholds.ExtendedGapDays <= 0 {
		return nil
	}

	last := plan.StartDate()
	for _, s := range sessionsIn(plan, 0, len(plan.Weeks)-1) {
		if s.IsCompleted && !s.Date.After(today) && s.Date.After(last) {
			last = s.Date
		}
	}
	days := daysBetween(last, today)
	if days < a.Thresholds.ExtendedGapDays {
		return nil
	}

	targets := remaining(sessionsIn(plan, idx, idx), today)
	if len(targets) == 0 {
		return nil
	}

	pct := a.Thresholds.RecoveryWeekReductionPercent
	adjustments := make([]models.VolumeAdjustment, 0, len(targets))
	for _, s := range targets {
		adj := reduceBy(s, pct)
		if s.Type.IsHard() {
			recovery := models.SessionRecovery
			adj.TypeOverride = &recovery
		}
		adjustments = append(adjustments, adj)
	}

	return &models.PlanAdjustmentRecommendation{
		Type:               models.AdjustConvertToRecoveryWeek,
		Severity:           models.SeverityUrgent,
		Title:              "Ease back in after a break",
		Message:            fmt.Sprintf("No completed session in %d days. Turn the rest of this week into a recovery week.", days),
		ActionLabel:        "Convert to recovery week",
		AffectedSessionIDs: idsOf(targets),
		VolumeAdjustments:  adjustments,
		ReductionPercent:   pct,
	}
}

// rescheduleMissed matches missed key sessions, oldest first, to the earliest
// open rest day from today through next week. Rest days in a race week or
// next to a race stay free.
func (a *Analyzer) rescheduleMissed(plan *models.TrainingPlan, today time.Time, idx int) []models.PlanAdjustmentRecommendation {
	var raceDays []time.Time
	for _, s := range sessionsIn(plan, idx-1, idx+2) {
		if s.Type == models.SessionRace {
			raceDays = append(raceDays, s.Date)
		}
	}

	var slots []*models.TrainingSession
	for wi := idx; wi <= idx+1 && wi < len(plan.Weeks); wi++ {
		if plan.Weeks[wi].Phase == models.PhaseRace {
			continue
		}
		for si := range plan.Weeks[wi].Sessions {
			s := &plan.Weeks[wi].Sessions[si]
			if s.Type.IsRest() && s.IsOpen() && !s.Date.Before(today) && !nextToRace(s.Date, raceDays) {
				slots = append(slots, s)
			}
		}
	}

	var recs []models.PlanAdjustmentRecommendation
	for _, s := range sessionsIn(plan, idx-1, idx) {
		if len(slots) == 0 {
			break
		}
		if !s.Type.IsKey() || !s.IsMissed(today) {
			continue
		}
		slot := slots[0]
		slots = slots[1:]

		typ := s.Type
		recs = append(recs, models.PlanAdjustmentRecommendation{
			Type:     models.AdjustRescheduleMissedSession,
			Severity: models.SeverityRecommended,
			Title:    "Reschedule missed " + s.Type.Name(),
			Message: fmt.Sprintf("%s from %s can move to the rest day on %s.",
				s.Type.Name(), s.Date.Format("Mon Jan 2"), slot.Date.Format("Mon Jan 2")),
			ActionLabel:        "Reschedule",
			AffectedSessionIDs: []string{s.ID, slot.ID},
			VolumeAdjustments: []models.VolumeAdjustment{{
				SessionID:       slot.ID,
				AddedDistanceKm: s.PlannedDistanceKm,
				AddedElevationM: s.PlannedElevationM,
				TypeOverride:    &typ,
			}},
		})
	}
	return recs
}

// lowAdherence compares last week's completed share of non-rest sessions
// against LowAdherenceThreshold
func (a *Analyzer) lowAdherence(plan *models.TrainingPlan, today time.Time, idx int) *models.PlanAdjustmentRecommendation {
	if idx == 0 {
		return nil
	}
	prior := &plan.Weeks[idx-1]
	if !prior.EndDate.Before(today) {
		return nil
	}

	var planned, completed int
	for i := range prior.Sessions {
		s := &prior.Sessions[i]
		if s.Type.IsRest() {
			continue
		}
		planned++
		if s.IsCompleted {
			completed++
		}
	}
	if planned == 0 {
		return nil
	}
	ratio := float64(completed) / float64(planned)
	if ratio >= a.Thresholds.LowAdherenceThreshold {
		return nil
	}

	targets := remaining(sessionsIn(plan, idx, idx), today)
	if len(targets) == 0 {
		return nil
	}
	pct := a.Thresholds.LowAdherenceReductionPercent
	return reduction(targets, pct, models.SeverityRecommended,
		"Last week was light",
		fmt.Sprintf("Only %d of %d sessions completed last week. Reduce this week's remaining volume by %.0f%%.", completed, planned, pct))
}

// staleMissed suggests marking old unmarked sessions as skipped
func (a *Analyzer) staleMissed(plan *models.TrainingPlan, today time.Time) *models.PlanAdjustmentRecommendation {
	var stale []*models.TrainingSession
	for _, s := range sessionsIn(plan, 0, len(plan.Weeks)-1) {
		if !s.Type.IsRest() && s.IsMissed(today) {
			stale = append(stale, s)
		}
	}
	if len(stale) == 0 || len(stale) < a.Thresholds.StaleMissedSessionThreshold {
		return nil
	}
	return &models.PlanAdjustmentRecommendation{
		Type:               models.AdjustMarkSessionsSkipped,
		Severity:           models.SeveritySuggestion,
		Title:              "Tidy up past sessions",
		Message:            fmt.Sprintf("%d past sessions are neither completed nor skipped.", len(stale)),
		ActionLabel:        "Mark as skipped",
		AffectedSessionIDs: idsOf(stale),
	}
}

func (a *Analyzer) accumulatedMissed(plan *models.TrainingPlan, today time.Time, idx int) *models.PlanAdjustmentRecommendation {
	km, _ := AccumulatedMissedVolume(plan, today, a.Thresholds.RedistributionLookbackWeeks)
	if km < a.Thresholds.AccumulatedMissedVolumeKm || km == 0 {
		return nil
	}
	targets := remaining(sessionsIn(plan, idx, idx+1), today)
	if len(targets) == 0 {
		return nil
	}
	pct := a.Thresholds.AccumulatedMissedReductionPercent
	return reduction(targets, pct, models.SeverityUrgent,
		"Missed volume is piling up",
		fmt.Sprintf("%.1f km missed over the last %d weeks. Scale back the next two weeks by %.0f%% instead of catching up.",
			km, a.Thresholds.RedistributionLookbackWeeks, pct))
}

func (a *Analyzer) fatigue(plan *models.TrainingPlan, today time.Time, idx int, snap models.FitnessSnapshot) *models.PlanAdjustmentRecommendation {
	severity := models.SeverityRecommended
	pct := fatigueReductionPercent
	switch {
	case snap.Form < severeFatigueFormThreshold || snap.AcuteChronicRatio > severeFatigueACRThreshold:
		severity = models.SeverityUrgent
		pct = severeReductionPercent
	case snap.Form < fatigueFormThreshold || snap.AcuteChronicRatio > fatigueACRThreshold:
	default:
		return nil
	}

	targets := remaining(sessionsIn(plan, idx, idx), today)
	if len(targets) == 0 {
		return nil
	}
	return reduction(targets, pct, severity,
		"Fatigue is building",
		fmt.Sprintf("Form %.1f, acute:chronic ratio %.2f. Reduce the rest of this week by %.0f%%.", snap.Form, snap.AcuteChronicRatio, pct))
}

func (a *Analyzer) lowRecovery(plan *models.TrainingPlan, today time.Time, idx int, score float64) *models.PlanAdjustmentRecommendation {
	if score >= a.Thresholds.LowRecoveryThreshold {
		return nil
	}
	if score < a.Thresholds.CriticalRecoveryThreshold {
		return swapNextHard(plan, today, idx, "Recovery is critically low",
			fmt.Sprintf("Recovery score %.0f. Swap the next hard session for easy recovery.", score))
	}

	var hard []*models.TrainingSession
	for _, s := range remaining(sessionsIn(plan, idx, idx), today) {
		if s.Type.IsHard() {
			hard = append(hard, s)
		}
	}
	if len(hard) == 0 {
		return nil
	}
	return &models.PlanAdjustmentRecommendation{
		Type:               models.AdjustReduceIntensity,
		Severity:           models.SeverityRecommended,
		Title:              "Recovery is low",
		Message:            fmt.Sprintf("Recovery score %.0f. Run this week's hard sessions about %.0f%% easier.", score, intensityReductionPercent),
		ActionLabel:        "Reduce intensity",
		AffectedSessionIDs: idsOf(hard),
		ReductionPercent:   intensityReductionPercent,
	}
}

func swapNextHard(plan *models.TrainingPlan, today time.Time, idx int, title, message string) *models.PlanAdjustmentRecommendation {
	for _, s := range remaining(sessionsIn(plan, idx, idx), today) {
		if !s.Type.IsHard() {
			continue
		}
		recovery := models.SessionRecovery
		return &models.PlanAdjustmentRecommendation{
			Type:               models.AdjustSwapToRecovery,
			Severity:           models.SeverityUrgent,
			Title:              title,
			Message:            message,
			ActionLabel:        "Swap to recovery",
			AffectedSessionIDs: []string{s.ID},
			VolumeAdjustments: []models.VolumeAdjustment{{
				SessionID:       s.ID,
				AddedDistanceKm: s.PlannedDistanceKm*swapDistanceFactor - s.PlannedDistanceKm,
				AddedElevationM: s.PlannedElevationM*swapDistanceFactor - s.PlannedElevationM,
				TypeOverride:    &recovery,
			}},
		}
	}
	return nil
}

func reduction(targets []*models.TrainingSession, pct float64, severity models.Severity, title, message string) *models.PlanAdjustmentRecommendation {
	adjustments := make([]models.VolumeAdjustment, 0, len(targets))
	for _, s := range targets {
		adjustments = append(adjustments, reduceBy(s, pct))
	}
	return &models.PlanAdjustmentRecommendation{
		Type:               models.AdjustReduceVolume,
		Severity:           severity,
		Title:              title,
		Message:            message,
		ActionLabel:        fmt.Sprintf("Reduce by %.0f%%", pct),
		AffectedSessionIDs: idsOf(targets),
		VolumeAdjustments:  adjustments,
		ReductionPercent:   pct,
	}
}

func reduceBy(s *models.TrainingSession, pct float64) models.VolumeAdjustment {
	return models.VolumeAdjustment{
		SessionID:       s.ID,
		AddedDistanceKm: -s.PlannedDistanceKm * pct / 100,
		AddedElevationM: -s.PlannedElevationM * pct / 100,
	}
}

// sessionsIn returns pointers to the sessions of weeks from..to inclusive in
// date order. Out of range indexes are clamped.
func sessionsIn(plan *models.TrainingPlan, from, to int) []*models.TrainingSession {
	if from < 0 {
		from = 0
	}
	if to >= len(plan.Weeks) {
		to = len(plan.Weeks) - 1
	}
	var out []*models.TrainingSession
	for wi := from; wi <= to; wi++ {
		for si := range plan.Weeks[wi].Sessions {
			out = append(out, &plan.Weeks[wi].Sessions[si])
		}
	}
	return out
}

// remaining keeps trainable sessions from today on. Race sessions are never
// adjusted.
func remaining(sessions []*models.TrainingSession, today time.Time) []*models.TrainingSession {
	var out []*models.TrainingSession
	for _, s := range sessions {
		if s.Type.IsRest() || s.Type == models.SessionRace || !s.IsOpen() || s.Date.Before(today) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func idsOf(sessions []*models.TrainingSession) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids
}

func nextToRace(day time.Time, raceDays []time.Time) bool {
	for _, r := range raceDays {
		if d := daysBetween(r, day); d >= -1 && d <= 1 {
			return true
		}
	}
	return false
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

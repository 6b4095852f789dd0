package training

import (
	"math"
	"strconv"
	"time"

	"runcoach/internal/models"
)

// MinPlanWeeks is the shortest plan Generate accepts
const MinPlanWeeks = 4

// PhaseFractions returns the share of plan weeks for base, build, peak and
// taper. Beginners get more base, elite athletes more build and peak.
func PhaseFractions(experience models.ExperienceLevel) [4]float64 {
	switch experience {
	case models.ExperienceBeginner:
		return [4]float64{0.45, 0.30, 0.15, 0.10}
	case models.ExperienceAdvanced:
		return [4]float64{0.35, 0.35, 0.18, 0.12}
	case models.ExperienceElite:
		return [4]float64{0.30, 0.38, 0.20, 0.12}
	default:
		return [4]float64{0.40, 0.30, 0.18, 0.12}
	}
}

// AllocatePhases splits totalWeeks into base, build, peak and taper blocks.
// Every phase gets at least one week and base absorbs the rounding remainder.
// Fewer than MinPlanWeeks weeks yields base plus a one-week taper.
func AllocatePhases(totalWeeks int, experience models.ExperienceLevel) []models.PhaseAllocation {
	if totalWeeks <= 0 {
		return nil
	}
	if totalWeeks < MinPlanWeeks {
		phases := make([]models.PhaseAllocation, 0, 2)
		if totalWeeks > 1 {
			phases = append(phases, models.PhaseAllocation{Phase: models.PhaseBase, WeekCount: totalWeeks - 1})
		}
		return append(phases, models.PhaseAllocation{Phase: models.PhaseTaper, WeekCount: 1})
	}

	f := PhaseFractions(experience)
	weeks := func(fraction float64) int {
		n := int(math.Round(float64(totalWeeks) * fraction))
		if n < 1 {
			n = 1
		}
		return n
	}

	// index 0 is base; 1..3 are build, peak, taper
	counts := [4]int{0, weeks(f[1]), weeks(f[2]), weeks(f[3])}
	counts[0] = totalWeeks - counts[1] - counts[2] - counts[3]

	for counts[0] < 1 {
		largest := 0
		for i := 1; i < 4; i++ {
			if counts[i] > 1 && (largest == 0 || counts[i] > counts[largest]) {
				largest = i
			}
		}
		if largest == 0 {
			break
		}
		counts[largest]--
		counts[0]++
	}

	return []models.PhaseAllocation{
		{Phase: models.PhaseBase, WeekCount: counts[0]},
		{Phase: models.PhaseBuild, WeekCount: counts[1]},
		{Phase: models.PhasePeak, WeekCount: counts[2]},
		{Phase: models.PhaseTaper, WeekCount: counts[3]},
	}
}

// BuildSkeletons lays the phases out backward from the race week so the last
// week contains raceDate. Within a phase every recoveryCycle-th week is a
// recovery week, never the final week of a phase and never in taper. The
// cycle restarts at each phase boundary; recoveryCycle <= 1 disables it.
func BuildSkeletons(raceDate time.Time, phases []models.PhaseAllocation, recoveryCycle int) []models.WeekSkeleton {
	total := 0
	for _, p := range phases {
		total += p.WeekCount
	}
	if total == 0 {
		return nil
	}

	raceMonday := models.MondayOf(raceDate)
	start := raceMonday.AddDate(0, 0, -7*(total-1))

	skeletons := make([]models.WeekSkeleton, 0, total)
	weekNumber := 1

	for _, p := range phases {
		sinceRecovery := 0
		for k := 0; k < p.WeekCount; k++ {
			isFinal := k == p.WeekCount-1
			sinceRecovery++

			isRecovery := false
			if recoveryCycle > 1 && p.Phase != models.PhaseTaper && !isFinal && sinceRecovery >= recoveryCycle {
				isRecovery = true
				sinceRecovery = 0
			}

			weekStart := start.AddDate(0, 0, 7*(weekNumber-1))
			skeletons = append(skeletons, models.WeekSkeleton{
				WeekNumber:     weekNumber,
				StartDate:      weekStart,
				EndDate:        weekStart.AddDate(0, 0, 6),
				Phase:          p.Phase,
				IsRecoveryWeek: isRecovery,
				IsFinalOfPhase: isFinal,
			})
			weekNumber++
		}
	}

	return skeletons
}

// WeekContaining returns the skeleton index whose week contains t, or -1
func WeekContaining(skeletons []models.WeekSkeleton, t time.Time) int {
	day := models.StartOfDay(t)
	for i := range skeletons {
		if !day.Before(skeletons[i].StartDate) && !day.After(skeletons[i].EndDate) {
			return i
		}
	}
	return -1
}

// GetWeekName returns descriptive name for a week
func GetWeekName(w *models.TrainingWeek) string {
	name := "Week " + strconv.Itoa(w.WeekNumber) + " (" + w.Phase.Name() + ")"
	if w.IsRecoveryWeek {
		name += " - recovery"
	}
	return name
}

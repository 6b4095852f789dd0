package training

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"runcoach/internal/config"
	"runcoach/internal/models"
)

// Planner assembles complete training plans
type Planner struct {
	Thresholds config.Thresholds
	Engine     *SessionEngine
	NewID      func() string
}

// NewPlanner creates a planner with uuid ids
func NewPlanner(th config.Thresholds) *Planner {
	return &Planner{
		Thresholds: th,
		Engine:     NewSessionEngine(),
		NewID:      uuid.NewString,
	}
}

// WeeksUntil counts whole weeks between now and the race date
func WeeksUntil(now, raceDate time.Time) int {
	return daysBetween(models.StartOfDay(now), models.StartOfDay(raceDate.In(now.Location()))) / 7
}

// Generate builds a plan for target with intermediates overlaid. The plan's
// last week contains the race; the first week is the Monday after now.
func (p *Planner) Generate(athlete models.Athlete, target models.Race, intermediates []models.Race, now time.Time) (*models.TrainingPlan, error) {
	totalWeeks := WeeksUntil(now, target.Date)
	if totalWeeks < MinPlanWeeks {
		return nil, &PlanParameterError{
			Reason: fmt.Sprintf("%d weeks until race, need at least %d", totalWeeks, MinPlanWeeks),
		}
	}
	if target.DistanceKm <= 0 {
		return nil, &PlanParameterError{Reason: "race distance must be positive"}
	}

	phases := AllocatePhases(totalWeeks, athlete.Experience)
	skeletons := BuildSkeletons(target.Date, phases, p.Thresholds.RecoveryCycleWeeks)

	var overlay []models.Race
	var overlayIDs []string
	for _, r := range intermediates {
		if r.Priority == models.PriorityA || r.ID == target.ID || !r.Date.Before(target.Date) {
			continue
		}
		overlay = append(overlay, r)
		overlayIDs = append(overlayIDs, r.ID)
	}
	overrides := RaceOverrides(skeletons, overlay)

	volumes := CalculateVolumes(skeletons, ProgressionConfig{
		CurrentWeeklyVolumeKm:    athlete.WeeklyVolumeKm,
		RaceDistanceKm:           target.DistanceKm,
		RaceElevationGainM:       target.ElevationGainM,
		Experience:               athlete.Experience,
		MaxIncreasePercent:       p.Thresholds.MaxWeeklyIncreasePercent,
		RecoveryReductionPercent: p.Thresholds.RecoveryWeekReductionPercent,
	})

	byWeek := make(map[int]models.RaceWeekOverride, len(overrides))
	for _, o := range overrides {
		byWeek[o.WeekNumber] = o
	}

	plan := &models.TrainingPlan{
		ID:                  p.NewID(),
		AthleteID:           athlete.ID,
		TargetRaceID:        target.ID,
		Status:              models.PlanStatusActive,
		CreatedAt:           now,
		Weeks:               make([]models.TrainingWeek, 0, len(skeletons)),
		IntermediateRaceIDs: overlayIDs,
	}

	for i, sk := range skeletons {
		var override *models.RaceWeekOverride
		if i == len(skeletons)-1 {
			override = &models.RaceWeekOverride{WeekNumber: sk.WeekNumber, Kind: models.OverrideRaceWeek, Race: target}
		} else if o, ok := byWeek[sk.WeekNumber]; ok {
			override = &o
		}

		if override != nil {
			switch override.Kind {
			case models.OverrideRaceWeek:
				sk.Phase = models.PhaseRace
			case models.OverridePostRaceRecovery:
				sk.IsRecoveryWeek = true
			}
		}

		sessions := p.Engine.Sessions(sk, volumes[i], athlete.Experience, override)

		var km, elev float64
		for _, s := range sessions {
			km += s.PlannedDistanceKm
			elev += s.PlannedElevationM
		}

		plan.Weeks = append(plan.Weeks, models.TrainingWeek{
			WeekNumber:       sk.WeekNumber,
			StartDate:        sk.StartDate,
			EndDate:          sk.EndDate,
			Phase:            sk.Phase,
			IsRecoveryWeek:   sk.IsRecoveryWeek,
			TargetVolumeKm:   math.Round(km*10) / 10,
			TargetElevationM: math.Round(elev*10) / 10,
			Sessions:         sessions,
		})
	}

	return plan, nil
}

// daysBetween counts calendar days, robust to DST shifts
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

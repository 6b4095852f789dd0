package training

import (
	"math"

	"runcoach/internal/models"
)

// MinStartVolumeKm is the floor for the first building week
const MinStartVolumeKm = 10.0

// ProgressionConfig holds parameters for generating weekly volume targets
type ProgressionConfig struct {
	CurrentWeeklyVolumeKm    float64
	RaceDistanceKm           float64
	RaceElevationGainM       float64
	Experience               models.ExperienceLevel
	MaxIncreasePercent       float64 // cap on week-over-week growth of building weeks
	RecoveryReductionPercent float64 // recovery week cut relative to the last building week
}

// PeakFraction returns the share of race distance used as peak weekly volume
func PeakFraction(experience models.ExperienceLevel) float64 {
	switch experience {
	case models.ExperienceBeginner:
		return 0.40
	case models.ExperienceAdvanced:
		return 0.60
	case models.ExperienceElite:
		return 0.70
	default:
		return 0.50
	}
}

// CalculateVolumes computes target distance and elevation per skeleton week.
//
// Building weeks (non-recovery, non-taper) interpolate linearly from the
// starting volume to the peak target, each capped at the previous building
// week plus MaxIncreasePercent. Recovery weeks cut the last building volume
// without moving the baseline. Taper weeks step the baseline down from 80%
// to 50%.
func CalculateVolumes(skeletons []models.WeekSkeleton, cfg ProgressionConfig) []models.WeekVolume {
	if len(skeletons) == 0 {
		return nil
	}

	start := math.Max(cfg.CurrentWeeklyVolumeKm, MinStartVolumeKm)
	peak := cfg.RaceDistanceKm * PeakFraction(cfg.Experience)

	elevationPerKm := 0.0
	if cfg.RaceDistanceKm > 0 {
		elevationPerKm = cfg.RaceElevationGainM / cfg.RaceDistanceKm
	}

	building, tapering := 0, 0
	for _, sk := range skeletons {
		switch {
		case isTaperPhase(sk.Phase):
			tapering++
		case !sk.IsRecoveryWeek:
			building++
		}
	}

	baseline := round1(start)
	buildIdx, taperIdx := 0, 0
	volumes := make([]models.WeekVolume, 0, len(skeletons))

	for _, sk := range skeletons {
		var vol float64

		switch {
		case isTaperPhase(sk.Phase):
			frac := 0.5
			if tapering > 1 {
				frac = 0.8 - 0.3*float64(taperIdx)/float64(tapering-1)
			}
			vol = round1(baseline * frac)
			taperIdx++

		case sk.IsRecoveryWeek:
			vol = round1(baseline * (1 - cfg.RecoveryReductionPercent/100))

		default:
			raw := start
			if building > 1 {
				raw = start + (peak-start)*float64(buildIdx)/float64(building-1)
			}
			limit := floor1(baseline * (1 + cfg.MaxIncreasePercent/100))
			vol = round1(math.Min(raw, limit))
			baseline = vol
			buildIdx++
		}

		volumes = append(volumes, models.WeekVolume{
			WeekNumber:       sk.WeekNumber,
			TargetVolumeKm:   vol,
			TargetElevationM: round1(vol * elevationPerKm),
		})
	}

	return volumes
}

func isTaperPhase(p models.PlanPhase) bool {
	return p == models.PhaseTaper || p == models.PhaseRace
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// floor1 rounds down to one decimal; the epsilon absorbs float noise such
// as 10.999999999 standing for 11.0
func floor1(v float64) float64 {
	return math.Floor(v*10+1e-9) / 10
}

package models

import "time"

// PhaseAllocation is a contiguous block of weeks in one phase
type PhaseAllocation struct {
	Phase     PlanPhase `json:"phase"`
	WeekCount int       `json:"week_count"`
}

// WeekSkeleton is a calendar-aligned week before volumes and sessions exist
type WeekSkeleton struct {
	WeekNumber     int       `json:"week_number"` // absolute number within the plan
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Phase          PlanPhase `json:"phase"`
	IsRecoveryWeek bool      `json:"is_recovery_week"`
	IsFinalOfPhase bool      `json:"is_final_of_phase"`
}

// WeekVolume is the target load for a skeleton week
type WeekVolume struct {
	WeekNumber       int     `json:"week_number"`
	TargetVolumeKm   float64 `json:"target_volume_km"`
	TargetElevationM float64 `json:"target_elevation_m"`
}

// OverrideKind describes how an intermediate race reshapes a week
type OverrideKind string

const (
	OverrideMiniTaper        OverrideKind = "mini_taper"
	OverrideRaceWeek         OverrideKind = "race_week"
	OverridePostRaceRecovery OverrideKind = "post_race_recovery"
)

// Precedence ranks colliding overrides on the same week
func (k OverrideKind) Precedence() int {
	switch k {
	case OverrideRaceWeek:
		return 3
	case OverridePostRaceRecovery:
		return 2
	case OverrideMiniTaper:
		return 1
	default:
		return 0
	}
}

// VolumeMultiplier scales the week's target volume
func (k OverrideKind) VolumeMultiplier() float64 {
	switch k {
	case OverrideMiniTaper:
		return 0.75
	case OverridePostRaceRecovery:
		return 0.6
	default:
		return 1.0
	}
}

// RaceWeekOverride swaps a week's template set around an intermediate race
type RaceWeekOverride struct {
	WeekNumber int          `json:"week_number"`
	Kind       OverrideKind `json:"kind"`
	Race       Race         `json:"race"`
}

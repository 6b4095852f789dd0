package models

import "time"

// FitnessSnapshot is the load model state at a given day
type FitnessSnapshot struct {
	Date              time.Time     `json:"date"`
	Fitness           float64       `json:"fitness"` // CTL
	Fatigue           float64       `json:"fatigue"` // ATL
	Form              float64       `json:"form"`    // TSB
	WeeklyVolumeKm    float64       `json:"weekly_volume_km"`
	WeeklyElevationM  float64       `json:"weekly_elevation_m"`
	WeeklyDuration    time.Duration `json:"weekly_duration"`
	AcuteChronicRatio float64       `json:"acute_chronic_ratio"`
	Monotony          float64       `json:"monotony"`
}

// RiskLevel classifies the acute:chronic ratio
type RiskLevel string

const (
	RiskUndertrained RiskLevel = "undertrained"
	RiskOptimal      RiskLevel = "optimal"
	RiskElevated     RiskLevel = "elevated"
	RiskHigh         RiskLevel = "high"
)

// WeeklyLoadPoint compares actual and planned load for a week
type WeeklyLoadPoint struct {
	WeekStart         time.Time `json:"week_start"`
	ActualKm          float64   `json:"actual_km"`
	PlannedKm         float64   `json:"planned_km"`
	ActualElevationM  float64   `json:"actual_elevation_m"`
	PlannedElevationM float64   `json:"planned_elevation_m"`
}

// DailyRatioPoint is one day of the ACR trend
type DailyRatioPoint struct {
	Date              time.Time `json:"date"`
	AcuteChronicRatio float64   `json:"acute_chronic_ratio"`
}

// TrainingLoadSummary for dashboards and reports
type TrainingLoadSummary struct {
	Current     FitnessSnapshot   `json:"current"`
	Risk        RiskLevel         `json:"risk"`
	FormStatus  string            `json:"form_status"`
	WeeklyLoads []WeeklyLoadPoint `json:"weekly_loads"`
	RatioTrend  []DailyRatioPoint `json:"ratio_trend"`
}

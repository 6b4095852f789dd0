package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds are the named tuning values of the planner and the adjustment
// detectors. It is passed by value into every engine call.
type Thresholds struct {
	RecoveryCycleWeeks                int     `yaml:"recovery_cycle_weeks"`
	MaxWeeklyIncreasePercent          float64 `yaml:"max_weekly_increase_percent"`
	MaxSessionIncreasePercent         float64 `yaml:"max_session_increase_percent"`
	RecoveryWeekReductionPercent      float64 `yaml:"recovery_week_reduction_percent"`
	LowAdherenceThreshold             float64 `yaml:"low_adherence_threshold"` // completed fraction, 0-1
	LowAdherenceReductionPercent      float64 `yaml:"low_adherence_reduction_percent"`
	ExtendedGapDays                   int     `yaml:"extended_gap_days"`
	StaleMissedSessionThreshold       int     `yaml:"stale_missed_session_threshold"`
	AccumulatedMissedVolumeKm         float64 `yaml:"accumulated_missed_volume_km"`
	AccumulatedMissedReductionPercent float64 `yaml:"accumulated_missed_reduction_percent"`
	RedistributionLookbackWeeks       int     `yaml:"redistribution_lookback_weeks"`
	LowRecoveryThreshold              float64 `yaml:"low_recovery_threshold"`
	CriticalRecoveryThreshold         float64 `yaml:"critical_recovery_threshold"`
}

// DefaultThresholds returns the standard tuning
func DefaultThresholds() Thresholds {
	return Thresholds{
		RecoveryCycleWeeks:                3,
		MaxWeeklyIncreasePercent:          10,
		MaxSessionIncreasePercent:         10,
		RecoveryWeekReductionPercent:      30,
		LowAdherenceThreshold:             0.5,
		LowAdherenceReductionPercent:      20,
		ExtendedGapDays:                   7,
		StaleMissedSessionThreshold:       3,
		AccumulatedMissedVolumeKm:         20,
		AccumulatedMissedReductionPercent: 15,
		RedistributionLookbackWeeks:       2,
		LowRecoveryThreshold:              40,
		CriticalRecoveryThreshold:         25,
	}
}

// LoadThresholds overlays a YAML file on top of DefaultThresholds. Keys
// absent from the file keep their default.
func LoadThresholds(path string) (Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("failed to read thresholds file: %w", err)
	}
	return ParseThresholds(data)
}

// ParseThresholds decodes YAML over the defaults and validates the result
func ParseThresholds(data []byte) (Thresholds, error) {
	th := DefaultThresholds()
	if err := yaml.Unmarshal(data, &th); err != nil {
		return Thresholds{}, fmt.Errorf("failed to parse thresholds: %w", err)
	}
	if err := th.Validate(); err != nil {
		return Thresholds{}, err
	}
	return th, nil
}

// Validate rejects values the engines cannot work with
func (t Thresholds) Validate() error {
	switch {
	case t.RecoveryCycleWeeks < 0:
		return fmt.Errorf("recovery_cycle_weeks must not be negative")
	case t.MaxWeeklyIncreasePercent < 0 || t.MaxSessionIncreasePercent < 0:
		return fmt.Errorf("increase percents must not be negative")
	case t.RecoveryWeekReductionPercent < 0 || t.RecoveryWeekReductionPercent >= 100:
		return fmt.Errorf("recovery_week_reduction_percent must be in [0, 100)")
	case t.LowAdherenceThreshold < 0 || t.LowAdherenceThreshold > 1:
		return fmt.Errorf("low_adherence_threshold must be in [0, 1]")
	case t.LowAdherenceReductionPercent < 0 || t.LowAdherenceReductionPercent >= 100:
		return fmt.Errorf("low_adherence_reduction_percent must be in [0, 100)")
	case t.AccumulatedMissedReductionPercent < 0 || t.AccumulatedMissedReductionPercent >= 100:
		return fmt.Errorf("accumulated_missed_reduction_percent must be in [0, 100)")
	case t.ExtendedGapDays < 1:
		return fmt.Errorf("extended_gap_days must be positive")
	case t.RedistributionLookbackWeeks < 1:
		return fmt.Errorf("redistribution_lookback_weeks must be positive")
	case t.CriticalRecoveryThreshold > t.LowRecoveryThreshold:
		return fmt.Errorf("critical_recovery_threshold must not exceed low_recovery_threshold")
	}
	return nil
}

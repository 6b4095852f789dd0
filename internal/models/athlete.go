package models

import "time"

// ExperienceLevel of the athlete
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
	ExperienceElite        ExperienceLevel = "elite"
)

// Rank orders levels from beginner (0) to elite (3). Unknown levels rank as
// intermediate.
func (e ExperienceLevel) Rank() int {
	switch e {
	case ExperienceBeginner:
		return 0
	case ExperienceIntermediate:
		return 1
	case ExperienceAdvanced:
		return 2
	case ExperienceElite:
		return 3
	default:
		return 1
	}
}

// Valid reports whether e is a known level
func (e ExperienceLevel) Valid() bool {
	switch e {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced, ExperienceElite:
		return true
	default:
		return false
	}
}

// Athlete is the immutable planning input describing the runner
type Athlete struct {
	ID             string          `json:"id" yaml:"id"`
	Name           string          `json:"name" yaml:"name"`
	Experience     ExperienceLevel `json:"experience" yaml:"experience"`
	WeeklyVolumeKm float64         `json:"weekly_volume_km" yaml:"weekly_volume_km"`
	MaxHeartRate   int             `json:"max_heart_rate" yaml:"max_heart_rate"`
	CustomZones    []int           `json:"custom_zones,omitempty" yaml:"custom_zones,omitempty"` // ascending HR thresholds
}

// RacePriority A is the target race, B and C are tune-ups
type RacePriority string

const (
	PriorityA RacePriority = "A"
	PriorityB RacePriority = "B"
	PriorityC RacePriority = "C"
)

// Checkpoint along a race course
type Checkpoint struct {
	Name           string  `json:"name" yaml:"name"`
	DistanceKm     float64 `json:"distance_km" yaml:"distance_km"`
	ElevationGainM float64 `json:"elevation_gain_m" yaml:"elevation_gain_m"`
}

// Race represents a target or intermediate race
type Race struct {
	ID                string       `json:"id" yaml:"id"`
	AthleteID         string       `json:"athlete_id" yaml:"athlete_id"`
	Name              string       `json:"name" yaml:"name"`
	Date              time.Time    `json:"date" yaml:"date"`
	DistanceKm        float64      `json:"distance_km" yaml:"distance_km"`
	ElevationGainM    float64      `json:"elevation_gain_m" yaml:"elevation_gain_m"`
	ElevationLossM    float64      `json:"elevation_loss_m" yaml:"elevation_loss_m"`
	Priority          RacePriority `json:"priority" yaml:"priority"`
	TerrainDifficulty int          `json:"terrain_difficulty" yaml:"terrain_difficulty"` // 1-5
	Checkpoints       []Checkpoint `json:"checkpoints,omitempty" yaml:"checkpoints,omitempty"`
	IsCompleted       bool         `json:"is_completed" yaml:"is_completed"`
}

// Run is a single recorded activity from the run history
type Run struct {
	ID                  string        `json:"id" yaml:"id"`
	AthleteID           string        `json:"athlete_id" yaml:"athlete_id"`
	Date                time.Time     `json:"date" yaml:"date"`
	DistanceKm          float64       `json:"distance_km" yaml:"distance_km"`
	ElevationGainM      float64       `json:"elevation_gain_m" yaml:"elevation_gain_m"`
	Duration            time.Duration `json:"duration" yaml:"duration"`
	TrainingStressScore *float64      `json:"training_stress_score,omitempty" yaml:"training_stress_score,omitempty"`
	AverageHeartRate    *int          `json:"average_heart_rate,omitempty" yaml:"average_heart_rate,omitempty"`
}

// Load returns the run's training load: TSS when recorded, otherwise
// distance plus one km per 100 m of climbing.
func (r *Run) Load() float64 {
	if r.TrainingStressScore != nil {
		return *r.TrainingStressScore
	}
	return r.DistanceKm + r.ElevationGainM/100
}

package models

import "time"

// PlanStatus represents the status of a training plan
type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusArchived PlanStatus = "archived"
)

// PlanPhase represents phase types for periodization
type PlanPhase string

const (
	PhaseBase  PlanPhase = "base"
	PhaseBuild PlanPhase = "build"
	PhasePeak  PlanPhase = "peak"
	PhaseTaper PlanPhase = "taper"
	PhaseRace  PlanPhase = "race"
)

// Name returns display name for phase
func (p PlanPhase) Name() string {
	switch p {
	case PhaseBase:
		return "Base"
	case PhaseBuild:
		return "Build"
	case PhasePeak:
		return "Peak"
	case PhaseTaper:
		return "Taper"
	case PhaseRace:
		return "Race"
	default:
		return string(p)
	}
}

// TrainingPlan represents a complete periodized plan toward a target race.
// Weeks are date-contiguous and numbered from 1.
type TrainingPlan struct {
	ID                  string         `json:"id"`
	AthleteID           string         `json:"athlete_id"`
	TargetRaceID        string         `json:"target_race_id"`
	Status              PlanStatus     `json:"status"`
	CreatedAt           time.Time      `json:"created_at"`
	Weeks               []TrainingWeek `json:"weeks"`
	IntermediateRaceIDs []string       `json:"intermediate_race_ids"`
}

// TrainingWeek represents a single Monday-aligned training week
type TrainingWeek struct {
	WeekNumber       int               `json:"week_number"`
	StartDate        time.Time         `json:"start_date"`
	EndDate          time.Time         `json:"end_date"`
	Phase            PlanPhase         `json:"phase"`
	IsRecoveryWeek   bool              `json:"is_recovery_week"`
	TargetVolumeKm   float64           `json:"target_volume_km"`
	TargetElevationM float64           `json:"target_elevation_m"`
	Sessions         []TrainingSession `json:"sessions"`
}

// TrainingSession is a single planned day. The ID is assigned once at
// generation and survives every later mutation.
type TrainingSession struct {
	ID                string        `json:"id"`
	Date              time.Time     `json:"date"`
	Type              SessionType   `json:"type"`
	Intensity         Intensity     `json:"intensity"`
	PlannedDistanceKm float64       `json:"planned_distance_km"`
	PlannedElevationM float64       `json:"planned_elevation_m"`
	PlannedDuration   time.Duration `json:"planned_duration"`
	Description       string        `json:"description"`
	NutritionNotes    string        `json:"nutrition_notes,omitempty"`
	IsCompleted       bool          `json:"is_completed"`
	IsSkipped         bool          `json:"is_skipped"`
	LinkedRunID       string        `json:"linked_run_id,omitempty"`
}

// DayOfWeek returns ISO weekday (1=Mon..7=Sun)
func (s *TrainingSession) DayOfWeek() int {
	wd := int(s.Date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// IsMissed reports whether the session is before day and was neither
// completed nor explicitly skipped.
func (s *TrainingSession) IsMissed(day time.Time) bool {
	return s.Date.Before(day) && !s.IsCompleted && !s.IsSkipped
}

// IsOpen reports whether the session still can be trained
func (s *TrainingSession) IsOpen() bool {
	return !s.IsCompleted && !s.IsSkipped
}

// Contains reports whether t falls within the week
func (w *TrainingWeek) Contains(t time.Time) bool {
	return !t.Before(w.StartDate) && t.Before(w.StartDate.AddDate(0, 0, 7))
}

// PlannedDistanceKm sums planned distance of all sessions
func (w *TrainingWeek) PlannedDistanceKm() float64 {
	var total float64
	for _, s := range w.Sessions {
		total += s.PlannedDistanceKm
	}
	return total
}

// WeekIndexFor returns the index of the week containing t, or -1
func (p *TrainingPlan) WeekIndexFor(t time.Time) int {
	for i := range p.Weeks {
		if p.Weeks[i].Contains(t) {
			return i
		}
	}
	return -1
}

// Session returns a pointer to the session with id, or nil
func (p *TrainingPlan) Session(id string) *TrainingSession {
	for wi := range p.Weeks {
		for si := range p.Weeks[wi].Sessions {
			if p.Weeks[wi].Sessions[si].ID == id {
				return &p.Weeks[wi].Sessions[si]
			}
		}
	}
	return nil
}

// StartDate returns the first day of the plan
func (p *TrainingPlan) StartDate() time.Time {
	if len(p.Weeks) == 0 {
		return time.Time{}
	}
	return p.Weeks[0].StartDate
}

// TrainingPlanListItem for displaying plan list
type TrainingPlanListItem struct {
	ID           string     `json:"id"`
	AthleteID    string     `json:"athlete_id"`
	TargetRaceID string     `json:"target_race_id"`
	Status       PlanStatus `json:"status"`
	TotalWeeks   int        `json:"total_weeks"`
	StartDate    time.Time  `json:"start_date"`
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MondayOf returns midnight of the Monday of t's ISO week
func MondayOf(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

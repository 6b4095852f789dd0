package models

// Severity of a recommendation. Higher values are more pressing.
type Severity int

const (
	SeveritySuggestion Severity = iota
	SeverityRecommended
	SeverityUrgent
)

func (s Severity) String() string {
	switch s {
	case SeveritySuggestion:
		return "suggestion"
	case SeverityRecommended:
		return "recommended"
	case SeverityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// AdjustmentType identifies what a recommendation proposes
type AdjustmentType string

const (
	AdjustConvertToRecoveryWeek    AdjustmentType = "convert_to_recovery_week"
	AdjustRescheduleMissedSession  AdjustmentType = "reschedule_missed_session"
	AdjustReduceVolume             AdjustmentType = "reduce_volume"
	AdjustMarkSessionsSkipped      AdjustmentType = "mark_sessions_skipped"
	AdjustRedistributeMissedVolume AdjustmentType = "redistribute_missed_volume"
	AdjustSwapToRecovery           AdjustmentType = "swap_to_recovery"
	AdjustReduceIntensity          AdjustmentType = "reduce_intensity"
)

// VolumeAdjustment is a change to one session. Negative amounts reduce.
type VolumeAdjustment struct {
	SessionID       string       `json:"session_id"`
	AddedDistanceKm float64      `json:"added_distance_km"`
	AddedElevationM float64      `json:"added_elevation_m"`
	TypeOverride    *SessionType `json:"type_override,omitempty"`
}

// PlanAdjustmentRecommendation is produced on every analysis and never stored
type PlanAdjustmentRecommendation struct {
	ID                 string             `json:"id"`
	Type               AdjustmentType     `json:"type"`
	Severity           Severity           `json:"severity"`
	Title              string             `json:"title"`
	Message            string             `json:"message"`
	ActionLabel        string             `json:"action_label"`
	AffectedSessionIDs []string           `json:"affected_session_ids"`
	VolumeAdjustments  []VolumeAdjustment `json:"volume_adjustments,omitempty"`
	ReductionPercent   float64            `json:"reduction_percent,omitempty"`
}

package models

// SessionType identifies what kind of workout a session is
type SessionType string

const (
	SessionRest         SessionType = "rest"
	SessionRecovery     SessionType = "recovery"
	SessionEasy         SessionType = "easy"
	SessionLongRun      SessionType = "long_run"
	SessionTempo        SessionType = "tempo"
	SessionIntervals    SessionType = "intervals"
	SessionVerticalGain SessionType = "vertical_gain"
	SessionBackToBack   SessionType = "back_to_back"
	SessionRace         SessionType = "race"
)

// Name returns display name for session type
func (t SessionType) Name() string {
	switch t {
	case SessionRest:
		return "Rest"
	case SessionRecovery:
		return "Recovery run"
	case SessionEasy:
		return "Easy run"
	case SessionLongRun:
		return "Long run"
	case SessionTempo:
		return "Tempo"
	case SessionIntervals:
		return "Intervals"
	case SessionVerticalGain:
		return "Vertical gain"
	case SessionBackToBack:
		return "Back-to-back long run"
	case SessionRace:
		return "Race"
	default:
		return string(t)
	}
}

// IsRest reports rest days
func (t SessionType) IsRest() bool {
	return t == SessionRest
}

// IsKey reports sessions worth rescheduling when missed
func (t SessionType) IsKey() bool {
	switch t {
	case SessionLongRun, SessionIntervals, SessionTempo, SessionVerticalGain:
		return true
	default:
		return false
	}
}

// IsSplittable reports volume sessions that may be spread over several days
func (t SessionType) IsSplittable() bool {
	switch t {
	case SessionLongRun, SessionVerticalGain, SessionBackToBack:
		return true
	default:
		return false
	}
}

// IsQuality reports intensity sessions that only make sense whole
func (t SessionType) IsQuality() bool {
	switch t {
	case SessionIntervals, SessionTempo:
		return true
	default:
		return false
	}
}

// IsHard reports sessions that load the athlete above easy effort
func (t SessionType) IsHard() bool {
	switch t {
	case SessionIntervals, SessionTempo, SessionVerticalGain, SessionBackToBack:
		return true
	default:
		return false
	}
}

// DefaultIntensity returns the intensity a session type runs at by default
func (t SessionType) DefaultIntensity() Intensity {
	switch t {
	case SessionRest, SessionRecovery:
		return IntensityRecovery
	case SessionEasy, SessionLongRun:
		return IntensityEasy
	case SessionBackToBack:
		return IntensityModerate
	case SessionTempo:
		return IntensityTempo
	case SessionIntervals, SessionVerticalGain:
		return IntensityHard
	case SessionRace:
		return IntensityMaxEffort
	default:
		return IntensityEasy
	}
}

// Intensity is the effort level of a session
type Intensity string

const (
	IntensityRecovery  Intensity = "recovery"
	IntensityEasy      Intensity = "easy"
	IntensityModerate  Intensity = "moderate"
	IntensityTempo     Intensity = "tempo"
	IntensityHard      Intensity = "hard"
	IntensityMaxEffort Intensity = "max_effort"
)

// PaceMinPerKm returns planning pace in minutes per km
func (i Intensity) PaceMinPerKm() float64 {
	switch i {
	case IntensityRecovery, IntensityEasy:
		return 7.0
	case IntensityModerate:
		return 6.5
	case IntensityTempo:
		return 6.0
	case IntensityHard:
		return 5.5
	case IntensityMaxEffort:
		return 5.0
	default:
		return 7.0
	}
}

// StepDown returns the next easier intensity. Recovery stays recovery.
func (i Intensity) StepDown() Intensity {
	switch i {
	case IntensityMaxEffort:
		return IntensityHard
	case IntensityHard:
		return IntensityTempo
	case IntensityTempo:
		return IntensityModerate
	case IntensityModerate:
		return IntensityEasy
	default:
		return IntensityRecovery
	}
}

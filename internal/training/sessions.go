package training

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"runcoach/internal/models"
)

// SessionTemplate describes one day of a weekly template set
type SessionTemplate struct {
	DayOffset      int // 0=Mon..6=Sun
	Type           models.SessionType
	Intensity      models.Intensity
	VolumeFraction float64 // relative share; a set's fractions need not sum to 1
	Description    string
}

// TemplateSet names a weekly template
type TemplateSet string

const (
	TemplateBase             TemplateSet = "base"
	TemplateBuild            TemplateSet = "build"
	TemplatePeak             TemplateSet = "peak"
	TemplateTaper            TemplateSet = "taper"
	TemplateRecovery         TemplateSet = "recovery"
	TemplateMiniTaper        TemplateSet = "mini_taper"
	TemplatePostRaceRecovery TemplateSet = "post_race_recovery"
	TemplateRaceWeek         TemplateSet = "race_week"
)

func slot(offset int, typ models.SessionType, intensity models.Intensity, fraction float64, desc string) SessionTemplate {
	return SessionTemplate{DayOffset: offset, Type: typ, Intensity: intensity, VolumeFraction: fraction, Description: desc}
}

func rest(offset int) SessionTemplate {
	return slot(offset, models.SessionRest, models.IntensityRecovery, 0, "Rest day")
}

// Templates returns the seven day template for a set. The race week set is
// built by RaceWeekTemplates instead.
func Templates(set TemplateSet) []SessionTemplate {
	switch set {
	case TemplateBase:
		return []SessionTemplate{
			rest(0),
			slot(1, models.SessionEasy, models.IntensityEasy, 0.15, "Easy aerobic run"),
			slot(2, models.SessionEasy, models.IntensityModerate, 0.15, "Steady aerobic run with strides"),
			slot(3, models.SessionEasy, models.IntensityEasy, 0.15, "Easy aerobic run"),
			rest(4),
			slot(5, models.SessionLongRun, models.IntensityEasy, 0.35, "Long run at conversational pace"),
			slot(6, models.SessionRecovery, models.IntensityRecovery, 0.10, "Recovery jog"),
		}
	case TemplateBuild:
		return []SessionTemplate{
			rest(0),
			slot(1, models.SessionIntervals, models.IntensityHard, 0.15, "Intervals: 6x3 min hard, 2 min jog"),
			slot(2, models.SessionEasy, models.IntensityEasy, 0.15, "Easy aerobic run"),
			slot(3, models.SessionTempo, models.IntensityTempo, 0.15, "Tempo: 20-30 min comfortably hard"),
			rest(4),
			slot(5, models.SessionLongRun, models.IntensityEasy, 0.35, "Long run with race-terrain practice"),
			slot(6, models.SessionEasy, models.IntensityEasy, 0.12, "Easy aerobic run"),
		}
	case TemplatePeak:
		return []SessionTemplate{
			rest(0),
			slot(1, models.SessionIntervals, models.IntensityHard, 0.15, "Intervals: 5x5 min hard, 2 min jog"),
			slot(2, models.SessionEasy, models.IntensityEasy, 0.12, "Easy aerobic run"),
			slot(3, models.SessionTempo, models.IntensityTempo, 0.15, "Tempo: 30-40 min at race effort"),
			slot(4, models.SessionRecovery, models.IntensityRecovery, 0.08, "Recovery jog"),
			slot(5, models.SessionLongRun, models.IntensityEasy, 0.30, "Long run with race nutrition rehearsal"),
			slot(6, models.SessionBackToBack, models.IntensityModerate, 0.20, "Back-to-back long run on tired legs"),
		}
	case TemplateTaper:
		return []SessionTemplate{
			rest(0),
			slot(1, models.SessionEasy, models.IntensityEasy, 0.20, "Easy aerobic run"),
			slot(2, models.SessionIntervals, models.IntensityHard, 0.15, "Sharpening: 6x1 min fast, full recovery"),
			slot(3, models.SessionEasy, models.IntensityEasy, 0.20, "Easy aerobic run"),
			rest(4),
			slot(5, models.SessionLongRun, models.IntensityEasy, 0.30, "Reduced long run"),
			slot(6, models.SessionRecovery, models.IntensityRecovery, 0.15, "Recovery jog"),
		}
	case TemplateRecovery:
		return []SessionTemplate{
			rest(0),
			slot(1, models.SessionEasy, models.IntensityEasy, 0.20, "Easy aerobic run"),
			slot(2, models.SessionRecovery, models.IntensityRecovery, 0.15, "Recovery jog"),
			slot(3, models.SessionEasy, models.IntensityEasy, 0.20, "Easy aerobic run"),
			rest(4),
			slot(5, models.SessionLongRun, models.IntensityEasy, 0.30, "Shortened long run, keep it easy"),
			slot(6, models.SessionRecovery, models.IntensityRecovery, 0.15, "Recovery jog"),
		}
	case TemplateMiniTaper:
		return []SessionTemplate{
			rest(0),
			slot(1, models.SessionEasy, models.IntensityEasy, 0.20, "Easy aerobic run"),
			slot(2, models.SessionTempo, models.IntensityTempo, 0.15, "Short tempo to stay sharp"),
			slot(3, models.SessionEasy, models.IntensityEasy, 0.20, "Easy aerobic run"),
			rest(4),
			slot(5, models.SessionLongRun, models.IntensityEasy, 0.30, "Moderate long run"),
			slot(6, models.SessionRecovery, models.IntensityRecovery, 0.15, "Recovery jog"),
		}
	case TemplatePostRaceRecovery:
		return []SessionTemplate{
			rest(0),
			slot(1, models.SessionRecovery, models.IntensityRecovery, 0.20, "Post-race recovery jog"),
			rest(2),
			slot(3, models.SessionEasy, models.IntensityEasy, 0.25, "Easy aerobic run"),
			rest(4),
			slot(5, models.SessionEasy, models.IntensityEasy, 0.35, "Easy run, no long run this week"),
			slot(6, models.SessionRecovery, models.IntensityRecovery, 0.20, "Recovery jog"),
		}
	default:
		return Templates(TemplateBase)
	}
}

// RaceWeekTemplates builds the race week around the race day. The days
// either side of the race are rest days.
func RaceWeekTemplates(raceOffset int, race models.Race) []SessionTemplate {
	support := []SessionTemplate{
		rest(0),
		slot(1, models.SessionEasy, models.IntensityEasy, 0.25, "Easy run with a few strides"),
		slot(2, models.SessionEasy, models.IntensityEasy, 0.25, "Easy aerobic run"),
		slot(3, models.SessionRecovery, models.IntensityRecovery, 0.15, "Shakeout jog"),
		rest(4),
		slot(5, models.SessionEasy, models.IntensityEasy, 0.20, "Easy aerobic run"),
		slot(6, models.SessionRecovery, models.IntensityRecovery, 0.15, "Recovery jog"),
	}

	for i := range support {
		switch support[i].DayOffset {
		case raceOffset:
			support[i] = slot(raceOffset, models.SessionRace, models.IntensityMaxEffort, 0,
				fmt.Sprintf("Race: %s (%.1f km)", raceName(race), race.DistanceKm))
		case raceOffset - 1, raceOffset + 1:
			support[i] = rest(support[i].DayOffset)
		}
	}
	return support
}

func raceName(r models.Race) string {
	if r.Name != "" {
		return r.Name
	}
	return "race day"
}

// SupportShare is the fraction of the week target left for non-race
// sessions in a race week
func SupportShare(priority models.RacePriority) float64 {
	if priority == models.PriorityC {
		return 0.7
	}
	return 0.5
}

// SessionEngine expands a week target into seven concrete sessions
type SessionEngine struct {
	// NewID generates session ids
	NewID func() string
}

// NewSessionEngine returns an engine producing uuid session ids
func NewSessionEngine() *SessionEngine {
	return &SessionEngine{NewID: uuid.NewString}
}

// SelectTemplateSet picks the template set: race override first, then the
// recovery flag, then the phase.
func SelectTemplateSet(sk models.WeekSkeleton, override *models.RaceWeekOverride) TemplateSet {
	if override != nil {
		switch override.Kind {
		case models.OverrideRaceWeek:
			return TemplateRaceWeek
		case models.OverrideMiniTaper:
			return TemplateMiniTaper
		case models.OverridePostRaceRecovery:
			return TemplatePostRaceRecovery
		}
	}
	if sk.IsRecoveryWeek {
		return TemplateRecovery
	}
	switch sk.Phase {
	case models.PhaseBuild:
		return TemplateBuild
	case models.PhasePeak:
		return TemplatePeak
	case models.PhaseTaper, models.PhaseRace:
		return TemplateTaper
	default:
		return TemplateBase
	}
}

// Sessions returns exactly seven sessions, one per weekday starting Monday
func (e *SessionEngine) Sessions(sk models.WeekSkeleton, vol models.WeekVolume, experience models.ExperienceLevel, override *models.RaceWeekOverride) []models.TrainingSession {
	set := SelectTemplateSet(sk, override)

	weekKm := vol.TargetVolumeKm
	weekElev := vol.TargetElevationM

	var templates []SessionTemplate
	if set == TemplateRaceWeek {
		offset := daysFrom(sk.StartDate, override.Race.Date)
		templates = RaceWeekTemplates(offset, override.Race)
		weekKm *= SupportShare(override.Race.Priority)
		weekElev *= SupportShare(override.Race.Priority)
	} else {
		templates = Templates(set)
		if override != nil {
			weekKm *= override.Kind.VolumeMultiplier()
			weekElev *= override.Kind.VolumeMultiplier()
		}
	}

	if set == TemplateBuild && experience.Rank() >= models.ExperienceAdvanced.Rank() {
		for i := range templates {
			if templates[i].Type == models.SessionTempo {
				templates[i].Type = models.SessionVerticalGain
				templates[i].Intensity = models.IntensityHard
				templates[i].Description = "Vertical: sustained climbing repeats at threshold"
				break
			}
		}
	}

	var totalFraction float64
	for _, tpl := range templates {
		totalFraction += tpl.VolumeFraction
	}

	sessions := make([]models.TrainingSession, 0, len(templates))
	for _, tpl := range templates {
		s := models.TrainingSession{
			ID:          e.NewID(),
			Date:        sk.StartDate.AddDate(0, 0, tpl.DayOffset),
			Type:        tpl.Type,
			Intensity:   tpl.Intensity,
			Description: tpl.Description,
		}

		switch {
		case tpl.Type == models.SessionRace && override != nil:
			s.PlannedDistanceKm = override.Race.DistanceKm
			s.PlannedElevationM = override.Race.ElevationGainM
		case totalFraction > 0:
			s.PlannedDistanceKm = weekKm * tpl.VolumeFraction / totalFraction
			s.PlannedElevationM = weekElev * tpl.VolumeFraction / totalFraction
		}

		s.PlannedDuration = EstimateDuration(s.PlannedDistanceKm, s.Intensity)
		s.NutritionNotes = NutritionNotes(s.PlannedDuration, s.PlannedDistanceKm)
		sessions = append(sessions, s)
	}

	return sessions
}

// EstimateDuration converts distance to time using the intensity pace table
func EstimateDuration(distanceKm float64, intensity models.Intensity) time.Duration {
	seconds := distanceKm * intensity.PaceMinPerKm() * 60
	return time.Duration(math.Round(seconds)) * time.Second
}

// NutritionNotes returns fueling guidance for sessions longer than an hour
func NutritionNotes(d time.Duration, distanceKm float64) string {
	if d <= time.Hour {
		return ""
	}
	hours := d.Hours()

	carbsPerHour := 45
	if hours > 2.5 {
		carbsPerHour = 60
	}
	carbs := int(math.Round(hours * float64(carbsPerHour)))
	fluids := int(math.Round(hours*500/50)) * 50

	note := fmt.Sprintf("Fuel ~%d g carbs/h (%d g total) and ~%d ml fluids", carbsPerHour, carbs, fluids)
	if distanceKm > 30 {
		note += "; add electrolytes (~500 mg sodium/h)"
	}
	return note
}

func daysFrom(weekStart, t time.Time) int {
	d := int(models.StartOfDay(t.In(weekStart.Location())).Sub(weekStart).Hours()+12) / 24
	if d < 0 {
		return 0
	}
	if d > 6 {
		return 6
	}
	return d
}

package fitness

import (
	"errors"
	"math"
	"time"

	"runcoach/internal/models"
)

// EMA time constants in days
const (
	ChronicDays = 42
	AcuteDays   = 7

	// MaxMonotony caps the monotony index
	MaxMonotony = 10.0
)

// ErrInsufficientData is returned by estimators that need at least one
// qualifying run. Compute itself never fails.
var ErrInsufficientData = errors.New("insufficient run history")

// Compute builds the fitness snapshot at asOf from the raw run history.
// Nothing is cached: every call replays the full history so that edited or
// deleted runs never leave stale state behind.
func Compute(runs []models.Run, asOf time.Time) models.FitnessSnapshot {
	snap := models.FitnessSnapshot{Date: asOf}

	loads, first := dailyLoads(runs, asOf)
	if loads == nil {
		return snap
	}

	ctlAlpha := 2.0 / (ChronicDays + 1.0)
	atlAlpha := 2.0 / (AcuteDays + 1.0)

	var ctl, atl float64
	for _, load := range loads {
		ctl += ctlAlpha * (load - ctl)
		atl += atlAlpha * (load - atl)
	}

	snap.Fitness = ctl
	snap.Fatigue = atl
	snap.Form = ctl - atl
	if ctl > 0 {
		snap.AcuteChronicRatio = atl / ctl
	}

	windowStart := models.StartOfDay(asOf).AddDate(0, 0, -(AcuteDays - 1))
	for i := range runs {
		r := &runs[i]
		day := dayIn(r.Date, asOf.Location())
		if day.Before(windowStart) || day.After(models.StartOfDay(asOf)) {
			continue
		}
		snap.WeeklyVolumeKm += r.DistanceKm
		snap.WeeklyElevationM += r.ElevationGainM
		snap.WeeklyDuration += r.Duration
	}

	snap.Monotony = monotony(lastDays(loads, first, asOf, AcuteDays))
	return snap
}

// dailyLoads buckets run loads into one value per calendar day from the first
// run day through asOf. Returns nil when no run falls on or before asOf.
func dailyLoads(runs []models.Run, asOf time.Time) ([]float64, time.Time) {
	loc := asOf.Location()
	end := models.StartOfDay(asOf)

	var first time.Time
	found := false
	for i := range runs {
		day := dayIn(runs[i].Date, loc)
		if day.After(end) {
			continue
		}
		if !found || day.Before(first) {
			first = day
			found = true
		}
	}
	if !found {
		return nil, time.Time{}
	}

	n := daysBetween(first, end) + 1
	loads := make([]float64, n)
	for i := range runs {
		day := dayIn(runs[i].Date, loc)
		if day.After(end) {
			continue
		}
		loads[daysBetween(first, day)] += runs[i].Load()
	}
	return loads, first
}

// lastDays returns the trailing n daily loads ending at asOf, padding days
// before the history with zero.
func lastDays(loads []float64, first, asOf time.Time, n int) []float64 {
	out := make([]float64, n)
	end := models.StartOfDay(asOf)
	for i := 0; i < n; i++ {
		day := end.AddDate(0, 0, -(n - 1 - i))
		if day.Before(first) {
			continue
		}
		out[i] = loads[daysBetween(first, day)]
	}
	return out
}

func monotony(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(len(window))
	if mean <= 0 {
		return 0
	}

	var variance float64
	for _, v := range window {
		variance += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(variance / float64(len(window)))
	if sd == 0 {
		return MaxMonotony
	}
	return math.Min(mean/sd, MaxMonotony)
}

func dayIn(t time.Time, loc *time.Location) time.Time {
	return models.StartOfDay(t.In(loc))
}

// daysBetween counts calendar days, robust to DST shifts
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

package fitness

import (
	"time"

	"runcoach/internal/models"
)

const (
	SummaryWeeks   = 12
	RatioTrendDays = 28
)

// Summarize reports the current snapshot, 12 weeks of actual vs planned load
// and a 28-day ACR trend. plan may be nil.
func Summarize(runs []models.Run, plan *models.TrainingPlan, asOf time.Time) models.TrainingLoadSummary {
	current := Compute(runs, asOf)

	summary := models.TrainingLoadSummary{
		Current:     current,
		Risk:        RiskLevel(current.AcuteChronicRatio),
		FormStatus:  FormDescription(current.Form),
		WeeklyLoads: make([]models.WeeklyLoadPoint, 0, SummaryWeeks),
		RatioTrend:  make([]models.DailyRatioPoint, 0, RatioTrendDays),
	}

	lastMonday := models.MondayOf(asOf)
	for i := SummaryWeeks - 1; i >= 0; i-- {
		start := lastMonday.AddDate(0, 0, -7*i)
		end := start.AddDate(0, 0, 7)
		point := models.WeeklyLoadPoint{WeekStart: start}

		for j := range runs {
			day := dayIn(runs[j].Date, asOf.Location())
			if day.Before(start) || !day.Before(end) {
				continue
			}
			point.ActualKm += runs[j].DistanceKm
			point.ActualElevationM += runs[j].ElevationGainM
		}

		if plan != nil && len(plan.Weeks) > 0 {
			// compare calendar days since the plan may be in another zone
			loc := plan.Weeks[0].StartDate.Location()
			midday := time.Date(start.Year(), start.Month(), start.Day(), 12, 0, 0, 0, loc)
			if w := plan.WeekIndexFor(midday); w >= 0 {
				point.PlannedKm = plan.Weeks[w].TargetVolumeKm
				point.PlannedElevationM = plan.Weeks[w].TargetElevationM
			}
		}
		summary.WeeklyLoads = append(summary.WeeklyLoads, point)
	}

	// one full recomputation per day keeps each point independent of the others
	today := models.StartOfDay(asOf)
	for i := RatioTrendDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		snap := Compute(runs, day)
		summary.RatioTrend = append(summary.RatioTrend, models.DailyRatioPoint{
			Date:              day,
			AcuteChronicRatio: snap.AcuteChronicRatio,
		})
	}

	return summary
}

// RiskLevel classifies an acute:chronic ratio
func RiskLevel(acr float64) models.RiskLevel {
	switch {
	case acr < 0.8:
		return models.RiskUndertrained
	case acr <= 1.3:
		return models.RiskOptimal
	case acr <= 1.5:
		return models.RiskElevated
	default:
		return models.RiskHigh
	}
}

// FormDescription returns a human-readable description of TSB
func FormDescription(form float64) string {
	switch {
	case form > 25:
		return "Very fresh (possibly detrained)"
	case form > 10:
		return "Fresh and ready to race"
	case form > 0:
		return "Neutral - good for training"
	case form > -10:
		return "Slightly fatigued"
	case form > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}

// EstimateWeeklyVolume averages weekly distance over the trailing weeks
// ending at asOf. Used to seed an athlete without a recorded weekly volume.
func EstimateWeeklyVolume(runs []models.Run, asOf time.Time, weeks int) (float64, error) {
	if weeks < 1 {
		weeks = 1
	}
	end := models.StartOfDay(asOf)
	start := end.AddDate(0, 0, -(7*weeks - 1))

	var total float64
	count := 0
	for i := range runs {
		day := dayIn(runs[i].Date, asOf.Location())
		if day.Before(start) || day.After(end) {
			continue
		}
		total += runs[i].DistanceKm
		count++
	}
	if count == 0 {
		return 0, ErrInsufficientData
	}
	return total / float64(weeks), nil
}

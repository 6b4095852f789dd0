package adaptation

import (
	"errors"
	"fmt"
	"math"

	"runcoach/internal/models"
	"runcoach/internal/training"
)

// ErrUnknownSession is returned when a recommendation references a session
// the plan does not contain
var ErrUnknownSession = errors.New("session not found in plan")

// Apply mutates plan in place according to rec. Sessions keep their ids;
// only type, intensity, volume, duration and the skipped flag change.
// Nothing is modified if any referenced session is missing.
func Apply(plan *models.TrainingPlan, rec models.PlanAdjustmentRecommendation) error {
	adjusted := make(map[string]bool, len(rec.VolumeAdjustments))
	for _, adj := range rec.VolumeAdjustments {
		if plan.Session(adj.SessionID) == nil {
			return fmt.Errorf("apply %s: %w: %s", rec.Type, ErrUnknownSession, adj.SessionID)
		}
		adjusted[adj.SessionID] = true
	}
	for _, id := range rec.AffectedSessionIDs {
		if plan.Session(id) == nil {
			return fmt.Errorf("apply %s: %w: %s", rec.Type, ErrUnknownSession, id)
		}
	}

	for _, adj := range rec.VolumeAdjustments {
		s := plan.Session(adj.SessionID)
		s.PlannedDistanceKm = math.Max(0, s.PlannedDistanceKm+adj.AddedDistanceKm)
		s.PlannedElevationM = math.Max(0, s.PlannedElevationM+adj.AddedElevationM)
		if adj.TypeOverride != nil {
			s.Type = *adj.TypeOverride
			s.Intensity = s.Type.DefaultIntensity()
		}
		refresh(s)
	}

	switch rec.Type {
	case models.AdjustRescheduleMissedSession, models.AdjustRedistributeMissedVolume, models.AdjustMarkSessionsSkipped:
		// the source sessions are the affected ones that did not receive volume
		for _, id := range rec.AffectedSessionIDs {
			if !adjusted[id] {
				plan.Session(id).IsSkipped = true
			}
		}
	case models.AdjustReduceIntensity:
		for _, id := range rec.AffectedSessionIDs {
			s := plan.Session(id)
			s.Intensity = s.Intensity.StepDown()
			refresh(s)
		}
	}

	return nil
}

func refresh(s *models.TrainingSession) {
	s.PlannedDuration = training.EstimateDuration(s.PlannedDistanceKm, s.Intensity)
	s.NutritionNotes = training.NutritionNotes(s.PlannedDuration, s.PlannedDistanceKm)
}

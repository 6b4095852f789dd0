package training

import "runcoach/internal/models"

// SessionProgress is the completion state of one session, keyed by its
// position in the plan since regeneration assigns new session ids
type SessionProgress struct {
	WeekNumber  int                `json:"week_number"`
	SessionType models.SessionType `json:"session_type"`
	DayOfWeek   int                `json:"day_of_week"` // 1=Mon..7=Sun
	IsCompleted bool               `json:"is_completed"`
	IsSkipped   bool               `json:"is_skipped"`
	LinkedRunID string             `json:"linked_run_id,omitempty"`
}

// SnapshotProgress captures every session that carries completion state
func SnapshotProgress(plan *models.TrainingPlan) []SessionProgress {
	var out []SessionProgress
	for _, w := range plan.Weeks {
		for i := range w.Sessions {
			s := &w.Sessions[i]
			if !s.IsCompleted && !s.IsSkipped && s.LinkedRunID == "" {
				continue
			}
			out = append(out, SessionProgress{
				WeekNumber:  w.WeekNumber,
				SessionType: s.Type,
				DayOfWeek:   s.DayOfWeek(),
				IsCompleted: s.IsCompleted,
				IsSkipped:   s.IsSkipped,
				LinkedRunID: s.LinkedRunID,
			})
		}
	}
	return out
}

// RestoreProgress applies snapshots onto a regenerated plan. Each snapshot
// goes to the first session matching (week, type, weekday); snapshots with no
// match are dropped and later snapshots on the same key overwrite earlier
// ones. Returns how many snapshots were applied.
func RestoreProgress(snapshots []SessionProgress, plan *models.TrainingPlan) int {
	restored := 0
	for _, snap := range snapshots {
		s := findByKey(plan, snap.WeekNumber, snap.SessionType, snap.DayOfWeek)
		if s == nil {
			continue
		}
		s.IsCompleted = snap.IsCompleted
		s.IsSkipped = snap.IsSkipped
		s.LinkedRunID = snap.LinkedRunID
		restored++
	}
	return restored
}

func findByKey(plan *models.TrainingPlan, week int, typ models.SessionType, day int) *models.TrainingSession {
	for wi := range plan.Weeks {
		if plan.Weeks[wi].WeekNumber != week {
			continue
		}
		for si := range plan.Weeks[wi].Sessions {
			s := &plan.Weeks[wi].Sessions[si]
			if s.Type == typ && s.DayOfWeek() == day {
				return s
			}
		}
	}
	return nil
}

// RebaseProgress renumbers snapshots taken from old onto the week numbering
// of plan by matching calendar weeks. Snapshots whose week is not covered by
// plan are dropped.
func RebaseProgress(snapshots []SessionProgress, old, plan *models.TrainingPlan) []SessionProgress {
	out := make([]SessionProgress, 0, len(snapshots))
	for _, snap := range snapshots {
		n := snap.WeekNumber
		if n < 1 || n > len(old.Weeks) {
			continue
		}
		idx := plan.WeekIndexFor(old.Weeks[n-1].StartDate)
		if idx < 0 {
			continue
		}
		snap.WeekNumber = plan.Weeks[idx].WeekNumber
		out = append(out, snap)
	}
	return out
}

package training

import (
	"sort"

	"runcoach/internal/models"
)

// RaceOverrides computes the week overrides caused by intermediate races.
//
// B races get a mini taper the week before, a race week and a recovery week
// after. C races only get the race week. Races outside the skeleton or in the
// final week (the target race week) are ignored. When two overrides land on
// the same week the higher precedence kind wins; on equal kinds the earlier
// race keeps the week.
func RaceOverrides(skeletons []models.WeekSkeleton, races []models.Race) []models.RaceWeekOverride {
	if len(skeletons) == 0 {
		return nil
	}

	sorted := make([]models.Race, 0, len(races))
	for _, r := range races {
		if r.Priority == models.PriorityA {
			continue
		}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	last := len(skeletons) - 1
	byWeek := make(map[int]models.RaceWeekOverride)

	put := func(idx int, kind models.OverrideKind, race models.Race) {
		if idx < 0 || idx >= last {
			return
		}
		week := skeletons[idx].WeekNumber
		if existing, ok := byWeek[week]; ok && existing.Kind.Precedence() >= kind.Precedence() {
			return
		}
		byWeek[week] = models.RaceWeekOverride{WeekNumber: week, Kind: kind, Race: race}
	}

	for _, race := range sorted {
		idx := WeekContaining(skeletons, race.Date)
		if idx < 0 || idx == last {
			continue
		}

		put(idx, models.OverrideRaceWeek, race)
		if race.Priority == models.PriorityB {
			put(idx-1, models.OverrideMiniTaper, race)
			put(idx+1, models.OverridePostRaceRecovery, race)
		}
	}

	overrides := make([]models.RaceWeekOverride, 0, len(byWeek))
	for _, o := range byWeek {
		overrides = append(overrides, o)
	}
	sort.Slice(overrides, func(i, j int) bool {
		return overrides[i].WeekNumber < overrides[j].WeekNumber
	})
	return overrides
}

package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runcoach/internal/models"
)

func testPlan() *models.TrainingPlan {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return &models.TrainingPlan{
		ID: "p1",
		Weeks: []models.TrainingWeek{{
			WeekNumber: 1,
			StartDate:  start,
			EndDate:    start.AddDate(0, 0, 6),
			Phase:      models.PhaseBase,
			Sessions: []models.TrainingSession{
				{ID: "s1", Date: start, Type: models.SessionRest},
				{ID: "s2", Date: start.AddDate(0, 0, 1), Type: models.SessionEasy, Intensity: models.IntensityEasy,
					PlannedDistanceKm: 8, PlannedDuration: 52 * time.Minute, Description: "Easy aerobic run, conversational pace"},
				{ID: "s3", Date: start.AddDate(0, 0, 5), Type: models.SessionLongRun, Intensity: models.IntensityModerate,
					PlannedDistanceKm: 24, PlannedElevationM: 600, PlannedDuration: 3 * time.Hour, IsSkipped: true,
					NutritionNotes: "Carbohydrates: 60 g/h, 180 g total; fluids: 500 ml/h, 1500 ml total; electrolytes with every bottle"},
			},
		}},
	}
}

func TestPlanEvents(t *testing.T) {
	events := PlanEvents(testPlan(), 0)
	require.Len(t, events, 2)

	assert.Equal(t, "s2@runcoach", events[0].UID)
	assert.True(t, events[0].AllDay)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), events[0].StartTime)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), events[0].EndTime)
	assert.Contains(t, events[0].Summary, "8.0 km")
	assert.Contains(t, events[0].Description, "Week 1 (Base)")
	assert.Contains(t, events[0].Description, "52m0s")
	assert.False(t, events[0].Cancelled)

	assert.Contains(t, events[1].Summary, "+600 m")
	assert.True(t, events[1].Cancelled)
	assert.Contains(t, events[1].Description, "Nutrition: ")
}

func TestGenerateICS(t *testing.T) {
	stamp := time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC)
	ics := GenerateICS("Mountain 100", PlanEvents(testPlan(), 30), stamp)

	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(ics, "END:VCALENDAR\r\n"))
	assert.Equal(t, 2, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Equal(t, 2, strings.Count(ics, "DTSTAMP:20260228T100000Z"))
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20260303\r\n")
	assert.Contains(t, ics, "DTEND;VALUE=DATE:20260304\r\n")
	assert.Equal(t, 1, strings.Count(ics, "STATUS:CANCELLED"))
	// cancelled sessions get no reminder
	assert.Equal(t, 1, strings.Count(ics, "BEGIN:VALARM"))
	assert.Contains(t, ics, "TRIGGER:-PT30M")

	for _, line := range strings.Split(strings.TrimSuffix(ics, "\r\n"), "\r\n") {
		assert.LessOrEqual(t, len(line), 75, line)
	}

	unfolded := strings.ReplaceAll(ics, "\r\n ", "")
	assert.Contains(t, unfolded, `Carbohydrates: 60 g/h\, 180 g total\; fluids`)
}

func TestEscapeICS(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a,b", `a\,b`},
		{"a;b", `a\;b`},
		{`a\b`, `a\\b`},
		{"line1\nline2", `line1\nline2`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeICS(tt.in))
	}
}

func TestWriteLine_MultiByte(t *testing.T) {
	var sb strings.Builder
	writeLine(&sb, "SUMMARY:"+strings.Repeat("é", 60))

	lines := strings.Split(strings.TrimSuffix(sb.String(), "\r\n"), "\r\n")
	require.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 75)
		assert.True(t, strings.ToValidUTF8(l, "?") == l, "line split inside a rune")
	}
}

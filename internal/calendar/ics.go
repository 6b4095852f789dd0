// Package calendar exports training plans as iCalendar files
package calendar

import (
	"fmt"
	"strings"
	"time"

	"runcoach/internal/models"
)

// Event is one calendar entry. All-day events use dates only.
type Event struct {
	UID         string
	Summary     string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	AllDay      bool
	Cancelled   bool
	Reminder    int // minutes before start
}

// PlanEvents returns one all-day event per non-rest session of the plan.
// Skipped sessions are kept and marked cancelled.
func PlanEvents(plan *models.TrainingPlan, reminder int) []Event {
	var events []Event
	for wi := range plan.Weeks {
		week := &plan.Weeks[wi]
		for si := range week.Sessions {
			s := &week.Sessions[si]
			if s.Type.IsRest() {
				continue
			}
			day := models.StartOfDay(s.Date)
			events = append(events, Event{
				UID:         s.ID + "@runcoach",
				Summary:     sessionSummary(s),
				Description: sessionDescription(week, s),
				StartTime:   day,
				EndTime:     day.AddDate(0, 0, 1),
				AllDay:      true,
				Cancelled:   s.IsSkipped,
				Reminder:    reminder,
			})
		}
	}
	return events
}

func sessionSummary(s *models.TrainingSession) string {
	summary := s.Type.Name()
	if s.PlannedDistanceKm > 0 {
		summary += fmt.Sprintf(" %.1f km", s.PlannedDistanceKm)
	}
	if s.PlannedElevationM >= 1 {
		summary += fmt.Sprintf(" +%.0f m", s.PlannedElevationM)
	}
	return summary
}

func sessionDescription(week *models.TrainingWeek, s *models.TrainingSession) string {
	lines := []string{
		fmt.Sprintf("Week %d (%s)", week.WeekNumber, week.Phase.Name()),
	}
	if s.Description != "" {
		lines = append(lines, s.Description)
	}
	if s.PlannedDuration > 0 {
		lines = append(lines, "Duration: "+s.PlannedDuration.Round(time.Minute).String())
	}
	lines = append(lines, "Intensity: "+string(s.Intensity))
	if s.NutritionNotes != "" {
		lines = append(lines, "Nutrition: "+s.NutritionNotes)
	}
	return strings.Join(lines, "\n")
}

// GenerateICS renders events into a single calendar. stamp is written as
// DTSTAMP on every event.
func GenerateICS(name string, events []Event, stamp time.Time) string {
	var sb strings.Builder

	writeLine(&sb, "BEGIN:VCALENDAR")
	writeLine(&sb, "VERSION:2.0")
	writeLine(&sb, "PRODID:-//RunCoach//Training Plan//EN")
	writeLine(&sb, "CALSCALE:GREGORIAN")
	writeLine(&sb, "METHOD:PUBLISH")
	if name != "" {
		writeLine(&sb, "X-WR-CALNAME:"+escapeICS(name))
	}

	for _, event := range events {
		writeLine(&sb, "BEGIN:VEVENT")
		writeLine(&sb, "UID:"+event.UID)
		writeLine(&sb, "DTSTAMP:"+formatICSTime(stamp))
		if event.AllDay {
			writeLine(&sb, "DTSTART;VALUE=DATE:"+formatICSDate(event.StartTime))
			writeLine(&sb, "DTEND;VALUE=DATE:"+formatICSDate(event.EndTime))
			writeLine(&sb, "TRANSP:TRANSPARENT")
		} else {
			writeLine(&sb, "DTSTART:"+formatICSTime(event.StartTime))
			writeLine(&sb, "DTEND:"+formatICSTime(event.EndTime))
		}
		writeLine(&sb, "SUMMARY:"+escapeICS(event.Summary))

		if event.Description != "" {
			writeLine(&sb, "DESCRIPTION:"+escapeICS(event.Description))
		}
		if event.Cancelled {
			writeLine(&sb, "STATUS:CANCELLED")
		}

		if event.Reminder > 0 && !event.Cancelled {
			writeLine(&sb, "BEGIN:VALARM")
			writeLine(&sb, "ACTION:DISPLAY")
			writeLine(&sb, fmt.Sprintf("TRIGGER:-PT%dM", event.Reminder))
			writeLine(&sb, "DESCRIPTION:"+escapeICS(event.Summary))
			writeLine(&sb, "END:VALARM")
		}

		writeLine(&sb, "END:VEVENT")
	}

	writeLine(&sb, "END:VCALENDAR")
	return sb.String()
}

// writeLine folds content lines longer than 75 octets
func writeLine(sb *strings.Builder, line string) {
	limit := 75
	for len(line) > limit {
		cut := limit
		// never split inside a multi-byte rune
		for cut > 0 && line[cut]&0xC0 == 0x80 {
			cut--
		}
		sb.WriteString(line[:cut])
		sb.WriteString("\r\n ")
		line = line[cut:]
		limit = 74
	}
	sb.WriteString(line)
	sb.WriteString("\r\n")
}

func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func formatICSDate(t time.Time) string {
	return t.Format("20060102")
}

func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

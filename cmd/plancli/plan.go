package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"runcoach/internal/calendar"
	"runcoach/internal/models"
)

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Rebuild a plan from today keeping completed and skipped sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		planID, _ := cmd.Flags().GetString("plan")

		now, err := referenceTime(cmd)
		if err != nil {
			return err
		}
		svc, store, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		plan, err := svc.RegeneratePlan(ctx, planID, now)
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the training load summary for a plan's athlete",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		planID, _ := cmd.Flags().GetString("plan")
		asJSON, _ := cmd.Flags().GetBool("json")

		now, err := referenceTime(cmd)
		if err != nil {
			return err
		}
		svc, store, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := svc.LoadSummary(ctx, planID, now)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(summary)
		}

		c := summary.Current
		fmt.Printf("Fitness %.1f  Fatigue %.1f  Form %.1f (%s)\n", c.Fitness, c.Fatigue, c.Form, summary.FormStatus)
		fmt.Printf("ACR %.2f (%s)  Monotony %.2f\n", c.AcuteChronicRatio, summary.Risk, c.Monotony)
		fmt.Printf("Last 7 days: %.1f km, %.0f m, %s\n\n", c.WeeklyVolumeKm, c.WeeklyElevationM, c.WeeklyDuration.Round(time.Minute))

		fmt.Printf("%-11s %9s %9s\n", "WEEK", "ACTUAL", "PLANNED")
		for _, w := range summary.WeeklyLoads {
			fmt.Printf("%-11s %9.1f %9.1f\n", w.WeekStart.Format("2006-01-02"), w.ActualKm, w.PlannedKm)
		}
		return nil
	},
}

var exportICSCmd = &cobra.Command{
	Use:   "export-ics",
	Short: "Export a plan's sessions as an iCalendar file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		planID, _ := cmd.Flags().GetString("plan")
		output, _ := cmd.Flags().GetString("output")
		reminder, _ := cmd.Flags().GetInt("reminder")

		_, store, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		plan, err := store.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		name := "Training plan"
		if race, err := store.GetRace(ctx, plan.TargetRaceID); err == nil {
			name = race.Name
		}

		events := calendar.PlanEvents(plan, reminder)
		ics := calendar.GenerateICS(name, events, time.Now())
		if output == "" || output == "-" {
			_, err = fmt.Print(ics)
			return err
		}
		if err := os.WriteFile(output, []byte(ics), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %d sessions to %s\n", len(events), output)
		return nil
	},
}

var recordRunCmd = &cobra.Command{
	Use:   "record-run",
	Short: "Record a run and link it to the matching planned session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		athleteID, _ := cmd.Flags().GetString("athlete")
		date, _ := cmd.Flags().GetString("date")
		km, _ := cmd.Flags().GetFloat64("km")
		elevation, _ := cmd.Flags().GetFloat64("elevation")
		duration, _ := cmd.Flags().GetDuration("duration")
		tss, _ := cmd.Flags().GetFloat64("tss")

		at, err := parseTime(date)
		if err != nil {
			return err
		}
		run := &models.Run{
			ID:             fmt.Sprintf("%s-run-%s", athleteID, at.Format("20060102T1504")),
			AthleteID:      athleteID,
			Date:           at,
			DistanceKm:     km,
			ElevationGainM: elevation,
			Duration:       duration,
		}
		if tss > 0 {
			run.TrainingStressScore = &tss
		}

		svc, store, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		session, err := svc.RecordRun(ctx, run)
		if err != nil {
			return err
		}
		if session == nil {
			fmt.Printf("✓ Recorded run %s (no planned session that day)\n", run.ID)
			return nil
		}
		fmt.Printf("✓ Recorded run %s, completed %s on %s\n", run.ID, session.Type.Name(), session.Date.Format("Mon Jan 2"))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{regenerateCmd, summaryCmd, exportICSCmd} {
		c.Flags().String("plan", "", "Plan ID (required)")
		_ = c.MarkFlagRequired("plan")
		rootCmd.AddCommand(c)
	}
	summaryCmd.Flags().Bool("json", false, "Print the summary as JSON")
	exportICSCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	exportICSCmd.Flags().Int("reminder", 0, "Reminder minutes before each session day")

	recordRunCmd.Flags().String("athlete", "", "Athlete ID (required)")
	recordRunCmd.Flags().String("date", "", "Run start, RFC3339 or YYYY-MM-DD (required)")
	recordRunCmd.Flags().Float64("km", 0, "Distance in km")
	recordRunCmd.Flags().Float64("elevation", 0, "Elevation gain in m")
	recordRunCmd.Flags().Duration("duration", 0, "Moving time, e.g. 1h15m")
	recordRunCmd.Flags().Float64("tss", 0, "Training stress score if known")
	_ = recordRunCmd.MarkFlagRequired("athlete")
	_ = recordRunCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(recordRunCmd)
}

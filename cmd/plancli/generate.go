package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"runcoach/internal/models"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a plan from a YAML input file",
	Long: `Load an athlete, races, run history and recovery scores from a YAML
file into the local store and generate a plan toward the target race.

Examples:
  # Generate and print a week overview
  plancli generate -f athlete.yaml

  # Generate as of a fixed date and print the full plan as JSON
  plancli generate -f athlete.yaml --now 2026-02-28 --json`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("file", "f", "", "YAML input file (required)")
	generateCmd.Flags().Bool("json", false, "Print the plan as JSON")
	_ = generateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(generateCmd)
}

// PlanInput is the YAML document read by generate
type PlanInput struct {
	Athlete  models.Athlete  `yaml:"athlete"`
	Target   string          `yaml:"target"` // race id
	Races    []models.Race   `yaml:"races"`
	Runs     []models.Run    `yaml:"runs"`
	Recovery []RecoveryInput `yaml:"recovery"`
}

// RecoveryInput is one recorded recovery score
type RecoveryInput struct {
	Date  time.Time `yaml:"date"`
	Score float64   `yaml:"score"`
}

func loadPlanInput(path string) (*PlanInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var in PlanInput
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if in.Athlete.ID == "" {
		return nil, fmt.Errorf("athlete.id is required")
	}
	if in.Athlete.Experience == "" {
		in.Athlete.Experience = models.ExperienceIntermediate
	}
	if !in.Athlete.Experience.Valid() {
		return nil, fmt.Errorf("unknown experience %q", in.Athlete.Experience)
	}
	if in.Target == "" {
		for _, r := range in.Races {
			if r.Priority == models.PriorityA && !r.IsCompleted {
				in.Target = r.ID
				break
			}
		}
	}
	if in.Target == "" {
		return nil, fmt.Errorf("no target race: set target or add an A race")
	}

	for i := range in.Races {
		if in.Races[i].AthleteID == "" {
			in.Races[i].AthleteID = in.Athlete.ID
		}
	}
	for i := range in.Runs {
		if in.Runs[i].AthleteID == "" {
			in.Runs[i].AthleteID = in.Athlete.ID
		}
		if in.Runs[i].ID == "" {
			in.Runs[i].ID = fmt.Sprintf("%s-run-%s", in.Athlete.ID, in.Runs[i].Date.Format("20060102T1504"))
		}
	}
	return &in, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path, _ := cmd.Flags().GetString("file")
	asJSON, _ := cmd.Flags().GetBool("json")

	now, err := referenceTime(cmd)
	if err != nil {
		return err
	}
	in, err := loadPlanInput(path)
	if err != nil {
		return err
	}

	svc, store, err := openLocal()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveAthlete(ctx, &in.Athlete); err != nil {
		return err
	}
	for i := range in.Races {
		if err := store.SaveRace(ctx, &in.Races[i]); err != nil {
			return err
		}
	}
	for i := range in.Runs {
		if err := store.SaveRun(ctx, &in.Runs[i]); err != nil {
			return err
		}
	}
	for _, r := range in.Recovery {
		if err := store.SaveScore(ctx, in.Athlete.ID, r.Date, r.Score); err != nil {
			return err
		}
	}

	plan, err := svc.GeneratePlan(ctx, in.Athlete.ID, in.Target, now)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(plan)
	}
	printPlan(plan)
	return nil
}

func printPlan(plan *models.TrainingPlan) {
	fmt.Printf("Plan %s (%d weeks, starts %s)\n\n", plan.ID, len(plan.Weeks), plan.StartDate().Format("2006-01-02"))
	fmt.Printf("%-5s %-11s %-7s %9s %9s\n", "WEEK", "START", "PHASE", "KM", "ELEV M")
	for _, w := range plan.Weeks {
		phase := w.Phase.Name()
		if w.IsRecoveryWeek {
			phase += "*"
		}
		fmt.Printf("%-5d %-11s %-7s %9.1f %9.0f\n",
			w.WeekNumber, w.StartDate.Format("2006-01-02"), phase, w.TargetVolumeKm, w.TargetElevationM)
	}
	fmt.Println("\n* recovery week")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a plan and list recommended adjustments",
	Long: `Analyze a plan against completed sessions, run history and the latest
recovery score, and print the recommendations most pressing first.

Examples:
  # Record today's recovery score and analyze
  plancli analyze --plan <id> --recovery 35

  # Apply the first recommendation
  plancli analyze --plan <id> --apply 1`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("plan", "", "Plan ID (required)")
	analyzeCmd.Flags().Float64("recovery", -1, "Record a recovery score (0-100) at the reference time first")
	analyzeCmd.Flags().Int("apply", 0, "Apply the Nth recommendation (1-based)")
	analyzeCmd.Flags().Bool("json", false, "Print the analysis as JSON")
	_ = analyzeCmd.MarkFlagRequired("plan")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	planID, _ := cmd.Flags().GetString("plan")
	recovery, _ := cmd.Flags().GetFloat64("recovery")
	apply, _ := cmd.Flags().GetInt("apply")
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

	if recovery >= 0 {
		if recovery > 100 {
			return fmt.Errorf("recovery score must be between 0 and 100")
		}
		plan, err := store.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if err := store.SaveScore(ctx, plan.AthleteID, now, recovery); err != nil {
			return err
		}
	}

	analysis, err := svc.Analyze(ctx, planID, now)
	if err != nil {
		return err
	}

	if apply > 0 {
		if apply > len(analysis.Recommendations) {
			return fmt.Errorf("no recommendation %d, analysis returned %d", apply, len(analysis.Recommendations))
		}
		rec := analysis.Recommendations[apply-1]
		if _, err := svc.ApplyRecommendation(ctx, planID, rec); err != nil {
			return err
		}
		fmt.Printf("✓ Applied: %s\n", rec.Title)
		return nil
	}

	if asJSON {
		return printJSON(analysis)
	}

	f := analysis.Fitness
	fmt.Printf("Fitness %.1f  Fatigue %.1f  Form %.1f  ACR %.2f\n", f.Fitness, f.Fatigue, f.Form, f.AcuteChronicRatio)
	if analysis.RecoveryScore != nil {
		fmt.Printf("Recovery score %.0f\n", *analysis.RecoveryScore)
	}
	if analysis.UnrecoverableDistanceKm > 0 {
		fmt.Printf("Unrecoverable missed distance %.1f km\n", analysis.UnrecoverableDistanceKm)
	}
	fmt.Println()

	if len(analysis.Recommendations) == 0 {
		fmt.Println("No adjustments needed.")
		return nil
	}
	for i, rec := range analysis.Recommendations {
		fmt.Printf("%d. [%s] %s\n   %s\n   -> %s (%d sessions)\n",
			i+1, rec.Severity, rec.Title, rec.Message, rec.ActionLabel, len(rec.AffectedSessionIDs))
	}
	return nil
}

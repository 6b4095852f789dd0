package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"runcoach/internal/coach"
	"runcoach/internal/config"
	"runcoach/internal/logger"
	"runcoach/internal/repository"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "plancli",
	Short: "Periodized training plans for trail and ultra runners",
	Long: `plancli builds periodized training plans toward a target race,
analyzes them against completed sessions and run history, and applies
the resulting adjustments.

Local commands keep their data in a single bbolt file (--store).
The serve command runs scheduled analysis against Postgres.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("thresholds"); path != "" {
			th, err := config.LoadThresholds(path)
			if err != nil {
				return err
			}
			cfg.Thresholds = th
		}
		if path, _ := cmd.Flags().GetString("store"); path != "" {
			cfg.BoltPath = path
		}

		level := cfg.LogLevel
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = string(logger.DebugLevel)
		}
		logger.Init(logger.Config{
			Level:      logger.Level(level),
			JSONOutput: cfg.LogJSON,
			Output:     os.Stderr,
		})
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("plancli version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("store", "", "Path to the local plan store (default $BOLT_PATH)")
	rootCmd.PersistentFlags().String("thresholds", "", "YAML file overriding default thresholds")
	rootCmd.PersistentFlags().String("now", "", "Reference time, RFC3339 or YYYY-MM-DD (default: current time)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// openLocal opens the bbolt store and builds a service over it
func openLocal() (*coach.Service, *repository.BoltStore, error) {
	store, err := repository.NewBoltStore(cfg.BoltPath)
	if err != nil {
		return nil, nil, err
	}
	svc := coach.NewService(coach.Stores{
		Plans:    store,
		Runs:     store,
		Races:    store,
		Recovery: store,
		Athletes: store,
	}, cfg.Thresholds)
	return svc, store, nil
}

// referenceTime reads --now
func referenceTime(cmd *cobra.Command) (time.Time, error) {
	value, _ := cmd.Flags().GetString("now")
	if value == "" {
		return time.Now(), nil
	}
	return parseTime(value)
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use RFC3339 or YYYY-MM-DD", value)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"runcoach/internal/coach"
	"runcoach/internal/logger"
	"runcoach/internal/metrics"
	"runcoach/internal/repository"
	"runcoach/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled plan analysis against Postgres",
	Long: `Connect to Postgres, create the schema if needed, analyze every active
plan on ANALYSIS_SCHEDULE and expose Prometheus metrics on METRICS_ADDR.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("run-now", false, "Run one analysis pass at startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")
	runNow, _ := cmd.Flags().GetBool("run-now")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Migrate(ctx); err != nil {
		return err
	}
	log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("Connected to Postgres")

	svc := coach.NewService(coach.Stores{
		Plans:    repo.Plans,
		Runs:     repo.Runs,
		Races:    repo.Races,
		Recovery: repo.Recovery,
		Athletes: repo.Athletes,
	}, cfg.Thresholds)

	sched := scheduler.New(repo.Plans, svc)
	if err := sched.Start(cfg.AnalysisSchedule); err != nil {
		return err
	}
	defer sched.Stop()

	if runNow {
		go sched.RunOnce(ctx)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server error: %w", err)
		}
	}()
	log.Info().Str("addr", cfg.MetricsAddr).Msg("Metrics server listening")

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"runcoach/internal/models"
)

// RunRepository stores the run history
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a run repository
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun inserts or replaces a run
func (r *RunRepository) SaveRun(ctx context.Context, run *models.Run) error {
	var tss sql.NullFloat64
	if run.TrainingStressScore != nil {
		tss = sql.NullFloat64{Float64: *run.TrainingStressScore, Valid: true}
	}
	var hr sql.NullInt64
	if run.AverageHeartRate != nil {
		hr = sql.NullInt64{Int64: int64(*run.AverageHeartRate), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO public.runs
		(id, athlete_id, run_date, distance_km, elevation_gain_m, duration_seconds, training_stress_score, average_heart_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			run_date = $3, distance_km = $4, elevation_gain_m = $5,
			duration_seconds = $6, training_stress_score = $7, average_heart_rate = $8`,
		run.ID, run.AthleteID, run.Date, run.DistanceKm, run.ElevationGainM,
		int64(run.Duration/time.Second), tss, hr,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// DeleteRun removes a run; fitness is recomputed from what remains
func (r *RunRepository) DeleteRun(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM public.runs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

// RunsForAthlete returns the full history in date order
func (r *RunRepository) RunsForAthlete(ctx context.Context, athleteID string) ([]models.Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, athlete_id, run_date, distance_km, elevation_gain_m,
		       duration_seconds, training_stress_score, average_heart_rate
		FROM public.runs
		WHERE athlete_id = $1
		ORDER BY run_date`, athleteID)
	if err != nil {
		return nil, fmt.Errorf("runs for %s: %w", athleteID, err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		var seconds int64
		var tss sql.NullFloat64
		var hr sql.NullInt64
		if err := rows.Scan(&run.ID, &run.AthleteID, &run.Date, &run.DistanceKm,
			&run.ElevationGainM, &seconds, &tss, &hr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Duration = time.Duration(seconds) * time.Second
		if tss.Valid {
			v := tss.Float64
			run.TrainingStressScore = &v
		}
		if hr.Valid {
			v := int(hr.Int64)
			run.AverageHeartRate = &v
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

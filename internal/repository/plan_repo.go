package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"runcoach/internal/models"
)

// PlanRepository stores training plans with their weeks and sessions
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a plan repository
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// SavePlan writes the plan and replaces its weeks and sessions in one
// transaction. Session ids are preserved.
func (r *PlanRepository) SavePlan(ctx context.Context, plan *models.TrainingPlan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO public.training_plans
		(id, athlete_id, target_race_id, status, created_at, intermediate_race_ids)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET status = $4, intermediate_race_ids = $6`,
		plan.ID, plan.AthleteID, plan.TargetRaceID, plan.Status, plan.CreatedAt,
		pq.Array(plan.IntermediateRaceIDs),
	)
	if err != nil {
		return fmt.Errorf("save plan %s: %w", plan.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM public.training_sessions WHERE plan_id = $1`, plan.ID); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM public.training_weeks WHERE plan_id = $1`, plan.ID); err != nil {
		return fmt.Errorf("clear weeks: %w", err)
	}

	for _, w := range plan.Weeks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO public.training_weeks
			(plan_id, week_number, start_date, end_date, phase, is_recovery_week, target_volume_km, target_elevation_m)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			plan.ID, w.WeekNumber, w.StartDate, w.EndDate, w.Phase,
			w.IsRecoveryWeek, w.TargetVolumeKm, w.TargetElevationM,
		)
		if err != nil {
			return fmt.Errorf("save week %d: %w", w.WeekNumber, err)
		}

		for _, s := range w.Sessions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO public.training_sessions
				(id, plan_id, week_number, session_date, session_type, intensity,
				 planned_distance_km, planned_elevation_m, planned_duration_s,
				 description, nutrition_notes, is_completed, is_skipped, linked_run_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
				s.ID, plan.ID, w.WeekNumber, s.Date, s.Type, s.Intensity,
				s.PlannedDistanceKm, s.PlannedElevationM, int64(s.PlannedDuration/time.Second),
				s.Description, s.NutritionNotes, s.IsCompleted, s.IsSkipped, s.LinkedRunID,
			)
			if err != nil {
				return fmt.Errorf("save session %s: %w", s.ID, err)
			}
		}
	}

	return tx.Commit()
}

// GetPlan loads a plan with all weeks and sessions
func (r *PlanRepository) GetPlan(ctx context.Context, id string) (*models.TrainingPlan, error) {
	plan := &models.TrainingPlan{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, athlete_id, target_race_id, status, created_at, intermediate_race_ids
		FROM public.training_plans
		WHERE id = $1`, id).Scan(
		&plan.ID, &plan.AthleteID, &plan.TargetRaceID, &plan.Status, &plan.CreatedAt,
		pq.Array(&plan.IntermediateRaceIDs),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", id, err)
	}

	if err := r.loadWeeks(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ActivePlanForAthlete returns the newest active plan of the athlete
func (r *PlanRepository) ActivePlanForAthlete(ctx context.Context, athleteID string) (*models.TrainingPlan, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM public.training_plans
		WHERE athlete_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`, athleteID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active plan for %s: %w", athleteID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("active plan for %s: %w", athleteID, err)
	}
	return r.GetPlan(ctx, id)
}

// ListActivePlans returns a summary row for every active plan
func (r *PlanRepository) ListActivePlans(ctx context.Context) ([]models.TrainingPlanListItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.athlete_id, p.target_race_id, p.status,
		       COUNT(w.week_number), COALESCE(MIN(w.start_date), p.created_at)
		FROM public.training_plans p
		LEFT JOIN public.training_weeks w ON w.plan_id = p.id
		WHERE p.status = 'active'
		GROUP BY p.id
		ORDER BY p.created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	defer rows.Close()

	var items []models.TrainingPlanListItem
	for rows.Next() {
		var it models.TrainingPlanListItem
		if err := rows.Scan(&it.ID, &it.AthleteID, &it.TargetRaceID, &it.Status, &it.TotalWeeks, &it.StartDate); err != nil {
			return nil, fmt.Errorf("scan plan row: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateStatus changes the plan status
func (r *PlanRepository) UpdateStatus(ctx context.Context, planID string, status models.PlanStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE public.training_plans SET status = $1 WHERE id = $2",
		status, planID,
	)
	if err != nil {
		return fmt.Errorf("update plan %s status: %w", planID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	return nil
}

func (r *PlanRepository) loadWeeks(ctx context.Context, plan *models.TrainingPlan) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT week_number, start_date, end_date, phase, is_recovery_week, target_volume_km, target_elevation_m
		FROM public.training_weeks
		WHERE plan_id = $1
		ORDER BY week_number`, plan.ID)
	if err != nil {
		return fmt.Errorf("load weeks: %w", err)
	}
	defer rows.Close()

	index := make(map[int]int)
	for rows.Next() {
		var w models.TrainingWeek
		if err := rows.Scan(&w.WeekNumber, &w.StartDate, &w.EndDate, &w.Phase,
			&w.IsRecoveryWeek, &w.TargetVolumeKm, &w.TargetElevationM); err != nil {
			return fmt.Errorf("scan week: %w", err)
		}
		index[w.WeekNumber] = len(plan.Weeks)
		plan.Weeks = append(plan.Weeks, w)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	srows, err := r.db.QueryContext(ctx, `
		SELECT id, week_number, session_date, session_type, intensity,
		       planned_distance_km, planned_elevation_m, planned_duration_s,
		       description, nutrition_notes, is_completed, is_skipped, linked_run_id
		FROM public.training_sessions
		WHERE plan_id = $1
		ORDER BY session_date`, plan.ID)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	defer srows.Close()

	for srows.Next() {
		var s models.TrainingSession
		var week int
		var seconds int64
		if err := srows.Scan(&s.ID, &week, &s.Date, &s.Type, &s.Intensity,
			&s.PlannedDistanceKm, &s.PlannedElevationM, &seconds,
			&s.Description, &s.NutritionNotes, &s.IsCompleted, &s.IsSkipped, &s.LinkedRunID); err != nil {
			return fmt.Errorf("scan session: %w", err)
		}
		s.PlannedDuration = time.Duration(seconds) * time.Second
		if i, ok := index[week]; ok {
			plan.Weeks[i].Sessions = append(plan.Weeks[i].Sessions, s)
		}
	}
	return srows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("not found")

// Repository groups the Postgres stores
type Repository struct {
	db       *sql.DB
	Plans    *PlanRepository
	Runs     *RunRepository
	Races    *RaceRepository
	Athletes *AthleteRepository
	Recovery *RecoveryRepository
}

// New creates the stores over an open connection
func New(db *sql.DB) *Repository {
	return &Repository{
		db:       db,
		Plans:    NewPlanRepository(db),
		Runs:     NewRunRepository(db),
		Races:    NewRaceRepository(db),
		Athletes: NewAthleteRepository(db),
		Recovery: NewRecoveryRepository(db),
	}
}

// Open connects to Postgres and verifies the connection
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the schema if it does not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS public.athletes (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL DEFAULT '',
	experience       TEXT NOT NULL,
	weekly_volume_km DOUBLE PRECISION NOT NULL DEFAULT 0,
	max_heart_rate   INTEGER NOT NULL DEFAULT 0,
	custom_zones     BIGINT[]
);

CREATE TABLE IF NOT EXISTS public.races (
	id                 TEXT PRIMARY KEY,
	athlete_id         TEXT NOT NULL REFERENCES public.athletes(id),
	name               TEXT NOT NULL DEFAULT '',
	race_date          TIMESTAMPTZ NOT NULL,
	distance_km        DOUBLE PRECISION NOT NULL,
	elevation_gain_m   DOUBLE PRECISION NOT NULL DEFAULT 0,
	elevation_loss_m   DOUBLE PRECISION NOT NULL DEFAULT 0,
	priority           TEXT NOT NULL,
	terrain_difficulty INTEGER NOT NULL DEFAULT 0,
	checkpoints        JSONB,
	is_completed       BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS public.runs (
	id                    TEXT PRIMARY KEY,
	athlete_id            TEXT NOT NULL REFERENCES public.athletes(id),
	run_date              TIMESTAMPTZ NOT NULL,
	distance_km           DOUBLE PRECISION NOT NULL,
	elevation_gain_m      DOUBLE PRECISION NOT NULL DEFAULT 0,
	duration_seconds      BIGINT NOT NULL DEFAULT 0,
	training_stress_score DOUBLE PRECISION,
	average_heart_rate    INTEGER
);
CREATE INDEX IF NOT EXISTS runs_athlete_date ON public.runs (athlete_id, run_date);

CREATE TABLE IF NOT EXISTS public.recovery_scores (
	athlete_id  TEXT NOT NULL REFERENCES public.athletes(id),
	recorded_at TIMESTAMPTZ NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (athlete_id, recorded_at)
);

CREATE TABLE IF NOT EXISTS public.training_plans (
	id                    TEXT PRIMARY KEY,
	athlete_id            TEXT NOT NULL REFERENCES public.athletes(id),
	target_race_id        TEXT NOT NULL REFERENCES public.races(id),
	status                TEXT NOT NULL,
	created_at            TIMESTAMPTZ NOT NULL,
	intermediate_race_ids TEXT[]
);

CREATE TABLE IF NOT EXISTS public.training_weeks (
	plan_id            TEXT NOT NULL REFERENCES public.training_plans(id) ON DELETE CASCADE,
	week_number        INTEGER NOT NULL,
	start_date         TIMESTAMPTZ NOT NULL,
	end_date           TIMESTAMPTZ NOT NULL,
	phase              TEXT NOT NULL,
	is_recovery_week   BOOLEAN NOT NULL DEFAULT false,
	target_volume_km   DOUBLE PRECISION NOT NULL,
	target_elevation_m DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (plan_id, week_number)
);

CREATE TABLE IF NOT EXISTS public.training_sessions (
	id                  TEXT PRIMARY KEY,
	plan_id             TEXT NOT NULL REFERENCES public.training_plans(id) ON DELETE CASCADE,
	week_number         INTEGER NOT NULL,
	session_date        TIMESTAMPTZ NOT NULL,
	session_type        TEXT NOT NULL,
	intensity           TEXT NOT NULL,
	planned_distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
	planned_elevation_m DOUBLE PRECISION NOT NULL DEFAULT 0,
	planned_duration_s  BIGINT NOT NULL DEFAULT 0,
	description         TEXT NOT NULL DEFAULT '',
	nutrition_notes     TEXT NOT NULL DEFAULT '',
	is_completed        BOOLEAN NOT NULL DEFAULT false,
	is_skipped          BOOLEAN NOT NULL DEFAULT false,
	linked_run_id       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS training_sessions_plan ON public.training_sessions (plan_id, session_date);
`

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

// AthleteRepository stores athlete profiles
type AthleteRepository struct {
	db *sql.DB
}

// NewAthleteRepository creates an athlete repository
func NewAthleteRepository(db *sql.DB) *AthleteRepository {
	return &AthleteRepository{db: db}
}

// SaveAthlete inserts or replaces an athlete
func (r *AthleteRepository) SaveAthlete(ctx context.Context, a *models.Athlete) error {
	zones := make(pq.Int64Array, len(a.CustomZones))
	for i, z := range a.CustomZones {
		zones[i] = int64(z)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO public.athletes (id, name, experience, weekly_volume_km, max_heart_rate, custom_zones)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = $2, experience = $3, weekly_volume_km = $4, max_heart_rate = $5, custom_zones = $6`,
		a.ID, a.Name, a.Experience, a.WeeklyVolumeKm, a.MaxHeartRate, zones,
	)
	if err != nil {
		return fmt.Errorf("save athlete %s: %w", a.ID, err)
	}
	return nil
}

// GetAthlete returns an athlete by id
func (r *AthleteRepository) GetAthlete(ctx context.Context, id string) (*models.Athlete, error) {
	var a models.Athlete
	var zones pq.Int64Array
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, experience, weekly_volume_km, max_heart_rate, custom_zones
		FROM public.athletes WHERE id = $1`, id).Scan(
		&a.ID, &a.Name, &a.Experience, &a.WeeklyVolumeKm, &a.MaxHeartRate, &zones,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("athlete %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get athlete %s: %w", id, err)
	}
	for _, z := range zones {
		a.CustomZones = append(a.CustomZones, int(z))
	}
	return &a, nil
}

// RecoveryRepository stores daily recovery scores (0-100)
type RecoveryRepository struct {
	db *sql.DB
}

// NewRecoveryRepository creates a recovery score repository
func NewRecoveryRepository(db *sql.DB) *RecoveryRepository {
	return &RecoveryRepository{db: db}
}

// SaveScore records a score
func (r *RecoveryRepository) SaveScore(ctx context.Context, athleteID string, at time.Time, score float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO public.recovery_scores (athlete_id, recorded_at, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (athlete_id, recorded_at) DO UPDATE SET score = $3`,
		athleteID, at, score,
	)
	if err != nil {
		return fmt.Errorf("save recovery score: %w", err)
	}
	return nil
}

// LatestScore returns the most recent score recorded on or before asOf.
// ok is false when the athlete has no score yet.
func (r *RecoveryRepository) LatestScore(ctx context.Context, athleteID string, asOf time.Time) (float64, bool, error) {
	var score float64
	err := r.db.QueryRowContext(ctx, `
		SELECT score FROM public.recovery_scores
		WHERE athlete_id = $1 AND recorded_at <= $2
		ORDER BY recorded_at DESC
		LIMIT 1`, athleteID, asOf).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("latest recovery score: %w", err)
	}
	return score, true, nil
}

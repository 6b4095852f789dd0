package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"runcoach/internal/models"
)

// RaceRepository stores target and intermediate races
type RaceRepository struct {
	db *sql.DB
}

// NewRaceRepository creates a race repository
func NewRaceRepository(db *sql.DB) *RaceRepository {
	return &RaceRepository{db: db}
}

const raceColumns = `id, athlete_id, name, race_date, distance_km, elevation_gain_m, elevation_loss_m,
	priority, terrain_difficulty, checkpoints, is_completed`

// SaveRace inserts or replaces a race
func (r *RaceRepository) SaveRace(ctx context.Context, race *models.Race) error {
	checkpoints, err := json.Marshal(race.Checkpoints)
	if err != nil {
		return fmt.Errorf("encode checkpoints: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO public.races (`+raceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = $3, race_date = $4, distance_km = $5, elevation_gain_m = $6,
			elevation_loss_m = $7, priority = $8, terrain_difficulty = $9,
			checkpoints = $10, is_completed = $11`,
		race.ID, race.AthleteID, race.Name, race.Date, race.DistanceKm, race.ElevationGainM,
		race.ElevationLossM, race.Priority, race.TerrainDifficulty, checkpoints, race.IsCompleted,
	)
	if err != nil {
		return fmt.Errorf("save race %s: %w", race.ID, err)
	}
	return nil
}

// GetRace returns a race by id
func (r *RaceRepository) GetRace(ctx context.Context, id string) (*models.Race, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+raceColumns+` FROM public.races WHERE id = $1`, id)
	race, err := scanRace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("race %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get race %s: %w", id, err)
	}
	return race, nil
}

// RacesForAthlete returns the athlete's races in date order
func (r *RaceRepository) RacesForAthlete(ctx context.Context, athleteID string) ([]models.Race, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+raceColumns+` FROM public.races WHERE athlete_id = $1 ORDER BY race_date, id`, athleteID)
	if err != nil {
		return nil, fmt.Errorf("races for %s: %w", athleteID, err)
	}
	defer rows.Close()

	var races []models.Race
	for rows.Next() {
		race, err := scanRace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan race: %w", err)
		}
		races = append(races, *race)
	}
	return races, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRace(row scanner) (*models.Race, error) {
	var race models.Race
	var checkpoints []byte
	if err := row.Scan(&race.ID, &race.AthleteID, &race.Name, &race.Date, &race.DistanceKm,
		&race.ElevationGainM, &race.ElevationLossM, &race.Priority, &race.TerrainDifficulty,
		&checkpoints, &race.IsCompleted); err != nil {
		return nil, err
	}
	if len(checkpoints) > 0 {
		if err := json.Unmarshal(checkpoints, &race.Checkpoints); err != nil {
			return nil, fmt.Errorf("decode checkpoints: %w", err)
		}
	}
	return &race, nil
}

package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"runcoach/internal/models"
)

var (
	bucketPlans    = []byte("plans")
	bucketRuns     = []byte("runs")
	bucketRaces    = []byte("races")
	bucketAthletes = []byte("athletes")
	bucketRecovery = []byte("recovery_scores")
)

// BoltStore is a single-file store used by the command line tools. Values
// are JSON documents keyed by id.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens or creates the database file at path
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketPlans, bucketRuns, bucketRaces, bucketAthletes, bucketRecovery} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) put(bucket []byte, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *BoltStore) get(bucket []byte, key string, v any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s %s: %w", bucket, key, ErrNotFound)
		}
		return json.Unmarshal(data, v)
	})
}

func (s *BoltStore) each(bucket []byte, fn func(v []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(_, v []byte) error {
			return fn(v)
		})
	})
}

// SavePlan stores the plan document
func (s *BoltStore) SavePlan(_ context.Context, plan *models.TrainingPlan) error {
	return s.put(bucketPlans, plan.ID, plan)
}

// GetPlan loads a plan by id
func (s *BoltStore) GetPlan(_ context.Context, id string) (*models.TrainingPlan, error) {
	var plan models.TrainingPlan
	if err := s.get(bucketPlans, id, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ActivePlanForAthlete returns the newest active plan of the athlete
func (s *BoltStore) ActivePlanForAthlete(_ context.Context, athleteID string) (*models.TrainingPlan, error) {
	var newest *models.TrainingPlan
	err := s.each(bucketPlans, func(v []byte) error {
		var p models.TrainingPlan
		if err := json.Unmarshal(v, &p); err != nil {
			return err
		}
		if p.AthleteID == athleteID && p.Status == models.PlanStatusActive &&
			(newest == nil || p.CreatedAt.After(newest.CreatedAt)) {
			newest = &p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if newest == nil {
		return nil, fmt.Errorf("active plan for %s: %w", athleteID, ErrNotFound)
	}
	return newest, nil
}

// ListActivePlans summarizes every active plan
func (s *BoltStore) ListActivePlans(_ context.Context) ([]models.TrainingPlanListItem, error) {
	var items []models.TrainingPlanListItem
	err := s.each(bucketPlans, func(v []byte) error {
		var p models.TrainingPlan
		if err := json.Unmarshal(v, &p); err != nil {
			return err
		}
		if p.Status != models.PlanStatusActive {
			return nil
		}
		items = append(items, models.TrainingPlanListItem{
			ID:           p.ID,
			AthleteID:    p.AthleteID,
			TargetRaceID: p.TargetRaceID,
			Status:       p.Status,
			TotalWeeks:   len(p.Weeks),
			StartDate:    p.StartDate(),
		})
		return nil
	})
	return items, err
}

// UpdateStatus changes the plan status
func (s *BoltStore) UpdateStatus(ctx context.Context, planID string, status models.PlanStatus) error {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return err
	}
	plan.Status = status
	return s.SavePlan(ctx, plan)
}

// SaveRun stores a run
func (s *BoltStore) SaveRun(_ context.Context, run *models.Run) error {
	return s.put(bucketRuns, run.ID, run)
}

// RunsForAthlete returns the athlete's runs in date order
func (s *BoltStore) RunsForAthlete(_ context.Context, athleteID string) ([]models.Run, error) {
	var runs []models.Run
	err := s.each(bucketRuns, func(v []byte) error {
		var r models.Run
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}
		if r.AthleteID == athleteID {
			runs = append(runs, r)
		}
		return nil
	})
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Date.Before(runs[j].Date) })
	return runs, err
}

// SaveRace stores a race
func (s *BoltStore) SaveRace(_ context.Context, race *models.Race) error {
	return s.put(bucketRaces, race.ID, race)
}

// GetRace loads a race by id
func (s *BoltStore) GetRace(_ context.Context, id string) (*models.Race, error) {
	var race models.Race
	if err := s.get(bucketRaces, id, &race); err != nil {
		return nil, err
	}
	return &race, nil
}

// RacesForAthlete returns the athlete's races in date order
func (s *BoltStore) RacesForAthlete(_ context.Context, athleteID string) ([]models.Race, error) {
	var races []models.Race
	err := s.each(bucketRaces, func(v []byte) error {
		var r models.Race
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}
		if r.AthleteID == athleteID {
			races = append(races, r)
		}
		return nil
	})
	sort.SliceStable(races, func(i, j int) bool {
		if races[i].Date.Equal(races[j].Date) {
			return races[i].ID < races[j].ID
		}
		return races[i].Date.Before(races[j].Date)
	})
	return races, err
}

// SaveAthlete stores an athlete
func (s *BoltStore) SaveAthlete(_ context.Context, a *models.Athlete) error {
	return s.put(bucketAthletes, a.ID, a)
}

// GetAthlete loads an athlete by id
func (s *BoltStore) GetAthlete(_ context.Context, id string) (*models.Athlete, error) {
	var a models.Athlete
	if err := s.get(bucketAthletes, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// recoveryKey sorts by athlete then time; the zero padded timestamp keeps
// lexical and chronological order equal
func recoveryKey(athleteID string, at time.Time) []byte {
	return []byte(fmt.Sprintf("%s/%020d", athleteID, at.UTC().UnixNano()))
}

// SaveScore records a recovery score
func (s *BoltStore) SaveScore(_ context.Context, athleteID string, at time.Time, score float64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecovery).Put(recoveryKey(athleteID, at), []byte(strconv.FormatFloat(score, 'f', -1, 64)))
	})
}

// LatestScore returns the newest score recorded on or before asOf
func (s *BoltStore) LatestScore(_ context.Context, athleteID string, asOf time.Time) (float64, bool, error) {
	var score float64
	var found bool
	prefix := []byte(athleteID + "/")
	limit := recoveryKey(athleteID, asOf)

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRecovery).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if bytes.Compare(k, limit) > 0 {
				break
			}
			f, err := strconv.ParseFloat(string(v), 64)
			if err != nil {
				return fmt.Errorf("decode recovery score: %w", err)
			}
			score, found = f, true
		}
		return nil
	})
	return score, found, err
}

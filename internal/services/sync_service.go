package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chris-viatas/EmbrHealth/internal/config"
	"github.com/Chris-viatas/EmbrHealth/internal/models"
	"github.com/Chris-viatas/EmbrHealth/internal/repository"
)

// SyncService is the write path of the external collaborators the coach
// pipeline reads from: the device sync pushes health records, and the goal
// and workout owners mirror their state wholesale.
type SyncService struct {
	db          *pgxpool.Pool
	recordRepo  *repository.HealthRecordRepository
	goalRepo    *repository.GoalRepository
	workoutRepo *repository.WorkoutRepository
}

func NewSyncService(
	db *pgxpool.Pool,
	recordRepo *repository.HealthRecordRepository,
	goalRepo *repository.GoalRepository,
	workoutRepo *repository.WorkoutRepository,
) *SyncService {
	return &SyncService{
		db:          db,
		recordRepo:  recordRepo,
		goalRepo:    goalRepo,
		workoutRepo: workoutRepo,
	}
}

// UpsertHealthRecords writes one row per calendar day, updating rows the
// client re-sends. Returns the number of records written.
func (s *SyncService) UpsertHealthRecords(ctx context.Context, userID int64, records []models.HealthRecord) (int, error) {
	for i := range records {
		if err := validateHealthRecord(&records[i]); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin record sync: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txRepo := repository.NewHealthRecordRepository(tx)
	for i := range records {
		if err := txRepo.Upsert(ctx, userID, &records[i]); err != nil {
			return 0, fmt.Errorf("upsert health record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit record sync: %w", err)
	}

	config.L().Debugw("health records synced", "user_id", userID, "count", len(records))
	return len(records), nil
}

// ReplaceGoals mirrors the client's goal set wholesale. Goals have no stable
// natural key across devices, so sync replaces rather than merges.
func (s *SyncService) ReplaceGoals(ctx context.Context, userID int64, goals []models.Goal) (int, error) {
	for i := range goals {
		if err := validateGoal(&goals[i]); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin goal sync: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txRepo := repository.NewGoalRepository(tx)
	if err := txRepo.DeleteForUser(ctx, userID); err != nil {
		return 0, fmt.Errorf("clear goals: %w", err)
	}
	for i := range goals {
		if err := txRepo.Insert(ctx, userID, &goals[i]); err != nil {
			return 0, fmt.Errorf("insert goal: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit goal sync: %w", err)
	}
	return len(goals), nil
}

// ReplaceWorkouts mirrors the client's workout log wholesale, same as goals.
func (s *SyncService) ReplaceWorkouts(ctx context.Context, userID int64, workouts []models.Workout) (int, error) {
	for i := range workouts {
		if err := validateWorkout(&workouts[i]); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin workout sync: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txRepo := repository.NewWorkoutRepository(tx)
	if err := txRepo.DeleteForUser(ctx, userID); err != nil {
		return 0, fmt.Errorf("clear workouts: %w", err)
	}
	for i := range workouts {
		if err := txRepo.Insert(ctx, userID, &workouts[i]); err != nil {
			return 0, fmt.Errorf("insert workout: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit workout sync: %w", err)
	}
	return len(workouts), nil
}

// ListHealthRecords pages through the user's records, newest first.
func (s *SyncService) ListHealthRecords(ctx context.Context, userID int64, page, limit int) ([]models.HealthRecord, int, error) {
	if page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.recordRepo.ListPage(ctx, userID, limit, (page-1)*limit)
}

func validateHealthRecord(record *models.HealthRecord) error {
	if record.Date.IsZero() {
		return ErrInvalidInput
	}
	if record.StepCount < 0 || record.ActiveEnergy < 0 || record.ActiveMinutes < 0 {
		return ErrInvalidInput
	}
	for _, v := range []*float64{record.DistanceKM, record.RestingHeartRate, record.MaxHeartRate, record.SleepHours, record.VO2Max} {
		if v != nil && *v < 0 {
			return ErrInvalidInput
		}
	}
	if record.SleepEfficiency != nil && (*record.SleepEfficiency < 0 || *record.SleepEfficiency > 1) {
		return ErrInvalidInput
	}
	return nil
}

func validateGoal(goal *models.Goal) error {
	if goal.Title == "" || !goal.Category.Valid() {
		return ErrInvalidInput
	}
	if goal.TargetValue <= 0 || goal.ProgressValue < 0 {
		return ErrInvalidInput
	}
	return nil
}

func validateWorkout(workout *models.Workout) error {
	if workout.Date.IsZero() || workout.Type == "" {
		return ErrInvalidInput
	}
	if workout.DurationSeconds < 0 || workout.CaloriesBurned < 0 {
		return ErrInvalidInput
	}
	return nil
}

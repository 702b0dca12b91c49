package repository

import (
	"context"

	"github.com/Chris-viatas/EmbrHealth/internal/models"
)

type WorkoutRepository struct {
	db DBTX
}

func NewWorkoutRepository(db DBTX) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

func (r *WorkoutRepository) Insert(ctx context.Context, userID int64, workout *models.Workout) error {
	query := `
		INSERT INTO workouts (user_id, date, duration_seconds, calories_burned, type, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.db.QueryRow(ctx, query,
		userID,
		workout.Date,
		workout.DurationSeconds,
		workout.CaloriesBurned,
		workout.Type,
		workout.Notes,
	).Scan(&workout.ID)
}

func (r *WorkoutRepository) DeleteForUser(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM workouts WHERE user_id = $1`, userID)
	return err
}

func (r *WorkoutRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]models.Workout, error) {
	query := `
		SELECT id, user_id, date, duration_seconds, calories_burned, type, notes
		FROM workouts
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := make([]models.Workout, 0)
	for rows.Next() {
		var workout models.Workout
		if err := rows.Scan(
			&workout.ID,
			&workout.UserID,
			&workout.Date,
			&workout.DurationSeconds,
			&workout.CaloriesBurned,
			&workout.Type,
			&workout.Notes,
		); err != nil {
			return nil, err
		}
		workouts = append(workouts, workout)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}

package repository

import (
	"context"

	"github.com/Chris-viatas/EmbrHealth/internal/models"
)

type GoalRepository struct {
	db DBTX
}

func NewGoalRepository(db DBTX) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Insert(ctx context.Context, userID int64, goal *models.Goal) error {
	query := `
		INSERT INTO goals (user_id, title, category, target_value, progress_value, is_archived)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query,
		userID,
		goal.Title,
		goal.Category,
		goal.TargetValue,
		goal.ProgressValue,
		goal.IsArchived,
	).Scan(&goal.ID, &goal.CreatedAt)
}

func (r *GoalRepository) DeleteForUser(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM goals WHERE user_id = $1`, userID)
	return err
}

// ListActive excludes archived goals; the coach pipeline never sees them.
func (r *GoalRepository) ListActive(ctx context.Context, userID int64) ([]models.Goal, error) {
	query := `
		SELECT id, user_id, title, category, target_value, progress_value, is_archived, created_at
		FROM goals
		WHERE user_id = $1 AND is_archived = FALSE
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := make([]models.Goal, 0)
	for rows.Next() {
		var goal models.Goal
		if err := rows.Scan(
			&goal.ID,
			&goal.UserID,
			&goal.Title,
			&goal.Category,
			&goal.TargetValue,
			&goal.ProgressValue,
			&goal.IsArchived,
			&goal.CreatedAt,
		); err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return goals, nil
}

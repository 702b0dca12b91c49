package repository

import (
	"context"

	"github.com/Chris-viatas/EmbrHealth/internal/models"
)

type HealthRecordRepository struct {
	db DBTX
}

func NewHealthRecordRepository(db DBTX) *HealthRecordRepository {
	return &HealthRecordRepository{db: db}
}

const healthRecordColumns = `
	id, user_id, date, step_count, active_energy, active_minutes,
	distance_km, resting_heart_rate, max_heart_rate,
	sleep_hours, sleep_efficiency, vo2_max, updated_at
`

// Upsert keys on (user_id, date): one row per calendar day.
func (r *HealthRecordRepository) Upsert(ctx context.Context, userID int64, record *models.HealthRecord) error {
	query := `
		INSERT INTO health_records (
			user_id, date, step_count, active_energy, active_minutes,
			distance_km, resting_heart_rate, max_heart_rate,
			sleep_hours, sleep_efficiency, vo2_max
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, date) DO UPDATE SET
			step_count = EXCLUDED.step_count,
			active_energy = EXCLUDED.active_energy,
			active_minutes = EXCLUDED.active_minutes,
			distance_km = EXCLUDED.distance_km,
			resting_heart_rate = EXCLUDED.resting_heart_rate,
			max_heart_rate = EXCLUDED.max_heart_rate,
			sleep_hours = EXCLUDED.sleep_hours,
			sleep_efficiency = EXCLUDED.sleep_efficiency,
			vo2_max = EXCLUDED.vo2_max,
			updated_at = NOW()
		RETURNING id, updated_at
	`
	return r.db.QueryRow(ctx, query,
		userID,
		record.Date,
		record.StepCount,
		record.ActiveEnergy,
		record.ActiveMinutes,
		record.DistanceKM,
		record.RestingHeartRate,
		record.MaxHeartRate,
		record.SleepHours,
		record.SleepEfficiency,
		record.VO2Max,
	).Scan(&record.ID, &record.UpdatedAt)
}

func (r *HealthRecordRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]models.HealthRecord, error) {
	query := `
		SELECT ` + healthRecordColumns + `
		FROM health_records
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHealthRecords(rows)
}

func (r *HealthRecordRepository) ListPage(ctx context.Context, userID int64, limit, offset int) ([]models.HealthRecord, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM health_records WHERE user_id = $1
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + healthRecordColumns + `
		FROM health_records
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records, err := scanHealthRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanHealthRecords(rows rowScanner) ([]models.HealthRecord, error) {
	records := make([]models.HealthRecord, 0)
	for rows.Next() {
		var record models.HealthRecord
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Date,
			&record.StepCount,
			&record.ActiveEnergy,
			&record.ActiveMinutes,
			&record.DistanceKM,
			&record.RestingHeartRate,
			&record.MaxHeartRate,
			&record.SleepHours,
			&record.SleepEfficiency,
			&record.VO2Max,
			&record.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

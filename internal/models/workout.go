package models

import "time"

type Workout struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Date            time.Time `json:"date"`
	DurationSeconds float64   `json:"duration_seconds"`
	CaloriesBurned  float64   `json:"calories_burned"`
	Type            string    `json:"type"`
	Notes           *string   `json:"notes"`
}

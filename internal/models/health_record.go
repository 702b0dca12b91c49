package models

import "time"

// HealthRecord is one synced day of wearable-derived metrics. The record is
// written by the client sync flow and read-only everywhere else. Optional
// metrics stay nil when the device never reported them; averaging code must
// skip nil values rather than treat them as zero.
type HealthRecord struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	Date             time.Time `json:"date"`
	StepCount        int       `json:"step_count"`
	ActiveEnergy     float64   `json:"active_energy"`
	ActiveMinutes    int       `json:"active_minutes"`
	DistanceKM       *float64  `json:"distance_km"`
	RestingHeartRate *float64  `json:"resting_heart_rate"`
	MaxHeartRate     *float64  `json:"max_heart_rate"`
	SleepHours       *float64  `json:"sleep_hours"`
	SleepEfficiency  *float64  `json:"sleep_efficiency"`
	VO2Max           *float64  `json:"vo2_max"`
	UpdatedAt        time.Time `json:"updated_at"`
}

package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Chris-viatas/EmbrHealth/internal/models"
)

// snapshotRecordCap bounds the observation window to the most recent days of
// synced data.
const snapshotRecordCap = 30

const defaultWorkoutType = "General"

type GoalStatus struct {
	Category        models.GoalCategory `json:"category"`
	CompletionRatio float64             `json:"completion_ratio"`
	Target          float64             `json:"target"`
}

type WorkoutDigest struct {
	TotalDurationSeconds float64  `json:"total_duration_seconds"`
	Count                int      `json:"count"`
	CalorieBurn          float64  `json:"calorie_burn"`
	PredominantTypes     []string `json:"predominant_types"`
}

// WellnessSnapshot is an immutable aggregate built fresh for every coaching
// request and discarded afterwards; it is never persisted.
type WellnessSnapshot struct {
	ObservationWindowDays   int           `json:"observation_window_days"`
	AverageSteps            int           `json:"average_steps"`
	AverageActiveEnergy     float64       `json:"average_active_energy"`
	AverageExerciseMinutes  float64       `json:"average_exercise_minutes"`
	AverageRestingHeartRate *float64      `json:"average_resting_heart_rate"`
	AverageMaxHeartRate     *float64      `json:"average_max_heart_rate"`
	AverageSleepHours       *float64      `json:"average_sleep_hours"`
	AverageSleepEfficiency  *float64      `json:"average_sleep_efficiency"`
	AverageVO2Max           *float64      `json:"average_vo2_max"`
	GoalStatuses            []GoalStatus  `json:"goal_statuses"`
	Workouts                WorkoutDigest `json:"workouts"`
}

type SnapshotBuilder struct{}

func NewSnapshotBuilder() *SnapshotBuilder {
	return &SnapshotBuilder{}
}

// Snapshot aggregates the supplied records into a WellnessSnapshot. Input
// ordering does not matter; records are sorted internally and capped at the
// most recent snapshotRecordCap days. Empty input yields a zero-window
// snapshot, never an error.
func (b *SnapshotBuilder) Snapshot(
	records []models.HealthRecord,
	goals []models.Goal,
	workouts []models.Workout,
) WellnessSnapshot {
	capped := append([]models.HealthRecord(nil), records...)
	sort.Slice(capped, func(i, j int) bool {
		return capped[i].Date.After(capped[j].Date)
	})
	if len(capped) > snapshotRecordCap {
		capped = capped[:snapshotRecordCap]
	}

	steps := make([]float64, 0, len(capped))
	energy := make([]float64, 0, len(capped))
	minutes := make([]float64, 0, len(capped))
	var resting, peak, sleep, sleepEff, vo2 []float64
	for _, record := range capped {
		steps = append(steps, float64(record.StepCount))
		energy = append(energy, record.ActiveEnergy)
		minutes = append(minutes, float64(record.ActiveMinutes))
		resting = appendPresent(resting, record.RestingHeartRate)
		peak = appendPresent(peak, record.MaxHeartRate)
		sleep = appendPresent(sleep, record.SleepHours)
		sleepEff = appendPresent(sleepEff, record.SleepEfficiency)
		vo2 = appendPresent(vo2, record.VO2Max)
	}

	sleepAverage := meanOrNil(sleep)
	sleepEfficiencyAverage := meanOrNil(sleepEff)
	// Sleep efficiency is meaningless without a sleep duration to qualify.
	if sleepAverage == nil {
		sleepEfficiencyAverage = nil
	}

	statuses := make([]GoalStatus, 0, len(goals))
	for i := range goals {
		if goals[i].IsArchived {
			continue
		}
		statuses = append(statuses, GoalStatus{
			Category:        goals[i].Category,
			CompletionRatio: goals[i].CompletionRatio(),
			Target:          goals[i].TargetValue,
		})
	}

	return WellnessSnapshot{
		ObservationWindowDays:   len(capped),
		AverageSteps:            int(math.Round(mean(steps))),
		AverageActiveEnergy:     mean(energy),
		AverageExerciseMinutes:  mean(minutes),
		AverageRestingHeartRate: meanOrNil(resting),
		AverageMaxHeartRate:     meanOrNil(peak),
		AverageSleepHours:       sleepAverage,
		AverageSleepEfficiency:  sleepEfficiencyAverage,
		AverageVO2Max:           meanOrNil(vo2),
		GoalStatuses:            statuses,
		Workouts:                digestWorkouts(capped, workouts),
	}
}

func digestWorkouts(capped []models.HealthRecord, workouts []models.Workout) WorkoutDigest {
	recent := workouts
	if len(capped) > 0 {
		earliest := capped[len(capped)-1].Date
		recent = recent[:0:0]
		for _, workout := range workouts {
			if !workout.Date.Before(earliest) {
				recent = append(recent, workout)
			}
		}
	}

	digest := WorkoutDigest{Count: len(recent)}
	type typeCount struct {
		label string
		count int
	}
	counts := make([]typeCount, 0)
	indexes := make(map[string]int)
	for _, workout := range recent {
		digest.TotalDurationSeconds += workout.DurationSeconds
		digest.CalorieBurn += workout.CaloriesBurned
		if i, ok := indexes[workout.Type]; ok {
			counts[i].count++
		} else {
			indexes[workout.Type] = len(counts)
			counts = append(counts, typeCount{label: workout.Type, count: 1})
		}
	}

	// Stable sort keeps first-encountered order for equal counts.
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})
	if len(counts) > 3 {
		counts = counts[:3]
	}
	for _, entry := range counts {
		digest.PredominantTypes = append(digest.PredominantTypes, entry.label)
	}
	if len(digest.PredominantTypes) == 0 {
		digest.PredominantTypes = []string{defaultWorkoutType}
	}
	return digest
}

// SanitizedContext renders the snapshot as the context block sent to the
// coach model. The closing identifier instruction is part of the contract and
// is always emitted.
func (s WellnessSnapshot) SanitizedContext() string {
	lines := make([]string, 0, 12)
	if s.ObservationWindowDays > 0 {
		lines = append(lines, fmt.Sprintf("Observation window: last %d days.", s.ObservationWindowDays))
	} else {
		lines = append(lines, "Observation window: insufficient recent data. Provide general guidance based on healthy habits.")
	}
	lines = append(lines, fmt.Sprintf("Average daily steps: %d.", s.AverageSteps))
	lines = append(lines, fmt.Sprintf("Average active energy burn: %.0f.", s.AverageActiveEnergy))
	lines = append(lines, fmt.Sprintf("Average exercise minutes: %d.", int(math.Round(s.AverageExerciseMinutes))))
	if s.AverageRestingHeartRate != nil {
		lines = append(lines, fmt.Sprintf("Resting heart rate average: %d bpm.", int(math.Round(*s.AverageRestingHeartRate))))
	}
	if s.AverageMaxHeartRate != nil {
		lines = append(lines, fmt.Sprintf("Peak heart rate average: %d bpm.", int(math.Round(*s.AverageMaxHeartRate))))
	}
	if s.AverageSleepHours != nil {
		if s.AverageSleepEfficiency != nil {
			lines = append(lines, fmt.Sprintf(
				"Average sleep duration: %.1f hours with %s efficiency.",
				*s.AverageSleepHours, formatPercent(*s.AverageSleepEfficiency),
			))
		} else {
			lines = append(lines, fmt.Sprintf("Average sleep duration: %.1f hours.", *s.AverageSleepHours))
		}
	}
	if s.AverageVO2Max != nil {
		lines = append(lines, fmt.Sprintf("Average VO₂ max: %.1f ml/kg·min.", *s.AverageVO2Max))
	}

	for _, status := range s.GoalStatuses {
		lines = append(lines, fmt.Sprintf(
			"%s goals are %s of %.0f target.",
			status.Category.Name(), formatPercent(status.CompletionRatio), status.Target,
		))
	}

	lines = append(lines, fmt.Sprintf(
		"Workouts completed: %d sessions totalling %d minutes and %d kcal. Predominant types: %s.",
		s.Workouts.Count,
		int(s.Workouts.TotalDurationSeconds/60),
		int(math.Round(s.Workouts.CalorieBurn)),
		strings.Join(s.Workouts.PredominantTypes, ", "),
	))

	lines = append(lines, "Never disclose personal identifiers. Focus on wellness education, habit formation, recovery guidance, and actionable insights within scope.")

	return strings.Join(lines, "\n")
}

func appendPresent(values []float64, v *float64) []float64 {
	if v == nil {
		return values
	}
	return append(values, *v)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func meanOrNil(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	avg := mean(values)
	return &avg
}

func formatPercent(ratio float64) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return fmt.Sprintf("%d%%", int(math.Round(ratio*100)))
}

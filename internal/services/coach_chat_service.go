package services

import (
	"context"
	"strings"

	"github.com/Chris-viatas/EmbrHealth/internal/config"
	"github.com/Chris-viatas/EmbrHealth/internal/models"
)

// coachWorkoutFetchCap bounds how many recent workouts are loaded per
// request; the snapshot builder narrows them further to the observation
// window.
const coachWorkoutFetchCap = 200

type healthRecordReader interface {
	ListRecent(ctx context.Context, userID int64, limit int) ([]models.HealthRecord, error)
}

type goalReader interface {
	ListActive(ctx context.Context, userID int64) ([]models.Goal, error)
}

type workoutReader interface {
	ListRecent(ctx context.Context, userID int64, limit int) ([]models.Workout, error)
}

// CoachChatService joins the per-user session registry with the stored
// health data the pipeline reads but never owns.
type CoachChatService struct {
	sessions    *SessionRegistry
	recordRepo  healthRecordReader
	goalRepo    goalReader
	workoutRepo workoutReader
}

func NewCoachChatService(
	sessions *SessionRegistry,
	recordRepo healthRecordReader,
	goalRepo goalReader,
	workoutRepo workoutReader,
) *CoachChatService {
	return &CoachChatService{
		sessions:    sessions,
		recordRepo:  recordRepo,
		goalRepo:    goalRepo,
		workoutRepo: workoutRepo,
	}
}

// Transcript returns the user's session messages, seeding the greeting on
// first use.
func (s *CoachChatService) Transcript(_ context.Context, userID int64) []models.ChatMessage {
	return s.sessions.Session(userID).Messages()
}

// Processing reports whether the user's session has a send in flight.
func (s *CoachChatService) Processing(userID int64) bool {
	return s.sessions.Session(userID).Processing()
}

// SendMessage loads the user's recent records, active goals, and workouts,
// then drives one session exchange. Returns the messages appended by the
// exchange.
func (s *CoachChatService) SendMessage(ctx context.Context, userID int64, text string) ([]models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}

	records, err := s.recordRepo.ListRecent(ctx, userID, snapshotRecordCap)
	if err != nil {
		return nil, err
	}
	goals, err := s.goalRepo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	workouts, err := s.workoutRepo.ListRecent(ctx, userID, coachWorkoutFetchCap)
	if err != nil {
		return nil, err
	}

	appended, err := s.sessions.Session(userID).Send(ctx, text, records, goals, workouts)
	if err != nil {
		config.L().Debugw("coach exchange failed", "user_id", userID, "error", err)
	}
	return appended, err
}

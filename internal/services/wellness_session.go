package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Chris-viatas/EmbrHealth/internal/models"
)

// ErrCoachBusy rejects a second send while one is still in flight. The source
// app serialized sends through its UI; a server has to enforce the same
// one-at-a-time discipline itself.
var ErrCoachBusy = errors.New("a coaching request is already in progress")

const coachGreeting = "Hi! I'm your EmbrHealth coach. Ask about your recent activity, heart trends, " +
	"sleep recovery, or VO₂ max progress and I'll guide you with health-focused tips."

const guardrailUserMessage = "Your message appears to include sensitive information. " +
	"Please remove personal identifiers and try again."

type coachResponder interface {
	Respond(ctx context.Context, userMessage string, history []models.ChatMessage, snapshot WellnessSnapshot) (string, error)
}

// WellnessSession holds one user's ordered, append-only chat transcript and
// drives coach calls against it. Messages are never mutated or removed for
// the lifetime of the session.
type WellnessSession struct {
	mu         sync.Mutex
	messages   []models.ChatMessage
	processing bool
	lastErr    error

	coach   coachResponder
	builder *SnapshotBuilder
}

func NewWellnessSession(coach coachResponder) *WellnessSession {
	return &WellnessSession{
		messages: []models.ChatMessage{models.NewChatMessage(models.SenderCoach, coachGreeting)},
		coach:    coach,
		builder:  NewSnapshotBuilder(),
	}
}

func (s *WellnessSession) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.messages...)
}

// Processing is true strictly between the start and end of one Send call.
func (s *WellnessSession) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// LastError reports the most recent Send failure; it is cleared when the next
// Send starts.
func (s *WellnessSession) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Send appends the user message, builds a fresh snapshot, and asks the coach
// for a reply using the history captured before the append. Empty input is a
// no-op. The returned slice holds the messages appended by this call. The
// only error besides ErrCoachBusy that reaches the caller is
// ErrGuardrailViolation; in that case an apologetic coach message has still
// been appended.
func (s *WellnessSession) Send(
	ctx context.Context,
	text string,
	records []models.HealthRecord,
	goals []models.Goal,
	workouts []models.Workout,
) ([]models.ChatMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return nil, ErrCoachBusy
	}
	s.processing = true
	s.lastErr = nil
	history := append([]models.ChatMessage(nil), s.messages...)
	userMessage := models.NewChatMessage(models.SenderUser, trimmed)
	s.messages = append(s.messages, userMessage)
	s.mu.Unlock()

	snapshot := s.builder.Snapshot(records, goals, workouts)
	reply, err := s.coach.Respond(ctx, trimmed, history, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false

	if err != nil {
		s.lastErr = err
		apology := models.NewChatMessage(
			models.SenderCoach,
			fmt.Sprintf("I'm sorry, I couldn't process that request. %s", describeCoachError(err)),
		)
		s.messages = append(s.messages, apology)
		return []models.ChatMessage{userMessage, apology}, err
	}

	coachMessage := models.NewChatMessage(models.SenderCoach, reply)
	s.messages = append(s.messages, coachMessage)
	return []models.ChatMessage{userMessage, coachMessage}, nil
}

func describeCoachError(err error) string {
	if errors.Is(err, ErrGuardrailViolation) {
		return guardrailUserMessage
	}
	return "Please try again later."
}

// SessionRegistry hands out one in-memory WellnessSession per user.
// Transcripts live only as long as the process.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[int64]*WellnessSession
	coach    coachResponder
}

func NewSessionRegistry(coach coachResponder) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[int64]*WellnessSession),
		coach:    coach,
	}
}

func (r *SessionRegistry) Session(userID int64) *WellnessSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[userID]
	if !ok {
		session = NewWellnessSession(r.coach)
		r.sessions[userID] = session
	}
	return session
}

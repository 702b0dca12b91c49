package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Chris-viatas/EmbrHealth/internal/models"
)

type capturedCoachCall struct {
	method        string
	path          string
	authorization string
	payload       completionPayload
}

func newCoachTestServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32, *capturedCoachCall) {
	t.Helper()
	calls := &atomic.Int32{}
	captured := &capturedCoachCall{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.authorization = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured.payload); err != nil {
			t.Errorf("decode request payload: %v", err)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, calls, captured
}

func newTestCoachService(t *testing.T, baseURL string, key string) *CoachService {
	t.Helper()
	t.Setenv(coachAPIKeyEnv, "")
	service := NewCoachService(baseURL, "")
	if key != "" {
		service.OverrideAPIKey(func() string { return key })
	}
	return service
}

func TestCoachRespondSuccess(t *testing.T) {
	server, calls, captured := newCoachTestServer(t, http.StatusOK, `{"output_text":["Great job!"]}`)
	service := newTestCoachService(t, server.URL, "test-key")

	history := []models.ChatMessage{
		models.NewChatMessage(models.SenderCoach, "Welcome back."),
		models.NewChatMessage(models.SenderUser, "mail me at coach@example.com"),
	}
	reply, err := service.Respond(context.Background(), "How was my week?", history, WellnessSnapshot{})
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if reply != "Great job!" {
		t.Fatalf("expected model reply, got %q", reply)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one outbound call, got %d", calls.Load())
	}

	if captured.method != http.MethodPost || captured.path != "/v1/responses" {
		t.Errorf("unexpected request %s %s", captured.method, captured.path)
	}
	if captured.authorization != "Bearer test-key" {
		t.Errorf("unexpected authorization header %q", captured.authorization)
	}
	if captured.payload.Model != coachModel {
		t.Errorf("unexpected model %q", captured.payload.Model)
	}

	input := captured.payload.Input
	if len(input) != 5 {
		t.Fatalf("expected 5 input entries, got %d", len(input))
	}
	if input[0].Role != "system" || input[0].Content[0].Text != coachSystemPrompt {
		t.Error("first entry must carry the system prompt")
	}
	if input[1].Role != "system" || !strings.Contains(input[1].Content[0].Text, "Context summary:") {
		t.Error("second entry must carry the context summary")
	}
	if input[2].Role != "assistant" || input[3].Role != "user" {
		t.Errorf("history roles out of order: %s, %s", input[2].Role, input[3].Role)
	}
	if strings.Contains(input[3].Content[0].Text, "coach@example.com") {
		t.Error("history must be scrubbed before transmission")
	}
	last := input[len(input)-1]
	if last.Role != "user" || last.Content[0].Text != "How was my week?" {
		t.Errorf("final entry must be the user message, got %+v", last)
	}
	if last.Content[0].Type != "input_text" {
		t.Errorf("unexpected segment type %q", last.Content[0].Type)
	}
}

func TestCoachRespondTruncatesHistory(t *testing.T) {
	server, _, captured := newCoachTestServer(t, http.StatusOK, `{"output_text":["ok"]}`)
	service := newTestCoachService(t, server.URL, "test-key")

	history := make([]models.ChatMessage, 0, historyMessageCap+5)
	for i := 0; i < historyMessageCap+5; i++ {
		history = append(history, models.NewChatMessage(models.SenderUser, strings.Repeat("x", i+1)))
	}
	if _, err := service.Respond(context.Background(), "hello", history, WellnessSnapshot{}); err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}

	input := captured.payload.Input
	if len(input) != historyMessageCap+3 {
		t.Fatalf("expected %d input entries, got %d", historyMessageCap+3, len(input))
	}
	// The oldest five messages must have been dropped; the first history
	// entry is the sixth message.
	if got := input[2].Content[0].Text; got != strings.Repeat("x", 6) {
		t.Errorf("expected truncation to keep the most recent messages, first kept was %q", got)
	}
}

func TestCoachRespondOfflineWithoutCredential(t *testing.T) {
	server, calls, _ := newCoachTestServer(t, http.StatusOK, `{"output_text":["unreachable"]}`)
	service := newTestCoachService(t, server.URL, "")

	reply, err := service.Respond(context.Background(), "How was my week?", nil, WellnessSnapshot{AverageSteps: 8000})
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if !strings.HasPrefix(reply, OfflineSummaryPrefix) {
		t.Fatalf("expected offline summary, got %q", reply)
	}
	if !strings.Contains(reply, "Daily steps average: 8000.") {
		t.Errorf("offline summary missing snapshot data:\n%s", reply)
	}
	if calls.Load() != 0 {
		t.Fatalf("missing credential must not reach the network, saw %d calls", calls.Load())
	}
}

func TestCoachRespondFallsBackOnServerError(t *testing.T) {
	server, calls, _ := newCoachTestServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
	service := newTestCoachService(t, server.URL, "test-key")

	reply, err := service.Respond(context.Background(), "hello", nil, WellnessSnapshot{})
	if err != nil {
		t.Fatalf("server failure must degrade, not error: %v", err)
	}
	if !strings.HasPrefix(reply, OfflineSummaryPrefix) {
		t.Fatalf("expected offline summary, got %q", reply)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt with no retry, got %d", calls.Load())
	}
}

func TestCoachRespondFallsBackOnMalformedBody(t *testing.T) {
	server, _, _ := newCoachTestServer(t, http.StatusOK, `{"output_text": not-json`)
	service := newTestCoachService(t, server.URL, "test-key")

	reply, err := service.Respond(context.Background(), "hello", nil, WellnessSnapshot{})
	if err != nil {
		t.Fatalf("malformed body must degrade, not error: %v", err)
	}
	if !strings.HasPrefix(reply, OfflineSummaryPrefix) {
		t.Fatalf("expected offline summary, got %q", reply)
	}
}

func TestCoachRespondFallsBackOnEmptyOutput(t *testing.T) {
	server, _, _ := newCoachTestServer(t, http.StatusOK, `{"output_text":[],"output":[]}`)
	service := newTestCoachService(t, server.URL, "test-key")

	reply, err := service.Respond(context.Background(), "hello", nil, WellnessSnapshot{})
	if err != nil {
		t.Fatalf("empty output must degrade, not error: %v", err)
	}
	if !strings.HasPrefix(reply, OfflineSummaryPrefix) {
		t.Fatalf("expected offline summary, got %q", reply)
	}
}

func TestCoachRespondJoinsOutputFragments(t *testing.T) {
	body := `{"output":[{"content":[{"type":"output_text","text":"Part one."},{"type":"output_text","text":"Part two."}]}]}`
	server, _, _ := newCoachTestServer(t, http.StatusOK, body)
	service := newTestCoachService(t, server.URL, "test-key")

	reply, err := service.Respond(context.Background(), "hello", nil, WellnessSnapshot{})
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if reply != "Part one.\nPart two." {
		t.Fatalf("expected joined fragments, got %q", reply)
	}
}

func TestCoachRespondGuardrailBlocksBeforeNetwork(t *testing.T) {
	server, calls, _ := newCoachTestServer(t, http.StatusOK, `{"output_text":["unreachable"]}`)
	service := newTestCoachService(t, server.URL, "test-key")

	reply, err := service.Respond(context.Background(), "my password is hunter2", nil, WellnessSnapshot{})
	if !errors.Is(err, ErrGuardrailViolation) {
		t.Fatalf("expected ErrGuardrailViolation, got %v", err)
	}
	if reply != "" {
		t.Fatalf("guardrail violation must not produce a reply, got %q", reply)
	}
	if calls.Load() != 0 {
		t.Fatalf("guardrail violation must not reach the network, saw %d calls", calls.Load())
	}
}

func TestCoachCredentialChainPrefersOverride(t *testing.T) {
	server, _, captured := newCoachTestServer(t, http.StatusOK, `{"output_text":["ok"]}`)
	t.Setenv(coachAPIKeyEnv, "env-key")
	service := NewCoachService(server.URL, "configured-key")

	if _, err := service.Respond(context.Background(), "hello", nil, WellnessSnapshot{}); err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if captured.authorization != "Bearer env-key" {
		t.Fatalf("environment key must beat configured key, got %q", captured.authorization)
	}

	service.OverrideAPIKey(func() string { return "override-key" })
	if _, err := service.Respond(context.Background(), "hello", nil, WellnessSnapshot{}); err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if captured.authorization != "Bearer override-key" {
		t.Fatalf("override must beat the environment, got %q", captured.authorization)
	}
}

func TestCoachFallbackIncludesBenchmarks(t *testing.T) {
	t.Setenv(coachAPIKeyEnv, "")
	service := NewCoachService("http://unused.invalid", "")

	snapshot := WellnessSnapshot{
		AverageSteps:            6000,
		AverageActiveEnergy:     420,
		AverageExerciseMinutes:  35,
		AverageRestingHeartRate: f64(72),
		AverageSleepHours:       f64(6.4),
		AverageVO2Max:           f64(41),
	}
	reply, err := service.Respond(context.Background(), "summary please", nil, snapshot)
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	for _, want := range []string{
		"Resting heart rate averages 72 bpm compared to the typical 60–100 bpm range.",
		"Sleep averages 6.4 h versus the 7.0–9.0 h recommendation.",
		"VO₂ max trends around 41.0 ml/kg·min. Healthy range reference: 35–52.",
		"Reach out to a licensed professional",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("fallback missing %q:\n%s", want, reply)
		}
	}
}

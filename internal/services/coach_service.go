package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"

	"github.com/Chris-viatas/EmbrHealth/internal/models"
)

const (
	// historyMessageCap bounds how much scrubbed transcript travels with each
	// request.
	historyMessageCap = 10

	coachModel          = "gpt-4.1-mini"
	defaultCoachBaseURL = "https://api.openai.com"
	coachAPIKeyEnv      = "OPENAI_API_KEY"

	// OfflineSummaryPrefix opens every locally synthesized reply.
	OfflineSummaryPrefix = "Here's a local summary while the network is offline:"
)

var (
	// ErrGuardrailViolation is the only coach failure that surfaces to the
	// caller; everything else degrades to the offline summary.
	ErrGuardrailViolation = errors.New("message contains sensitive personal information")

	errInvalidResponse = errors.New("coach response contained no usable text")
)

const coachSystemPrompt = "You are EmbrHealth Coach, an empathetic health and wellness assistant. " +
	"Provide educational, non-diagnostic guidance grounded in the supplied activity, heart rate, sleep, " +
	"and VO₂ max summaries. Encourage healthy habits, hydration, recovery, and consult-a-professional " +
	"language. Never store or request personally identifiable information and never discuss topics " +
	"unrelated to personal wellness."

// CoachService turns a user question plus a wellness snapshot into a reply
// from the conversational model, degrading to a deterministic local summary
// on any non-guardrail failure. Its POST is the only network egress in the
// pipeline.
type CoachService struct {
	baseURL      string
	keyResolvers []func() string
	httpClient   *http.Client
}

// NewCoachService wires the default credential chain: process environment
// first, then the packaged configuration value. An empty baseURL selects the
// production endpoint.
func NewCoachService(baseURL string, configuredKey string) *CoachService {
	if baseURL == "" {
		baseURL = defaultCoachBaseURL
	}
	return &CoachService{
		baseURL: strings.TrimRight(baseURL, "/"),
		keyResolvers: []func() string{
			func() string { return os.Getenv(coachAPIKeyEnv) },
			func() string { return configuredKey },
		},
		httpClient: http.DefaultClient,
	}
}

// OverrideAPIKey places an explicit resolver ahead of the environment and
// packaged configuration.
func (s *CoachService) OverrideAPIKey(resolve func() string) {
	s.keyResolvers = append([]func() string{resolve}, s.keyResolvers...)
}

// SetHTTPClient swaps the transport, primarily for tests.
func (s *CoachService) SetHTTPClient(client *http.Client) {
	if client != nil {
		s.httpClient = client
	}
}

func (s *CoachService) resolveAPIKey() string {
	for _, resolve := range s.keyResolvers {
		if key := strings.TrimSpace(resolve()); key != "" {
			return key
		}
	}
	return ""
}

// Respond runs one coaching exchange. A missing credential is not an error:
// it selects the offline summary without touching the network. A single
// attempt is made per call; nothing is retried.
func (s *CoachService) Respond(
	ctx context.Context,
	userMessage string,
	history []models.ChatMessage,
	snapshot WellnessSnapshot,
) (string, error) {
	if !GuardAllows(userMessage) {
		return "", ErrGuardrailViolation
	}

	if len(history) > historyMessageCap {
		history = history[len(history)-historyMessageCap:]
	}
	scrubbedHistory := make([]models.ChatMessage, 0, len(history))
	for _, message := range history {
		message.Text = GuardScrub(message.Text)
		scrubbedHistory = append(scrubbedHistory, message)
	}
	scrubbedInput := GuardScrub(userMessage)

	apiKey := s.resolveAPIKey()
	if apiKey == "" {
		return s.fallbackResponse(snapshot), nil
	}

	reply, err := s.requestCompletion(ctx, apiKey, scrubbedInput, scrubbedHistory, snapshot)
	if err != nil {
		return s.fallbackResponse(snapshot), nil
	}
	return reply, nil
}

type inputSegment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputEntry struct {
	Role    string         `json:"role"`
	Content []inputSegment `json:"content"`
}

type completionPayload struct {
	Model string       `json:"model"`
	Input []inputEntry `json:"input"`
}

func textEntry(role, text string) inputEntry {
	return inputEntry{
		Role:    role,
		Content: []inputSegment{{Type: "input_text", Text: text}},
	}
}

func (s *CoachService) requestCompletion(
	ctx context.Context,
	apiKey string,
	scrubbedInput string,
	scrubbedHistory []models.ChatMessage,
	snapshot WellnessSnapshot,
) (string, error) {
	input := make([]inputEntry, 0, len(scrubbedHistory)+3)
	input = append(input, textEntry("system", coachSystemPrompt))
	input = append(input, textEntry("system", "Context summary:\n"+snapshot.SanitizedContext()))
	for _, message := range scrubbedHistory {
		role := "assistant"
		if message.Sender == models.SenderUser {
			role = "user"
		}
		input = append(input, textEntry(role, message.Text))
	}
	input = append(input, textEntry("user", scrubbedInput))

	body, err := json.Marshal(completionPayload{Model: coachModel, Input: input})
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/responses", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("coach completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		diagnostic, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("coach completion: status %d: %s", resp.StatusCode, strings.TrimSpace(string(diagnostic)))
	}

	var decoded struct {
		OutputText []string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}

	if consolidated := strings.TrimSpace(strings.Join(decoded.OutputText, "\n")); consolidated != "" {
		return consolidated, nil
	}

	fragments := make([]string, 0)
	for _, item := range decoded.Output {
		for _, segment := range item.Content {
			if segment.Text != "" {
				fragments = append(fragments, segment.Text)
			}
		}
	}
	if joined := strings.TrimSpace(strings.Join(fragments, "\n")); joined != "" {
		return joined, nil
	}

	return "", errInvalidResponse
}

// fallbackResponse synthesizes a reply purely from the snapshot. It performs
// no I/O and cannot fail.
func (s *CoachService) fallbackResponse(snapshot WellnessSnapshot) string {
	lines := []string{
		OfflineSummaryPrefix,
		fmt.Sprintf("• Daily steps average: %d. Keep aiming for consistent movement across the week.", snapshot.AverageSteps),
		fmt.Sprintf("• Active energy burn: %d kcal on average.", int(math.Round(snapshot.AverageActiveEnergy))),
		fmt.Sprintf("• Exercise minutes: %d per day.", int(math.Round(snapshot.AverageExerciseMinutes))),
	}
	if snapshot.AverageRestingHeartRate != nil {
		lines = append(lines, fmt.Sprintf(
			"• Resting heart rate averages %d bpm compared to the typical %d–%d bpm range.",
			int(math.Round(*snapshot.AverageRestingHeartRate)), restingHeartRateLow, restingHeartRateHigh,
		))
	}
	if snapshot.AverageSleepHours != nil {
		lines = append(lines, fmt.Sprintf(
			"• Sleep averages %.1f h versus the %.1f–%.1f h recommendation.",
			*snapshot.AverageSleepHours, recommendedSleepLow, recommendedSleepHigh,
		))
	}
	if snapshot.AverageVO2Max != nil {
		lines = append(lines, fmt.Sprintf(
			"• VO₂ max trends around %.1f ml/kg·min. Healthy range reference: %d–%d.",
			*snapshot.AverageVO2Max, vo2HealthyLow, vo2HealthyHigh,
		))
	}
	lines = append(lines, "Consider steady movement, balanced nutrition, hydration, and schedule recovery days. Reach out to a licensed professional for diagnoses or major changes.")
	return strings.Join(lines, "\n")
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/Chris-viatas/EmbrHealth/internal/models"
	"github.com/Chris-viatas/EmbrHealth/internal/services"
)

type stubCoachService struct {
	transcript []models.ChatMessage
	processing bool
	appended   []models.ChatMessage
	sendErr    error

	gotUserID int64
	gotText   string
}

func (s *stubCoachService) Transcript(_ context.Context, userID int64) []models.ChatMessage {
	s.gotUserID = userID
	return s.transcript
}

func (s *stubCoachService) Processing(int64) bool {
	return s.processing
}

func (s *stubCoachService) SendMessage(_ context.Context, userID int64, text string) ([]models.ChatMessage, error) {
	s.gotUserID = userID
	s.gotText = text
	return s.appended, s.sendErr
}

func newCoachTestApp(service coachApplicationService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "42")
		c.Locals("role", "user")
		return c.Next()
	})
	handler := NewCoachHandler(service, nil, "test-secret")
	app.Get("/coach/messages", handler.GetMessages)
	app.Post("/coach/messages", handler.SendMessage)
	return app
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestGetCoachMessages(t *testing.T) {
	stub := &stubCoachService{
		transcript: []models.ChatMessage{models.NewChatMessage(models.SenderCoach, "Hi there")},
		processing: true,
	}
	app := newCoachTestApp(stub)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/coach/messages", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Messages   []models.ChatMessage `json:"messages"`
		Processing bool                 `json:"processing"`
	}
	decodeBody(t, resp, &body)
	if len(body.Messages) != 1 || body.Messages[0].Text != "Hi there" {
		t.Errorf("unexpected messages %+v", body.Messages)
	}
	if !body.Processing {
		t.Error("expected processing flag to pass through")
	}
	if stub.gotUserID != 42 {
		t.Errorf("expected user 42, got %d", stub.gotUserID)
	}
}

func TestSendCoachMessage(t *testing.T) {
	stub := &stubCoachService{
		appended: []models.ChatMessage{
			models.NewChatMessage(models.SenderUser, "How did I do?"),
			models.NewChatMessage(models.SenderCoach, "Nicely."),
		},
	}
	app := newCoachTestApp(stub)

	req := httptest.NewRequest(http.MethodPost, "/coach/messages", strings.NewReader(`{"message":"How did I do?"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	decodeBody(t, resp, &body)
	if len(body.Messages) != 2 {
		t.Fatalf("expected the appended exchange, got %d messages", len(body.Messages))
	}
	if stub.gotText != "How did I do?" {
		t.Errorf("service received %q", stub.gotText)
	}
}

func TestSendCoachMessageErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"empty message", services.ErrInvalidInput, http.StatusBadRequest},
		{"busy session", services.ErrCoachBusy, http.StatusConflict},
		{"guardrail", services.ErrGuardrailViolation, http.StatusUnprocessableEntity},
		{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubCoachService{sendErr: tc.err}
			app := newCoachTestApp(stub)

			req := httptest.NewRequest(http.MethodPost, "/coach/messages", strings.NewReader(`{"message":"hello"}`))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestSendCoachMessageGuardrailIncludesApology(t *testing.T) {
	stub := &stubCoachService{
		sendErr: services.ErrGuardrailViolation,
		appended: []models.ChatMessage{
			models.NewChatMessage(models.SenderUser, "blocked input"),
			models.NewChatMessage(models.SenderCoach, "I'm sorry, I couldn't process that request."),
		},
	}
	app := newCoachTestApp(stub)

	req := httptest.NewRequest(http.MethodPost, "/coach/messages", strings.NewReader(`{"message":"blocked input"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var body struct {
		Error    string               `json:"error"`
		Messages []models.ChatMessage `json:"messages"`
	}
	decodeBody(t, resp, &body)
	if !strings.Contains(body.Error, "sensitive information") {
		t.Errorf("unexpected error text %q", body.Error)
	}
	if len(body.Messages) != 2 {
		t.Errorf("guardrail response must carry the appended messages, got %d", len(body.Messages))
	}
}

func TestSendCoachMessageRejectsBadBody(t *testing.T) {
	app := newCoachTestApp(&stubCoachService{})

	req := httptest.NewRequest(http.MethodPost, "/coach/messages", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCoachMessagesRequireIdentity(t *testing.T) {
	app := fiber.New()
	handler := NewCoachHandler(&stubCoachService{}, nil, "test-secret")
	app.Get("/coach/messages", handler.GetMessages)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/coach/messages", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.StatusCode)
	}
}

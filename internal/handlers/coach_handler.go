package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/Chris-viatas/EmbrHealth/internal/models"
	"github.com/Chris-viatas/EmbrHealth/internal/services"
	chatws "github.com/Chris-viatas/EmbrHealth/internal/websocket"
	"github.com/Chris-viatas/EmbrHealth/pkg/utils"
)

type coachApplicationService interface {
	Transcript(ctx context.Context, userID int64) []models.ChatMessage
	Processing(userID int64) bool
	SendMessage(ctx context.Context, userID int64, text string) ([]models.ChatMessage, error)
}

type CoachHandler struct {
	service   coachApplicationService
	hub       *chatws.Hub
	jwtSecret string
}

type sendCoachMessageRequest struct {
	Message string `json:"message"`
}

func NewCoachHandler(service coachApplicationService, hub *chatws.Hub, jwtSecret string) *CoachHandler {
	return &CoachHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

func (h *CoachHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	return c.JSON(fiber.Map{
		"messages":   h.service.Transcript(c.Context(), userID),
		"processing": h.service.Processing(userID),
	})
}

func (h *CoachHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sendCoachMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	appended, err := h.service.SendMessage(c.Context(), userID, req.Message)
	h.pushMessages(userID, appended)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message must not be empty"})
		case errors.Is(err, services.ErrCoachBusy):
			return c.Status(fiber.StatusConflict).
				JSON(fiber.Map{"error": "A coaching request is already in progress"})
		case errors.Is(err, services.ErrGuardrailViolation):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":    "Your message appears to include sensitive information. Please remove personal identifiers and try again.",
				"messages": appended,
			})
		default:
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Failed to process message"})
		}
	}

	return c.JSON(fiber.Map{"messages": appended})
}

func (h *CoachHandler) pushMessages(userID int64, messages []models.ChatMessage) {
	if h.hub == nil {
		return
	}
	id := strconv.FormatInt(userID, 10)
	for _, message := range messages {
		h.hub.BroadcastChat(id, message)
	}
}

func (h *CoachHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *CoachHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	client := chatws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func (h *CoachHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}
	if tokenString == "" {
		return nil, errors.New("missing token")
	}
	return utils.ValidateToken(tokenString, h.jwtSecret)
}

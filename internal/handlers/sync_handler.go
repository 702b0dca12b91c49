package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Chris-viatas/EmbrHealth/internal/models"
	"github.com/Chris-viatas/EmbrHealth/internal/services"
)

type syncApplicationService interface {
	UpsertHealthRecords(ctx context.Context, userID int64, records []models.HealthRecord) (int, error)
	ReplaceGoals(ctx context.Context, userID int64, goals []models.Goal) (int, error)
	ReplaceWorkouts(ctx context.Context, userID int64, workouts []models.Workout) (int, error)
	ListHealthRecords(ctx context.Context, userID int64, page, limit int) ([]models.HealthRecord, int, error)
}

type SyncHandler struct {
	service syncApplicationService
}

func NewSyncHandler(service syncApplicationService) *SyncHandler {
	return &SyncHandler{service: service}
}

type syncRecordsRequest struct {
	Records []models.HealthRecord `json:"records"`
}

type syncGoalsRequest struct {
	Goals []models.Goal `json:"goals"`
}

type syncWorkoutsRequest struct {
	Workouts []models.Workout `json:"workouts"`
}

func (h *SyncHandler) SyncRecords(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req syncRecordsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	count, err := h.service.UpsertHealthRecords(c.Context(), userID, req.Records)
	if err != nil {
		return mapSyncError(c, err)
	}

	return c.JSON(fiber.Map{"synced": count})
}

func (h *SyncHandler) SyncGoals(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req syncGoalsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	count, err := h.service.ReplaceGoals(c.Context(), userID, req.Goals)
	if err != nil {
		return mapSyncError(c, err)
	}

	return c.JSON(fiber.Map{"synced": count})
}

func (h *SyncHandler) SyncWorkouts(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req syncWorkoutsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	count, err := h.service.ReplaceWorkouts(c.Context(), userID, req.Workouts)
	if err != nil {
		return mapSyncError(c, err)
	}

	return c.JSON(fiber.Map{"synced": count})
}

func (h *SyncHandler) ListRecords(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	records, total, err := h.service.ListHealthRecords(c.Context(), userID, page, limit)
	if err != nil {
		return mapSyncError(c, err)
	}

	return c.JSON(fiber.Map{
		"records":    records,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func mapSyncError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

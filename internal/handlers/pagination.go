package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Chris-viatas/EmbrHealth/internal/models"
)

const (
	defaultPageLimit = 30
	maxPageLimit     = 90
)

func buildPaginationMeta(page, limit, total int) models.PaginationMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

func parsePositiveInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func currentUserID(c *fiber.Ctx) (int64, error) {
	raw, _ := c.Locals("user_id").(string)
	return strconv.ParseInt(raw, 10, 64)
}

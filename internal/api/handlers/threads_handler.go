package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/autoposter/internal/formatter"
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/internal/transfer"
)

type ThreadsHandler struct {
	s service.ThreadsService
}

func NewThreadsHandler(s service.ThreadsService) *ThreadsHandler {
	return &ThreadsHandler{s: s}
}

func (h *ThreadsHandler) Preview(c *fiber.Ctx) error {
	var req transfer.ThreadsPreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	res, err := h.s.Preview(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// MentionAnalytics lists handles mentioned in the last ?days days, 7 by default.
func (h *ThreadsHandler) MentionAnalytics(c *fiber.Ctx) error {
	days := c.QueryInt("days", int(formatter.DefaultRetention/(24*time.Hour)))
	if days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "days must be positive",
		})
	}

	res, err := h.s.MentionAnalytics(c.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

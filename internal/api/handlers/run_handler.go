package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/autoposter/internal/queue"
	"github.com/maheshrc27/autoposter/internal/service"
)

type RunHandler struct {
	cs     service.CampaignService
	ps     service.PostingService
	client *queue.Client
}

func NewRunHandler(cs service.CampaignService, ps service.PostingService, client *queue.Client) *RunHandler {
	return &RunHandler{cs: cs, ps: ps, client: client}
}

// TriggerRun runs the campaign inline and returns the run result as is.
// A campaign that is not due still answers 200 with success false.
func (h *RunHandler) TriggerRun(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}
	if _, err := h.cs.Get(c.Context(), GetUserID(c), id); err != nil {
		return respondError(c, err)
	}

	res, err := h.ps.Run(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrStore) && res != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(res)
		}
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// EnqueueRun hands the run to the worker queue.
func (h *RunHandler) EnqueueRun(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}
	if _, err := h.cs.Get(c.Context(), GetUserID(c), id); err != nil {
		return respondError(c, err)
	}

	queued, err := h.client.EnqueueRun(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling campaign run",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"queued": queued,
	})
}

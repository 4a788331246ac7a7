package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/internal/transfer"
)

type CampaignHandler struct {
	s service.CampaignService
}

func NewCampaignHandler(s service.CampaignService) *CampaignHandler {
	return &CampaignHandler{s: s}
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req transfer.CampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	campaign, err := h.s.Create(c.Context(), GetUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(transfer.NewCampaignResponse(campaign, time.Now()))
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	list, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	out := make([]transfer.CampaignResponse, 0, len(list))
	for _, campaign := range list {
		out = append(out, transfer.NewCampaignResponse(campaign, now))
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	campaign, err := h.s.Get(c.Context(), GetUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(transfer.NewCampaignResponse(campaign, time.Now()))
}

func (h *CampaignHandler) UpdateCampaign(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}
	var req transfer.CampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	campaign, err := h.s.Update(c.Context(), GetUserID(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(transfer.NewCampaignResponse(campaign, time.Now()))
}

func (h *CampaignHandler) DeleteCampaign(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}
	if err := h.s.Delete(c.Context(), GetUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Campaign deleted successfully",
	})
}

func (h *CampaignHandler) StartCampaign(c *fiber.Ctx) error {
	return h.transition(c, models.CampaignStatusActive)
}

func (h *CampaignHandler) PauseCampaign(c *fiber.Ctx) error {
	return h.transition(c, models.CampaignStatusPaused)
}

func (h *CampaignHandler) StopCampaign(c *fiber.Ctx) error {
	return h.transition(c, models.CampaignStatusStopped)
}

func (h *CampaignHandler) UpdateStatus(c *fiber.Ctx) error {
	var req transfer.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	return h.transition(c, req.Status)
}

func (h *CampaignHandler) transition(c *fiber.Ctx, status string) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	campaign, err := h.s.UpdateStatus(c.Context(), GetUserID(c), id, status)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(transfer.NewCampaignResponse(campaign, time.Now()))
}

func (h *CampaignHandler) GetSchedule(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	res, err := h.s.GetSchedule(c.Context(), GetUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

func (h *CampaignHandler) UpdateSchedule(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}
	var sc models.ScheduleConfig
	if err := c.BodyParser(&sc); err != nil {
		return badBody(c)
	}

	res, err := h.s.UpdateSchedule(c.Context(), GetUserID(c), id, sc)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

func (h *CampaignHandler) ShouldPost(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	res, err := h.s.ShouldPost(c.Context(), GetUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

func (h *CampaignHandler) ListAttempts(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}

	list, err := h.s.ListAttempts(c.Context(), GetUserID(c), id, c.QueryInt("limit", 100))
	if err != nil {
		return respondError(c, err)
	}
	if list == nil {
		list = []*models.PostAttempt{}
	}
	return c.Status(fiber.StatusOK).JSON(list)
}

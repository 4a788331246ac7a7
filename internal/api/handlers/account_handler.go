package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/internal/transfer"
)

type AccountHandler struct {
	cs service.CredentialService
	ms service.MediaService
}

func NewAccountHandler(cs service.CredentialService, ms service.MediaService) *AccountHandler {
	return &AccountHandler{cs: cs, ms: ms}
}

func (h *AccountHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accounts, err := h.cs.List(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if accounts == nil {
		accounts = []*models.SocialAccount{}
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) ConnectSocialAccount(c *fiber.Ctx) error {
	var req transfer.ConnectAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	account, err := h.cs.Connect(c.Context(), GetUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *AccountHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badID(c)
	}
	if err := h.cs.Disconnect(c.Context(), GetUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Account removed successfully",
	})
}

// UploadMedia stores one file and returns the key to put in a campaign's media_urls.
func (h *AccountHandler) UploadMedia(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}

	f, err := fh.Open()
	if err != nil {
		return badBody(c)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return badBody(c)
	}

	key, err := h.ms.Upload(c.Context(), data)
	if err != nil {
		if errors.Is(err, service.ErrMediaDisabled) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"key": key,
	})
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-gallery/generation"
)

type generateRequest struct {
	Prompt  string `json:"prompt" form:"prompt" validate:"required"`
	ModelID string `json:"model_id" form:"model_id" validate:"required"`
}

func (h *Handler) ListModels(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, "Models found", h.generator.Catalog().Models())
}

// GenerateImages runs one batch and keeps it so the slots can be saved later.
func (h *Handler) GenerateImages(c *fiber.Ctx) error {
	input := new(generateRequest)
	if ok, err := h.parseBody(c, input); !ok {
		return err
	}

	urls, err := h.generator.Generate(c.UserContext(), input.Prompt, input.ModelID)
	if err != nil {
		status, message := generationFailure(err)
		return respond(c, status, message, nil)
	}

	batch := h.batches.Create(input.Prompt, input.ModelID, urls)

	return respond(c, fiber.StatusOK, "Successfully generated images", fiber.Map{
		"batch_id": batch.ID,
		"images":   urls,
	})
}

func generationFailure(err error) (int, string) {
	switch {
	case errors.Is(err, generation.ErrEmptyPrompt):
		return fiber.StatusBadRequest, "Prompt is required"
	case errors.Is(err, generation.ErrPromptTooLong):
		return fiber.StatusBadRequest, "Prompt too long (max 1000 characters)"
	case errors.Is(err, generation.ErrUnknownModel):
		return fiber.StatusBadRequest, "Unknown model"
	default:
		return fiber.StatusBadGateway, "Failed to generate images"
	}
}

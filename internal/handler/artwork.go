package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/lyricstudio/api/internal/model"
	"github.com/lyricstudio/api/internal/service"
	"github.com/lyricstudio/api/pkg/response"
)

type ArtworkHandler struct {
	service   *service.ArtworkService
	validator *validator.Validate
}

func NewArtworkHandler(svc *service.ArtworkService, v *validator.Validate) *ArtworkHandler {
	return &ArtworkHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /api/artwork
func (h *ArtworkHandler) Generate(c *fiber.Ctx) error {
	var req model.ArtworkRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Generate(c.Context(), &req)
	if err != nil {
		return response.AIError(c, err.Error())
	}

	return response.Created(c, result)
}

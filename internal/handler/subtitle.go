package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/lyricstudio/api/internal/model"
	"github.com/lyricstudio/api/internal/service"
	"github.com/lyricstudio/api/pkg/response"
)

type SubtitleHandler struct {
	service   *service.SubtitleService
	validator *validator.Validate
}

func NewSubtitleHandler(svc *service.SubtitleService, v *validator.Validate) *SubtitleHandler {
	return &SubtitleHandler{
		service:   svc,
		validator: v,
	}
}

// Normalize handles POST /api/subtitles/normalize. A loose timed-text blob
// goes in, repaired cues and their SRT rendering come out.
func (h *SubtitleHandler) Normalize(c *fiber.Ctx) error {
	var req model.SubtitleNormalizeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Normalize(c.Context(), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Export handles POST /api/subtitles/export
func (h *SubtitleHandler) Export(c *fiber.Ctx) error {
	var req model.SubtitleExportRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Export(c.Context(), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, result)
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}

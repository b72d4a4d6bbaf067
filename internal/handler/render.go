package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/lyricstudio/api/internal/model"
	"github.com/lyricstudio/api/internal/service"
	"github.com/lyricstudio/api/internal/subtitle"
	"github.com/lyricstudio/api/pkg/response"
)

type RenderHandler struct {
	renders   *service.RenderService
	uploads   *service.UploadService
	artwork   *service.ArtworkService
	validator *validator.Validate
}

func NewRenderHandler(renders *service.RenderService, uploads *service.UploadService, artwork *service.ArtworkService, v *validator.Validate) *RenderHandler {
	return &RenderHandler{
		renders:   renders,
		uploads:   uploads,
		artwork:   artwork,
		validator: v,
	}
}

// Start handles POST /api/render/start. Track and cover IDs are resolved
// to staged files here so the worker only ever sees concrete paths; cues
// are sanitized before they are committed to the job record.
func (h *RenderHandler) Start(c *fiber.Ctx) error {
	var req model.RenderStartRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	audioPath, err := h.uploads.TrackPath(req.TrackID)
	if err != nil {
		return response.NotFound(c, "Track not found")
	}

	var coverPath string
	if req.CoverID != "" {
		coverPath, err = h.artwork.CoverPath(req.CoverID)
		if err != nil {
			return response.NotFound(c, "Cover not found")
		}
	}

	cues := subtitle.Sanitize(req.Cues)
	if len(cues) == 0 {
		return response.ValidationError(c, "No usable cues after sanitization", nil)
	}

	payload := &model.RenderJobPayload{
		TrackID:   req.TrackID,
		AudioPath: audioPath,
		CoverPath: coverPath,
		Cues:      cues,
	}

	result, err := h.renders.StartRender(c.Context(), payload)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/render/status/:jobId
func (h *RenderHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.renders.GetStatus(c.Context(), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Result handles GET /api/render/result/:jobId
func (h *RenderHandler) Result(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.renders.GetResult(c.Context(), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		if err.Error() == "job not completed" {
			return response.ValidationError(c, "Job not completed yet", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lyricstudio/api/internal/service"
	"github.com/lyricstudio/api/pkg/response"
)

type UploadHandler struct {
	service *service.UploadService
}

func NewUploadHandler(svc *service.UploadService) *UploadHandler {
	return &UploadHandler{service: svc}
}

// Audio handles POST /api/upload/audio. The track is staged on disk and
// referenced by ID in later render requests.
func (h *UploadHandler) Audio(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	if file.Size > maxAudioSize {
		return response.ValidationError(c, "File size exceeds 50MB limit", map[string]interface{}{
			"maxSize":  maxAudioSize,
			"fileSize": file.Size,
		})
	}

	contentType := file.Header.Get("Content-Type")
	if !audioContentTypes[contentType] {
		return response.ValidationError(c, "Invalid file type. Supported: WAV, MP3, M4A, AAC, OGG, FLAC", map[string]interface{}{
			"contentType": contentType,
		})
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	result, err := h.service.StageAudio(c.Context(), file.Filename, f)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, result)
}

// DeleteAudio handles DELETE /api/upload/audio/:trackId
func (h *UploadHandler) DeleteAudio(c *fiber.Ctx) error {
	trackID := c.Params("trackId")
	if trackID == "" {
		return response.ValidationError(c, "Track ID is required", nil)
	}

	h.service.DeleteTrack(trackID)
	return response.NoContent(c)
}

package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/lyricstudio/api/internal/service"
	"github.com/lyricstudio/api/pkg/response"
)

const maxAudioSize = 50 * 1024 * 1024 // 50MB

var audioContentTypes = map[string]bool{
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/wave":  true,
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/mp4":   true,
	"audio/x-m4a": true,
	"audio/aac":   true,
	"audio/x-aac": true,
	"audio/ogg":   true,
	"audio/flac":  true,
}

type TranscribeHandler struct {
	service *service.TranscribeService
}

func NewTranscribeHandler(svc *service.TranscribeService) *TranscribeHandler {
	return &TranscribeHandler{service: svc}
}

// Transcribe handles POST /api/transcribe. The uploaded audio is sent to
// the transcription model and the result comes back both raw and as
// normalized cues.
func (h *TranscribeHandler) Transcribe(c *fiber.Ctx) error {
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

	data, err := io.ReadAll(f)
	if err != nil {
		return response.ServiceError(c, "Failed to read file")
	}

	result, err := h.service.Transcribe(c.Context(), data, contentType)
	if err != nil {
		return response.AIError(c, err.Error())
	}

	return response.OK(c, result)
}

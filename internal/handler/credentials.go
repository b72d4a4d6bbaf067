package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/lyricstudio/api/internal/client"
	"github.com/lyricstudio/api/internal/model"
	"github.com/lyricstudio/api/pkg/response"
)

type CredentialsHandler struct {
	credentials client.CredentialProvider
	validator   *validator.Validate
}

func NewCredentialsHandler(credentials client.CredentialProvider, v *validator.Validate) *CredentialsHandler {
	return &CredentialsHandler{
		credentials: credentials,
		validator:   v,
	}
}

// Save handles POST /api/credentials. The key is stored server-side and
// never echoed back.
func (h *CredentialsHandler) Save(c *fiber.Ctx) error {
	var req model.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if err := h.credentials.Save(c.Context(), req.APIKey); err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}

// Clear handles DELETE /api/credentials
func (h *CredentialsHandler) Clear(c *fiber.Ctx) error {
	if err := h.credentials.Clear(c.Context()); err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.NoContent(c)
}

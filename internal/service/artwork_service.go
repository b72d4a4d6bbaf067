package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/lyricstudio/api/internal/client"
	"github.com/lyricstudio/api/internal/model"
)

// ArtworkService generates cover images for the lyric video background.
type ArtworkService struct {
	gemini   *client.GeminiClient
	storage  client.StorageClient
	mediaDir string
}

func NewArtworkService(gemini *client.GeminiClient, storage client.StorageClient, mediaDir string) *ArtworkService {
	return &ArtworkService{gemini: gemini, storage: storage, mediaDir: mediaDir}
}

// Generate asks the image model for cover art, stores it under the media
// directory (the render pipeline reads it from disk) and mirrors it to
// object storage when configured.
func (s *ArtworkService) Generate(ctx context.Context, req *model.ArtworkRequest) (*model.ArtworkResponse, error) {
	if s.gemini == nil || !s.gemini.IsConfigured(ctx) {
		return nil, fmt.Errorf("no API key configured")
	}

	data, mimeType, err := s.gemini.GenerateImage(ctx, req.Prompt)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	coverID := uuid.New().String()
	ext := extensionFor(mimeType)

	dir := filepath.Join(s.mediaDir, "covers")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cover dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, coverID+ext), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store cover: %w", err)
	}

	imageURL := "/media/covers/" + coverID + ext
	if s.storage != nil {
		key := fmt.Sprintf("covers/%s%s", coverID, ext)
		if url, err := s.storage.Upload(ctx, key, bytes.NewReader(data), mimeType); err == nil {
			imageURL = url
		}
		// A failed mirror is not fatal; the local copy drives the render.
	}

	return &model.ArtworkResponse{
		CoverID:  coverID,
		ImageURL: imageURL,
		MimeType: mimeType,
	}, nil
}

// CoverPath resolves a cover ID to its local file, trying the known image
// extensions. IDs are always the uuids minted by Generate; anything else
// is rejected before it reaches the filesystem.
func (s *ArtworkService) CoverPath(coverID string) (string, error) {
	if _, err := uuid.Parse(coverID); err != nil {
		return "", fmt.Errorf("cover %s not found", coverID)
	}
	dir := filepath.Join(s.mediaDir, "covers")
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".webp"} {
		path := filepath.Join(dir, coverID+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("cover %s not found", coverID)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

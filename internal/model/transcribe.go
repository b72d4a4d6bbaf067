package model

import "github.com/lyricstudio/api/internal/subtitle"

// TranscribeResponse returns the transcript both raw (for re-editing) and
// normalized into sanitized cues.
type TranscribeResponse struct {
	Raw  string         `json:"raw"`
	Cues []subtitle.Cue `json:"cues"`
	SRT  string         `json:"srt"`
}

// ArtworkRequest asks for a cover image. Prompt is usually derived from
// cue text and is truncated before it reaches the upstream model.
type ArtworkRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// ArtworkResponse points at the generated cover image
type ArtworkResponse struct {
	CoverID  string `json:"coverId"`
	ImageURL string `json:"imageUrl"`
	MimeType string `json:"mimeType"`
}

// CredentialsRequest stores the upstream API key
type CredentialsRequest struct {
	APIKey string `json:"apiKey" validate:"required,min=8"`
}

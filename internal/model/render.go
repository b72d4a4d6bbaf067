package model

import (
	"time"

	"github.com/lyricstudio/api/internal/subtitle"
)

// RenderStartRequest kicks off a video render for a staged audio track.
// Cues are taken as-is from the client's editor and sanitized server-side.
type RenderStartRequest struct {
	TrackID string         `json:"trackId" validate:"required"`
	CoverID string         `json:"coverId,omitempty"`
	Cues    []subtitle.Cue `json:"cues" validate:"required,min=1,dive"`
}

// RenderStartResponse confirms a queued render job
type RenderStartResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// RenderStatusResponse reports job progress
type RenderStatusResponse struct {
	JobID       string     `json:"jobId"`
	Status      JobStatus  `json:"status"`
	Progress    float64    `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// RenderResultResponse carries the playable handle of a finished render
type RenderResultResponse struct {
	JobID           string    `json:"jobId"`
	VideoURL        string    `json:"videoUrl"`
	DurationSeconds float64   `json:"durationSeconds"`
	FrameCount      int       `json:"frameCount"`
	SizeBytes       int64     `json:"sizeBytes"`
	CreatedAt       time.Time `json:"createdAt"`
}

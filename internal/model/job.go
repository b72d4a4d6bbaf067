package model

import (
	"time"

	"github.com/lyricstudio/api/internal/subtitle"
)

// JobStatus tracks a background job through its lifecycle
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job types
const (
	JobTypeRender = "render"
)

// Job represents a background job in the system
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    float64    `json:"progress"` // ratio in [0,1], never regresses
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Payload     []byte     `json:"-"` // Stored as JSON
	Result      []byte     `json:"-"` // Stored as JSON
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// RenderJobPayload contains the data for a render job: the staged audio
// track, the sanitized cue sequence and an optional cover image path.
type RenderJobPayload struct {
	TrackID   string         `json:"trackId"`
	AudioPath string         `json:"audioPath"`
	CoverPath string         `json:"coverPath,omitempty"`
	Cues      []subtitle.Cue `json:"cues"`
}

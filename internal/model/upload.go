package model

import "time"

// UploadAudioResponse describes a staged audio track
type UploadAudioResponse struct {
	TrackID         string    `json:"trackId"`
	FileName        string    `json:"fileName"`
	SizeBytes       int64     `json:"sizeBytes"`
	DurationSeconds float64   `json:"durationSeconds,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

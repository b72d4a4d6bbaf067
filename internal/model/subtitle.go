package model

import "github.com/lyricstudio/api/internal/subtitle"

// SubtitleNormalizeRequest carries a raw timed-text blob, typically the
// verbatim output of the transcription model or a user-edited variant.
type SubtitleNormalizeRequest struct {
	Raw string `json:"raw" validate:"required"`
}

// SubtitleNormalizeResponse returns the repaired cue sequence and its SRT
// rendering. When the blob yields no parseable cues, SRT carries the input
// unchanged and Fallback is set, so a fully-failed pass never destroys the
// user's text.
type SubtitleNormalizeResponse struct {
	Cues     []subtitle.Cue `json:"cues"`
	SRT      string         `json:"srt"`
	Fallback bool           `json:"fallback"`
	Skipped  int            `json:"skipped"`
}

// SubtitleExportRequest writes an edited cue set to a persisted .srt file
type SubtitleExportRequest struct {
	Title string         `json:"title,omitempty"`
	Cues  []subtitle.Cue `json:"cues" validate:"required,min=1,dive"`
}

// SubtitleExportResponse points at the persisted timed-text file
type SubtitleExportResponse struct {
	FileURL string `json:"fileUrl"`
	SRT     string `json:"srt"`
}

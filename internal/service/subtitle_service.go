package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lyricstudio/api/internal/model"
	"github.com/lyricstudio/api/internal/subtitle"
)

// SubtitleService normalizes raw timed text and persists edited cue sets.
type SubtitleService struct {
	mediaDir string
}

func NewSubtitleService(mediaDir string) *SubtitleService {
	return &SubtitleService{mediaDir: mediaDir}
}

// Normalize parses a raw, possibly malformed timed-text blob, repairs the
// cue timing and renders canonical SRT. A blob that yields no cues at all
// comes back unchanged with Fallback set: a fully-failed pass must never
// replace the user's text with an empty document.
func (s *SubtitleService) Normalize(ctx context.Context, req *model.SubtitleNormalizeRequest) (*model.SubtitleNormalizeResponse, error) {
	parsed, diags := subtitle.Parse(req.Raw)
	cues := subtitle.Sanitize(parsed)

	if len(cues) == 0 {
		return &model.SubtitleNormalizeResponse{
			Cues:     []subtitle.Cue{},
			SRT:      req.Raw,
			Fallback: true,
			Skipped:  len(diags),
		}, nil
	}

	return &model.SubtitleNormalizeResponse{
		Cues:    cues,
		SRT:     subtitle.FormatSRT(cues),
		Skipped: len(diags),
	}, nil
}

// Export sanitizes an edited cue set and writes it as a .srt file under
// the media directory, returning the relative file path for download.
func (s *SubtitleService) Export(ctx context.Context, req *model.SubtitleExportRequest) (*model.SubtitleExportResponse, error) {
	cues := subtitle.Sanitize(req.Cues)
	if len(cues) == 0 {
		return nil, fmt.Errorf("no cues left after sanitizing")
	}

	srt := subtitle.FormatSRT(cues)

	name := req.Title
	if name == "" {
		name = uuid.New().String()
	}
	name = fmt.Sprintf("%s-%d.srt", sanitizeFileName(name), time.Now().Unix())

	dir := filepath.Join(s.mediaDir, "subtitles")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create subtitle dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(srt), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write subtitle file: %w", err)
	}

	return &model.SubtitleExportResponse{
		FileURL: "/media/subtitles/" + name,
		SRT:     srt,
	}, nil
}

// sanitizeFileName keeps file names shell- and URL-safe.
func sanitizeFileName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "subtitles"
	}
	return string(out)
}

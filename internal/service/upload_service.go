package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lyricstudio/api/internal/model"
	"github.com/lyricstudio/api/internal/pipeline"
)

// UploadService stages audio tracks on local disk. The render pipeline and
// ffmpeg both want real files, so object storage is not in this path.
type UploadService struct {
	mediaDir string
	prober   pipeline.DurationProber
}

func NewUploadService(mediaDir string, prober pipeline.DurationProber) *UploadService {
	return &UploadService{mediaDir: mediaDir, prober: prober}
}

// StageAudio writes the uploaded track under the media directory and
// probes its duration. A failed probe is reported as zero, not an error;
// the render pipeline has its own fallback.
func (s *UploadService) StageAudio(ctx context.Context, fileName string, file io.Reader) (*model.UploadAudioResponse, error) {
	trackID := uuid.New().String()
	ext := filepath.Ext(fileName)
	if ext == "" {
		ext = ".mp3"
	}

	dir := filepath.Join(s.mediaDir, "tracks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create track dir: %w", err)
	}

	path := filepath.Join(dir, trackID+ext)
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stage track: %w", err)
	}
	defer out.Close()

	size, err := io.Copy(out, file)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write track: %w", err)
	}

	var duration float64
	if s.prober != nil {
		duration, err = s.prober.ProbeDuration(ctx, path)
		if err != nil {
			log.Printf("duration probe for %s failed: %v", trackID, err)
			duration = 0
		}
	}

	return &model.UploadAudioResponse{
		TrackID:         trackID,
		FileName:        fileName,
		SizeBytes:       size,
		DurationSeconds: duration,
		CreatedAt:       time.Now(),
	}, nil
}

// TrackPath resolves a staged track ID to its local file. IDs are always
// the uuids minted by StageAudio; anything else (in particular anything
// with path separators) is rejected before it reaches the filesystem.
func (s *UploadService) TrackPath(trackID string) (string, error) {
	if _, err := uuid.Parse(trackID); err != nil {
		return "", fmt.Errorf("track %s not found", trackID)
	}
	dir := filepath.Join(s.mediaDir, "tracks")
	matches, err := filepath.Glob(filepath.Join(dir, trackID+".*"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("track %s not found", trackID)
	}
	return matches[0], nil
}

// DeleteTrack removes a staged track. Best effort; missing files are fine.
func (s *UploadService) DeleteTrack(trackID string) {
	path, err := s.TrackPath(trackID)
	if err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		log.Printf("failed to delete track %s: %v", trackID, err)
	}
}

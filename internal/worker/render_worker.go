package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "golang.org/x/image/webp"

	"github.com/hibiken/asynq"
	"github.com/lyricstudio/api/internal/client"
	"github.com/lyricstudio/api/internal/model"
	"github.com/lyricstudio/api/internal/pipeline"
	"github.com/lyricstudio/api/internal/service"
	"github.com/lyricstudio/api/internal/websocket"
	"github.com/lyricstudio/api/pkg/response"
)

// RenderWorker processes render tasks from the queue
type RenderWorker struct {
	renderService *service.RenderService
	assembler     *pipeline.Assembler
	storage       client.StorageClient
	hub           *websocket.Hub
	mediaDir      string
}

func NewRenderWorker(
	renderService *service.RenderService,
	assembler *pipeline.Assembler,
	storage client.StorageClient,
	hub *websocket.Hub,
	mediaDir string,
) *RenderWorker {
	return &RenderWorker{
		renderService: renderService,
		assembler:     assembler,
		storage:       storage,
		hub:           hub,
		mediaDir:      mediaDir,
	}
}

// ProcessTask handles a render task
func (w *RenderWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"jobId"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Processing render job %s", jobID)

	var payload model.RenderJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "invalid job payload")
		return nil
	}

	cover, err := loadCover(payload.CoverPath)
	if err != nil {
		// A missing cover degrades to a black background, not a failure.
		log.Printf("Job %s: could not load cover %q: %v", jobID, payload.CoverPath, err)
	}

	job := pipeline.Job{
		ID:         jobID,
		AudioPath:  payload.AudioPath,
		Cover:      cover,
		Cues:       payload.Cues,
		OutputPath: filepath.Join(w.mediaDir, "videos", jobID+".mp4"),
	}

	onProgress := func(ratio float64) {
		step := stepFor(ratio)
		if err := w.renderService.UpdateJobProgress(ctx, jobID, ratio, step); err != nil {
			log.Printf("Job %s: failed to persist progress: %v", jobID, err)
		}
		w.hub.BroadcastProgress(jobID, ratio, model.JobStatusRunning, step)
	}

	result, err := w.assembler.Assemble(ctx, job, onProgress)
	if err != nil {
		log.Printf("Job %s: render failed: %v", jobID, err)
		w.failJob(ctx, jobID, err.Error())
		return nil
	}

	videoURL := w.publishVideo(ctx, jobID, result.OutputPath)

	response := &model.RenderResultResponse{
		JobID:           jobID,
		VideoURL:        videoURL,
		DurationSeconds: result.DurationSeconds,
		FrameCount:      result.FrameCount,
		SizeBytes:       result.SizeBytes,
		CreatedAt:       time.Now(),
	}

	if err := w.renderService.CompleteJob(ctx, jobID, response); err != nil {
		log.Printf("Job %s: failed to mark complete: %v", jobID, err)
	}
	w.hub.BroadcastComplete(jobID, response)

	log.Printf("Job %s: render complete, %d frames, %.1fs", jobID, result.FrameCount, result.DurationSeconds)
	return nil
}

// publishVideo mirrors the finished file to object storage when configured
// and returns the URL clients should fetch. Local serving is the fallback.
func (w *RenderWorker) publishVideo(ctx context.Context, jobID, path string) string {
	localURL := "/media/videos/" + jobID + ".mp4"

	if w.storage == nil {
		return localURL
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Job %s: could not read output for upload: %v", jobID, err)
		return localURL
	}

	key := fmt.Sprintf("videos/%s.mp4", jobID)
	if _, err := w.storage.Upload(ctx, key, bytes.NewReader(data), "video/mp4"); err != nil {
		log.Printf("Job %s: storage upload failed, serving locally: %v", jobID, err)
		return localURL
	}

	url, err := w.storage.GetSignedURL(ctx, key, 24*time.Hour)
	if err != nil {
		log.Printf("Job %s: failed to sign video URL: %v", jobID, err)
		return w.storage.GetPublicURL(key)
	}
	return url
}

func (w *RenderWorker) failJob(ctx context.Context, jobID, errMsg string) {
	if err := w.renderService.FailJob(ctx, jobID, errMsg); err != nil {
		log.Printf("Job %s: failed to mark failed: %v", jobID, err)
	}
	w.hub.BroadcastError(jobID, response.CodeJobFailed, errMsg)
}

// stepFor names the pipeline phase a progress ratio falls in, for status
// displays. Boundaries mirror the assembler's bands.
func stepFor(ratio float64) string {
	switch {
	case ratio < 0.05:
		return "preparing"
	case ratio < 0.45:
		return "rendering frames"
	case ratio < 0.50:
		return "staging audio"
	case ratio < 0.95:
		return "encoding"
	case ratio < 1:
		return "publishing"
	default:
		return "done"
	}
}

func loadCover(path string) (image.Image, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

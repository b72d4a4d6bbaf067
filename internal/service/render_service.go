package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/lyricstudio/api/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	TaskTypeRender = "render:process"

	// activeJobKey serializes renders: the pipeline handles one job at a
	// time and does not guard itself, so admission control lives here.
	activeJobKey = "render:active"

	jobRetention = 24 * time.Hour
)

// RenderService handles render job management
type RenderService struct {
	redis       *redis.Client
	asynqClient *asynq.Client
}

func NewRenderService(redisClient *redis.Client, asynqClient *asynq.Client) *RenderService {
	return &RenderService{
		redis:       redisClient,
		asynqClient: asynqClient,
	}
}

// StartRender queues a new render job. Only one render may be in flight;
// a second start while one is active is rejected.
func (s *RenderService) StartRender(ctx context.Context, payload *model.RenderJobPayload) (*model.RenderStartResponse, error) {
	jobID := uuid.New().String()
	now := time.Now()

	acquired, err := s.redis.SetNX(ctx, activeJobKey, jobID, jobRetention).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check active job: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("a render is already in progress")
	}

	job := &model.Job{
		ID:        jobID,
		Type:      model.JobTypeRender,
		Status:    model.JobStatusQueued,
		Progress:  0,
		CreatedAt: now,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		s.releaseActive(ctx)
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	job.Payload = payloadBytes

	if err := s.saveJob(ctx, job); err != nil {
		s.releaseActive(ctx)
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newRenderTask(jobID, payloadBytes)
	if err != nil {
		s.releaseActive(ctx)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue("render"),
		asynq.MaxRetry(0), // a failed render is reported, not retried
		asynq.Retention(jobRetention),
	)
	if err != nil {
		s.releaseActive(ctx)
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.RenderStartResponse{
		JobID:     jobID,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
	}, nil
}

// GetStatus returns the current status of a render job
func (s *RenderService) GetStatus(ctx context.Context, jobID string) (*model.RenderStatusResponse, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return &model.RenderStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}, nil
}

// GetResult returns the result of a completed render job
func (s *RenderService) GetResult(ctx context.Context, jobID string) (*model.RenderResultResponse, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != model.JobStatusSucceeded {
		return nil, fmt.Errorf("job not completed")
	}

	var result model.RenderResultResponse
	if err := json.Unmarshal(job.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// UpdateJobProgress updates job progress (called by worker). Progress is
// stored as the ratio the pipeline reported; the pipeline already
// guarantees monotonicity.
func (s *RenderService) UpdateJobProgress(ctx context.Context, jobID string, progress float64, step string) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Progress = progress
	job.CurrentStep = step

	if job.Status == model.JobStatusQueued {
		job.Status = model.JobStatusRunning
		now := time.Now()
		job.StartedAt = &now
	}

	return s.saveJob(ctx, job)
}

// CompleteJob marks the job as succeeded and releases the render slot
func (s *RenderService) CompleteJob(ctx context.Context, jobID string, result interface{}) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusSucceeded
	job.Progress = 1
	job.Result = resultBytes
	now := time.Now()
	job.CompletedAt = &now

	if err := s.saveJob(ctx, job); err != nil {
		return err
	}
	s.releaseActive(ctx)
	return nil
}

// FailJob marks the job as failed and releases the render slot
func (s *RenderService) FailJob(ctx context.Context, jobID string, errMsg string) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusFailed
	job.Error = &errMsg
	now := time.Now()
	job.CompletedAt = &now

	if err := s.saveJob(ctx, job); err != nil {
		return err
	}
	s.releaseActive(ctx)
	return nil
}

// Helper methods

func (s *RenderService) releaseActive(ctx context.Context) {
	// Best effort; an expired key unblocks the queue anyway.
	s.redis.Del(ctx, activeJobKey)
}

func (s *RenderService) saveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(struct {
		*model.Job
		Payload []byte `json:"payload,omitempty"`
		Result  []byte `json:"result,omitempty"`
	}{Job: job, Payload: job.Payload, Result: job.Result})
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, fmt.Sprintf("job:%s", job.ID), data, jobRetention).Err()
}

func (s *RenderService) getJob(ctx context.Context, jobID string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, fmt.Sprintf("job:%s", jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("job not found")
		}
		return nil, err
	}

	var stored struct {
		model.Job
		Payload []byte `json:"payload,omitempty"`
		Result  []byte `json:"result,omitempty"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	job := stored.Job
	job.Payload = stored.Payload
	job.Result = stored.Result

	return &job, nil
}

func newRenderTask(jobID string, payload []byte) (*asynq.Task, error) {
	taskPayload := map[string]interface{}{
		"jobId":   jobID,
		"payload": payload,
	}
	data, err := json.Marshal(taskPayload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRender, data), nil
}

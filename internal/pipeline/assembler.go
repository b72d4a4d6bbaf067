// Package pipeline drives one video-assembly run: frame loop, scratch
// staging, encode, cleanup.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/lyricstudio/api/internal/encoder"
	"github.com/lyricstudio/api/internal/subtitle"
)

// FallbackDurationSeconds substitutes the audio duration when probing
// fails, so a broken container never blocks a render.
const FallbackDurationSeconds = 180

// Progress band boundaries. Frame rendering owns the widest band because
// it dominates wall-clock time; encode progress passes through
// proportionally inside its own band.
const (
	progressPrepared    = 0.05
	progressFramesDone  = 0.45
	progressAudioStaged = 0.50
	progressEncoded     = 0.95
)

// DurationProber looks up the playable length of a media file.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// FrameEncoder muxes a staged frame sequence with an audio track.
type FrameEncoder interface {
	Encode(ctx context.Context, req encoder.EncodeRequest) error
}

// FrameRenderer rasterizes a single frame for the given subtitle text.
type FrameRenderer interface {
	Render(base image.Image, text string) ([]byte, error)
}

// Job is the input of one render run. One job runs at a time; the
// Assembler itself does not guard against concurrent calls.
type Job struct {
	ID         string
	AudioPath  string
	Cover      image.Image
	Cues       []subtitle.Cue
	OutputPath string
}

// Result is the readback of a finished render.
type Result struct {
	OutputPath      string
	DurationSeconds float64
	FrameCount      int
	SizeBytes       int64
}

// Assembler owns the render loop. Frames are rasterized sequentially, one
// fully staged before the next begins, because the renderer reuses a single
// drawing surface.
type Assembler struct {
	prober      DurationProber
	enc         FrameEncoder
	newRenderer func() (FrameRenderer, error)
	frameRate   int
	scratchRoot string
}

// New creates an Assembler. newRenderer is invoked once per job so every
// run starts with a cold frame cache.
func New(prober DurationProber, enc FrameEncoder, newRenderer func() (FrameRenderer, error), frameRate int, scratchRoot string) *Assembler {
	return &Assembler{
		prober:      prober,
		enc:         enc,
		newRenderer: newRenderer,
		frameRate:   frameRate,
		scratchRoot: scratchRoot,
	}
}

// Assemble runs the whole pipeline for one job and reports monotonic
// progress in [0,1] through onProgress (never nil-checked by callers; pass
// nil to disable). The job's scratch directory is removed on every exit
// path; cleanup failures are logged and swallowed.
func (a *Assembler) Assemble(ctx context.Context, job Job, onProgress func(float64)) (*Result, error) {
	emit := monotonic(onProgress)

	scratch := filepath.Join(a.scratchRoot, "job-"+job.ID)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Printf("scratch cleanup for job %s failed: %v", job.ID, err)
		}
	}()

	duration, err := a.prober.ProbeDuration(ctx, job.AudioPath)
	if err != nil || duration <= 0 {
		log.Printf("audio probe failed for job %s, using %ds fallback: %v", job.ID, FallbackDurationSeconds, err)
		duration = FallbackDurationSeconds
	}

	renderer, err := a.newRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create frame renderer: %w", err)
	}
	emit(progressPrepared)

	frameCount := int(math.Ceil(duration * float64(a.frameRate)))
	if err := a.renderFrames(ctx, renderer, job, scratch, frameCount, emit); err != nil {
		return nil, err
	}

	audioPath, err := stageAudio(job.AudioPath, scratch)
	if err != nil {
		return nil, fmt.Errorf("failed to stage audio: %w", err)
	}
	emit(progressAudioStaged)

	outputScratch := filepath.Join(scratch, "output.mp4")
	err = a.enc.Encode(ctx, encoder.EncodeRequest{
		FramePattern: filepath.Join(scratch, "frame_%06d.jpg"),
		AudioPath:    audioPath,
		OutputPath:   outputScratch,
		FrameRate:    a.frameRate,
		TotalSeconds: duration,
		OnProgress: func(ratio float64) {
			emit(progressAudioStaged + (progressEncoded-progressAudioStaged)*ratio)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding failed: %w", err)
	}
	emit(progressEncoded)

	size, err := publish(outputScratch, job.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to publish output: %w", err)
	}

	emit(1)
	return &Result{
		OutputPath:      job.OutputPath,
		DurationSeconds: duration,
		FrameCount:      frameCount,
		SizeBytes:       size,
	}, nil
}

// renderFrames samples one frame per 1/frameRate seconds. The active cue is
// the first one covering the sample instant; no cue means a blank subtitle.
// Progress is emitted once per second of video rather than per frame.
func (a *Assembler) renderFrames(ctx context.Context, renderer FrameRenderer, job Job, scratch string, frameCount int, emit func(float64)) error {
	for i := 0; i < frameCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		t := float64(i) / float64(a.frameRate)
		text := subtitle.ActiveCue(job.Cues, t)

		data, err := renderer.Render(job.Cover, text)
		if err != nil {
			return fmt.Errorf("failed to render frame %d: %w", i, err)
		}

		name := filepath.Join(scratch, fmt.Sprintf("frame_%06d.jpg", i))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return fmt.Errorf("failed to write frame %d: %w", i, err)
		}

		if (i+1)%a.frameRate == 0 || i == frameCount-1 {
			emit(progressPrepared + (progressFramesDone-progressPrepared)*float64(i+1)/float64(frameCount))
		}
	}
	return nil
}

// stageAudio copies the source track into the scratch namespace so the
// encoder reads everything from one place.
func stageAudio(src, scratch string) (string, error) {
	dst := filepath.Join(scratch, "audio"+filepath.Ext(src))

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", err
	}
	return dst, nil
}

// publish moves the encoded file out of scratch to its final path and
// returns its size.
func publish(src, dst string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}

	// Rename first; fall back to copy for cross-device scratch dirs.
	if err := os.Rename(src, dst); err != nil {
		in, err := os.Open(src)
		if err != nil {
			return 0, err
		}
		defer in.Close()

		out, err := os.Create(dst)
		if err != nil {
			return 0, err
		}
		defer out.Close()

		if _, err := io.Copy(out, in); err != nil {
			return 0, err
		}
	}

	info, err := os.Stat(dst)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// monotonic wraps a progress callback so reported values never regress and
// stay inside [0,1].
func monotonic(emit func(float64)) func(float64) {
	var last float64
	return func(v float64) {
		if emit == nil {
			return
		}
		if v < last {
			v = last
		}
		if v > 1 {
			v = 1
		}
		last = v
		emit(v)
	}
}

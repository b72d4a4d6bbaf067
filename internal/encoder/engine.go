// Package encoder wraps the external ffmpeg/ffprobe binaries behind a
// lazily-initialized engine shared by all render jobs.
package encoder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// EncodeRequest describes one encode invocation: an ordered set of frame
// images (zero-padded index pattern), one audio track, and the output
// container path.
type EncodeRequest struct {
	FramePattern string
	AudioPath    string
	OutputPath   string
	FrameRate    int
	// TotalSeconds is the expected output duration, used to turn ffmpeg's
	// out_time reports into a progress ratio.
	TotalSeconds float64
	// OnProgress receives ratios in [0,1]. Optional.
	OnProgress func(float64)
}

// Engine runs ffmpeg and ffprobe. Load must succeed before Encode is
// called; probing works without Load so duration lookup never depends on
// encoder availability.
type Engine struct {
	ffmpegBin  string
	ffprobeBin string

	mu     sync.Mutex
	loaded bool
}

// NewEngine creates an engine using the given binary paths. Empty paths
// fall back to $PATH lookup of "ffmpeg" and "ffprobe".
func NewEngine(ffmpegBin, ffprobeBin string) *Engine {
	if strings.TrimSpace(ffmpegBin) == "" {
		ffmpegBin = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBin) == "" {
		ffprobeBin = "ffprobe"
	}
	return &Engine{ffmpegBin: ffmpegBin, ffprobeBin: ffprobeBin}
}

// Load verifies both binaries are executable. Calling Load after a
// successful load is a no-op.
func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		return nil
	}

	if _, err := exec.LookPath(e.ffmpegBin); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}
	if _, err := exec.LookPath(e.ffprobeBin); err != nil {
		return fmt.Errorf("ffprobe not available: %w", err)
	}

	e.loaded = true
	return nil
}

// Loaded reports whether Load has completed.
func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration returns the container duration of the media at path in
// seconds.
func (e *Engine) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobeBin,
		"-v", "error", "-hide_banner",
		"-show_format", "-of", "json",
		"--", path)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result probeFormat
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, fmt.Errorf("ffprobe output unreadable: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(result.Format.Duration), 64)
	if err != nil || duration <= 0 {
		return 0, fmt.Errorf("no duration in ffprobe output")
	}
	return duration, nil
}

// Encode muxes the frame sequence with the audio track into an H.264/AAC
// MP4. The video stream is read from the frame pattern at the fixed frame
// rate; -shortest makes the shorter stream bound the output. Progress is
// parsed from ffmpeg's -progress reports and forwarded as a ratio.
//
// Calling Encode before a successful Load is a precondition failure.
func (e *Engine) Encode(ctx context.Context, req EncodeRequest) error {
	if !e.Loaded() {
		return fmt.Errorf("encoder engine not loaded")
	}

	cmd := exec.CommandContext(ctx, e.ffmpegBin,
		"-y", "-v", "error", "-nostats",
		"-framerate", strconv.Itoa(req.FrameRate),
		"-i", req.FramePattern,
		"-i", req.AudioPath,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		"-progress", "pipe:1",
		req.OutputPath)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to attach to ffmpeg: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		reportProgress(scanner.Text(), req.TotalSeconds, req.OnProgress)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	if req.OnProgress != nil {
		req.OnProgress(1)
	}
	return nil
}

// reportProgress interprets one line of ffmpeg -progress output.
func reportProgress(line string, totalSeconds float64, emit func(float64)) {
	if emit == nil {
		return
	}

	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return
	}

	switch key {
	case "out_time_us", "out_time_ms":
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || totalSeconds <= 0 {
			return
		}
		ratio := float64(us) / 1e6 / totalSeconds
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		emit(ratio)
	case "progress":
		if value == "end" {
			emit(1)
		}
	}
}

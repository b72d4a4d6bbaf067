package service

import (
	"context"
	"fmt"

	"github.com/lyricstudio/api/internal/client"
	"github.com/lyricstudio/api/internal/model"
	"github.com/lyricstudio/api/internal/subtitle"
)

// TranscribeService turns an uploaded song into timed subtitle cues.
type TranscribeService struct {
	gemini *client.GeminiClient
}

func NewTranscribeService(gemini *client.GeminiClient) *TranscribeService {
	return &TranscribeService{gemini: gemini}
}

// Transcribe sends the audio to the upstream model and normalizes the
// returned blob. Upstream errors are passed through as-is so the handler
// can surface them to the user. When no API key is configured the service
// falls back to a canned transcript so the rest of the flow stays usable
// in development.
func (s *TranscribeService) Transcribe(ctx context.Context, audio []byte, mimeType string) (*model.TranscribeResponse, error) {
	var raw string
	if s.gemini != nil && s.gemini.IsConfigured(ctx) {
		var err error
		raw, err = s.gemini.Transcribe(ctx, audio, mimeType)
		if err != nil {
			return nil, fmt.Errorf("transcription failed: %w", err)
		}
	} else {
		raw = mockTranscript
	}

	parsed, _ := subtitle.Parse(raw)
	cues := subtitle.Sanitize(parsed)

	return &model.TranscribeResponse{
		Raw:  raw,
		Cues: cues,
		SRT:  subtitle.FormatSRT(cues),
	}, nil
}

// mockTranscript feeds development setups without an API key. Deliberately
// messy: mixed separators, a missing index and an inline-text block, so the
// parser path gets exercised too.
const mockTranscript = `1
00:00:01,000 --> 00:00:04,500
Walking down an empty street

00:00:04.500 --> 00:00:08.000
Counting every heartbeat

3
0:08:200 --> 0:11:900 Waiting for the morning light
`

package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lyricstudio/api/internal/config"
)

// maxPromptChars bounds the cue-derived prompt sent to image generation.
const maxPromptChars = 500

const transcribeInstruction = "Transcribe the lyrics of this song as SRT subtitles: " +
	"numbered blocks with HH:MM:SS,mmm --> HH:MM:SS,mmm time ranges followed by the sung line. " +
	"Output only the subtitle text, no commentary."

// GeminiClient handles communication with the Gemini API for both audio
// transcription and cover-image generation. The API key comes from the
// injected CredentialProvider on every call.
type GeminiClient struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	imageModel  string
	credentials CredentialProvider
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewGeminiClient creates a new Gemini API client
func NewGeminiClient(cfg *config.GeminiConfig, credentials CredentialProvider) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		imageModel:  cfg.ImageModel,
		credentials: credentials,
	}
}

// Transcribe sends the audio payload to the model and returns the raw
// timed-text blob. The blob is loosely SRT-like and not guaranteed
// well-formed; callers run it through the subtitle parser.
func (c *GeminiClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	req := generateContentRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: transcribeInstruction},
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(audio),
				}},
			},
		}},
	}

	resp, err := c.generateContent(ctx, c.model, req)
	if err != nil {
		return "", err
	}

	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				return part.Text, nil
			}
		}
	}
	return "", fmt.Errorf("no transcript in response")
}

// GenerateImage asks the image model for cover art. The prompt is
// truncated to a fixed budget before it is sent. Returns the decoded image
// bytes and their MIME type.
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	prompt = truncate(prompt, maxPromptChars)

	req := generateContentRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: "Generate a square album cover image for a song with these lyrics, no text in the image: " + prompt},
			},
		}},
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil {
		return nil, "", err
	}

	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, "", fmt.Errorf("failed to decode image payload: %w", err)
				}
				return data, part.InlineData.MimeType, nil
			}
		}
	}
	return nil, "", fmt.Errorf("no image produced")
}

// IsConfigured returns true if an API key is available
func (c *GeminiClient) IsConfigured(ctx context.Context) bool {
	token, err := c.credentials.Token(ctx)
	return err == nil && token != ""
}

func (c *GeminiClient) generateContent(ctx context.Context, model string, payload generateContentRequest) (*generateContentResponse, error) {
	token, err := c.credentials.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("no API key configured")
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
		}
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return nil, fmt.Errorf("gemini API error: %s", parsed.Error.Message)
		}
		return nil, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return &parsed, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/lyricstudio/api/internal/client"
	"github.com/lyricstudio/api/internal/config"
	"github.com/lyricstudio/api/internal/middleware"
	"github.com/lyricstudio/api/internal/model"
	"github.com/lyricstudio/api/internal/service"
	"github.com/lyricstudio/api/internal/subtitle"
)

// fakeProber satisfies pipeline.DurationProber for upload staging tests.
type fakeProber struct {
	seconds float64
}

func (p *fakeProber) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return p.seconds, nil
}

// setupApp wires the handlers the way main.go does, in gateway-auth mode
// so no token setup is needed, with an unconfigured AI client so the
// transcription path runs on its canned fallback. Nothing here touches
// Redis; render start is only exercised up to path resolution.
func setupApp(t *testing.T) (*fiber.App, string) {
	t.Helper()

	mediaDir := t.TempDir()
	validate := validator.New()

	credentials := client.NewStaticCredentialProvider("")
	gemini := client.NewGeminiClient(&config.GeminiConfig{
		BaseURL: "http://localhost:0",
		Model:   "test-model",
	}, credentials)

	transcribeService := service.NewTranscribeService(gemini)
	subtitleService := service.NewSubtitleService(mediaDir)
	artworkService := service.NewArtworkService(gemini, nil, mediaDir)
	uploadService := service.NewUploadService(mediaDir, &fakeProber{seconds: 42})
	renderService := service.NewRenderService(nil, nil)

	transcribeHandler := NewTranscribeHandler(transcribeService)
	subtitleHandler := NewSubtitleHandler(subtitleService, validate)
	uploadHandler := NewUploadHandler(uploadService)
	renderHandler := NewRenderHandler(renderService, uploadService, artworkService, validate)
	credentialsHandler := NewCredentialsHandler(credentials, validate)

	app := fiber.New(fiber.Config{BodyLimit: 50 * 1024 * 1024})

	api := app.Group("/api", middleware.GatewayAuthMiddleware())
	api.Post("/transcribe", transcribeHandler.Transcribe)
	api.Post("/subtitles/normalize", subtitleHandler.Normalize)
	api.Post("/subtitles/export", subtitleHandler.Export)
	api.Post("/upload/audio", uploadHandler.Audio)
	api.Delete("/upload/audio/:trackId", uploadHandler.DeleteAudio)
	api.Post("/render/start", renderHandler.Start)
	api.Post("/credentials", credentialsHandler.Save)
	api.Delete("/credentials", credentialsHandler.Clear)

	return app, mediaDir
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "test-user")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decode body %q: %v", data, err)
	}
}

func TestAuthRequired(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/subtitles/normalize", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without gateway identity, got %d", resp.StatusCode)
	}
}

func TestSubtitleNormalize(t *testing.T) {
	app, _ := setupApp(t)

	raw := "1\n00:00:01,000 --> 00:00:04,500\nFirst line\n\n" +
		"00:05 --> 00:07 two-field timestamps are unparseable\n\n" +
		"00:04:800 --> 00:07:900 Second line\n"

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/subtitles/normalize", model.SubtitleNormalizeRequest{Raw: raw}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body model.SubtitleNormalizeResponse
	decodeBody(t, resp, &body)

	if body.Fallback {
		t.Error("expected no fallback for a parseable blob")
	}
	if len(body.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(body.Cues))
	}
	if body.Cues[0].Text != "First line" || body.Cues[1].Text != "Second line" {
		t.Errorf("unexpected cue text: %+v", body.Cues)
	}
	if body.Skipped != 1 {
		t.Errorf("expected 1 skipped block, got %d", body.Skipped)
	}
	if !strings.Contains(body.SRT, "00:00:04,800 --> 00:00:07,900") {
		t.Errorf("SRT missing canonical timestamps:\n%s", body.SRT)
	}
}

func TestSubtitleNormalizeFallback(t *testing.T) {
	app, _ := setupApp(t)

	raw := "these are just lyrics\nwith no timing at all\n"
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/subtitles/normalize", model.SubtitleNormalizeRequest{Raw: raw}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body model.SubtitleNormalizeResponse
	decodeBody(t, resp, &body)

	if !body.Fallback {
		t.Error("expected fallback for an unparseable blob")
	}
	if body.SRT != raw {
		t.Errorf("fallback must return the input unchanged, got %q", body.SRT)
	}
}

func TestSubtitleNormalizeValidation(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/subtitles/normalize", map[string]string{}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing raw field, got %d", resp.StatusCode)
	}
}

func TestSubtitleExport(t *testing.T) {
	app, mediaDir := setupApp(t)

	req := model.SubtitleExportRequest{
		Title: "My Song",
		Cues: []subtitle.Cue{
			{Text: "Hello", Start: 1, End: 3},
			{Text: "World", Start: 3, End: 6},
		},
	}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/subtitles/export", req))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var body model.SubtitleExportResponse
	decodeBody(t, resp, &body)

	if !strings.HasPrefix(body.FileURL, "/media/subtitles/My-Song-") {
		t.Errorf("unexpected file URL %q", body.FileURL)
	}

	name := strings.TrimPrefix(body.FileURL, "/media/subtitles/")
	data, err := os.ReadFile(filepath.Join(mediaDir, "subtitles", name))
	if err != nil {
		t.Fatalf("exported file not on disk: %v", err)
	}
	if string(data) != body.SRT {
		t.Error("file content does not match returned SRT")
	}
}

func TestTranscribeFallback(t *testing.T) {
	app, _ := setupApp(t)

	req := multipartAudioRequest(t, "/api/transcribe", "song.mp3", "audio/mpeg", []byte("not really audio"))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body model.TranscribeResponse
	decodeBody(t, resp, &body)

	if body.Raw == "" {
		t.Error("expected a raw transcript from the fallback path")
	}
	if len(body.Cues) == 0 {
		t.Error("expected normalized cues from the fallback transcript")
	}
	for i := 1; i < len(body.Cues); i++ {
		if body.Cues[i].Start < body.Cues[i-1].Start {
			t.Errorf("cues out of order at %d: %+v", i, body.Cues)
		}
	}
}

func TestTranscribeRejectsBadContentType(t *testing.T) {
	app, _ := setupApp(t)

	req := multipartAudioRequest(t, "/api/transcribe", "notes.txt", "text/plain", []byte("hi"))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for text upload, got %d", resp.StatusCode)
	}
}

func TestUploadAudio(t *testing.T) {
	app, mediaDir := setupApp(t)

	req := multipartAudioRequest(t, "/api/upload/audio", "track.wav", "audio/wav", []byte("RIFFxxxx"))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var body model.UploadAudioResponse
	decodeBody(t, resp, &body)

	if body.TrackID == "" {
		t.Fatal("expected a track ID")
	}
	if body.DurationSeconds != 42 {
		t.Errorf("expected probed duration 42, got %v", body.DurationSeconds)
	}

	matches, _ := filepath.Glob(filepath.Join(mediaDir, "tracks", body.TrackID+"*"))
	if len(matches) != 1 {
		t.Fatalf("expected one staged file for %s, found %v", body.TrackID, matches)
	}

	// Delete removes the staged file
	delReq := httptest.NewRequest(http.MethodDelete, "/api/upload/audio/"+body.TrackID, nil)
	delReq.Header.Set("X-User-Id", "test-user")
	delResp, err := app.Test(delReq)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if delResp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", delResp.StatusCode)
	}
	matches, _ = filepath.Glob(filepath.Join(mediaDir, "tracks", body.TrackID+"*"))
	if len(matches) != 0 {
		t.Errorf("staged file still present after delete: %v", matches)
	}
}

func TestRenderStartUnknownTrack(t *testing.T) {
	app, _ := setupApp(t)

	req := model.RenderStartRequest{
		TrackID: "no-such-track",
		Cues:    []subtitle.Cue{{Text: "Hello", Start: 0, End: 2}},
	}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/render/start", req))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown track, got %d", resp.StatusCode)
	}
}

func TestCredentialsSaveAndClear(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/credentials", model.CredentialsRequest{APIKey: "test-api-key"}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 on save, got %d", resp.StatusCode)
	}

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/credentials", model.CredentialsRequest{APIKey: "short"}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for a too-short key, got %d", resp.StatusCode)
	}

	clearReq := httptest.NewRequest(http.MethodDelete, "/api/credentials", nil)
	clearReq.Header.Set("X-User-Id", "test-user")
	resp, err = app.Test(clearReq)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 on clear, got %d", resp.StatusCode)
	}
}

func multipartAudioRequest(t *testing.T, target, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-User-Id", "test-user")
	return req
}

package worker

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// Smallest valid lossy WebP (1×1). Image generation frequently hands back
// webp covers, so the worker must be able to decode them.
const tinyWebP = "UklGRiQAAABXRUJQVlA4IBgAAAAwAQCdASoBAAEAAwA0JaQAA3AA/vuUAAA="

func TestLoadCoverDecodesWebP(t *testing.T) {
	data, err := base64.StdEncoding.DecodeString(tinyWebP)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	path := filepath.Join(t.TempDir(), "cover.webp")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write cover: %v", err)
	}

	img, err := loadCover(path)
	if err != nil {
		t.Fatalf("webp cover did not decode: %v", err)
	}
	if img.Bounds().Dx() != 1 || img.Bounds().Dy() != 1 {
		t.Errorf("unexpected cover bounds %v", img.Bounds())
	}
}

func TestLoadCoverDecodesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cover.png")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create cover: %v", err)
	}
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.White)
	if err := png.Encode(f, src); err != nil {
		t.Fatalf("encode cover: %v", err)
	}
	f.Close()

	img, err := loadCover(path)
	if err != nil {
		t.Fatalf("png cover did not decode: %v", err)
	}
	if img.Bounds().Dx() != 2 {
		t.Errorf("unexpected cover bounds %v", img.Bounds())
	}
}

func TestLoadCoverEmptyPath(t *testing.T) {
	img, err := loadCover("")
	if img != nil || err != nil {
		t.Errorf("empty path should yield no cover and no error, got %v, %v", img, err)
	}
}

func TestStepForBands(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{0, "preparing"},
		{0.04, "preparing"},
		{0.2, "rendering frames"},
		{0.47, "staging audio"},
		{0.7, "encoding"},
		{0.97, "publishing"},
		{1, "done"},
	}

	for _, tc := range cases {
		if got := stepFor(tc.ratio); got != tc.want {
			t.Errorf("stepFor(%v) = %q, want %q", tc.ratio, got, tc.want)
		}
	}
}

package compositor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestRender_ProducesFrameAtTargetSize(t *testing.T) {
	c, err := New(320, 180)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := c.Render(testImage(100, 300), "hello")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a decodable JPEG: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 180 {
		t.Errorf("frame size = %v, want 320x180", img.Bounds())
	}
}

func TestRender_CachesIdenticalText(t *testing.T) {
	c, err := New(320, 180)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	base := testImage(320, 180)

	first, err := c.Render(base, "same line")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := c.Render(base, "same line")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("consecutive frames with identical text are not byte-identical")
	}
	if c.Renders() != 1 {
		t.Errorf("rasterized %d times, want 1", c.Renders())
	}
}

func TestRender_TextChangeInvalidatesCache(t *testing.T) {
	c, err := New(320, 180)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	base := testImage(320, 180)

	a, _ := c.Render(base, "A")
	b, err := c.Render(base, "B")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if c.Renders() != 2 {
		t.Errorf("rasterized %d times, want 2", c.Renders())
	}
	if bytes.Equal(a, b) {
		t.Error("frames with different text should differ")
	}
}

func TestRender_EmptyTextAndBlankCacheInteraction(t *testing.T) {
	c, err := New(320, 180)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	base := testImage(320, 180)

	blank1, err := c.Render(base, "")
	if err != nil {
		t.Fatalf("Render with empty text: %v", err)
	}
	blank2, _ := c.Render(base, "")

	if !bytes.Equal(blank1, blank2) {
		t.Error("blank frames not cached")
	}
	if c.Renders() != 1 {
		t.Errorf("rasterized %d times, want 1", c.Renders())
	}
}

func TestWrap_LongTextBreaksIntoLines(t *testing.T) {
	c, err := New(320, 180)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	long := "this is a fairly long lyric line that cannot possibly fit into a narrow frame"
	data, err := c.Render(testImage(320, 180), long)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty frame")
	}
}

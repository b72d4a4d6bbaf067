// Package compositor rasterizes single lyric-video frames: a cover-fit
// background image with the active subtitle line drawn over it.
package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	// wrapMargin is subtracted from the frame width to get the maximum
	// subtitle line width.
	wrapMargin = 100

	// bottomMargin is the gap between the lowest subtitle line and the
	// bottom frame edge.
	bottomMargin = 60

	strokeWidth = 3
	fontSize    = 48
	jpegQuality = 85
)

// Compositor renders frames at a fixed resolution. It caches the last
// rendered frame and skips rasterization entirely while the subtitle text
// stays the same, so compositing cost scales with cue transitions rather
// than frame count.
//
// A Compositor reuses one drawing surface per call and is not safe for
// concurrent use; the render pipeline drives it from a single loop.
type Compositor struct {
	width  int
	height int
	face   font.Face

	lastText  string
	lastFrame []byte
	hasFrame  bool
	renders   int
}

// New creates a Compositor for the given frame size using the embedded
// Go Regular typeface.
func New(width, height int) (*Compositor, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}

	return &Compositor{width: width, height: height, face: face}, nil
}

// Render produces one JPEG-encoded frame from the base image and subtitle
// text. Text may be empty, which renders the bare background. Consecutive
// calls with identical text return the cached bytes without re-rendering.
// The returned slice is shared with the cache and must not be modified.
func (c *Compositor) Render(base image.Image, text string) ([]byte, error) {
	if c.hasFrame && text == c.lastText {
		return c.lastFrame, nil
	}

	dc := gg.NewContext(c.width, c.height)
	c.drawCoverFit(dc, base)

	if text != "" {
		c.drawSubtitle(dc, text)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	c.renders++
	c.lastText = text
	c.lastFrame = buf.Bytes()
	c.hasFrame = true
	return c.lastFrame, nil
}

// Renders reports how many frames were actually rasterized, excluding
// cache hits.
func (c *Compositor) Renders() int {
	return c.renders
}

// drawCoverFit scales the image by max(targetW/imgW, targetH/imgH) and
// centers it, so the frame is always fully covered and excess is cropped
// evenly. No letterboxing.
func (c *Compositor) drawCoverFit(dc *gg.Context, img image.Image) {
	if img == nil {
		return
	}
	bounds := img.Bounds()
	iw, ih := float64(bounds.Dx()), float64(bounds.Dy())
	if iw == 0 || ih == 0 {
		return
	}

	scale := float64(c.width) / iw
	if s := float64(c.height) / ih; s > scale {
		scale = s
	}

	dc.Push()
	dc.Translate(float64(c.width)/2, float64(c.height)/2)
	dc.Scale(scale, scale)
	dc.DrawImageAnchored(img, 0, 0, 0.5, 0.5)
	dc.Pop()
}

// drawSubtitle wraps the text and draws it bottom-anchored: the last line
// sits just above the bottom margin and earlier lines stack upward. Each
// line gets a black outline under a white fill so it stays legible on any
// background.
func (c *Compositor) drawSubtitle(dc *gg.Context, text string) {
	dc.SetFontFace(c.face)

	maxWidth := float64(c.width - wrapMargin)
	lines := wrap(dc, text, maxWidth)

	lineHeight := dc.FontHeight() * 1.3
	cx := float64(c.width) / 2

	for i, line := range lines {
		y := float64(c.height) - bottomMargin - float64(len(lines)-1-i)*lineHeight

		dc.SetRGB(0, 0, 0)
		for dx := -strokeWidth; dx <= strokeWidth; dx++ {
			for dy := -strokeWidth; dy <= strokeWidth; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				dc.DrawStringAnchored(line, cx+float64(dx), y+float64(dy), 0.5, 1)
			}
		}

		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(line, cx, y, 0.5, 1)
	}
}

// wrap breaks text character by character against the measured line width.
// Wrapping per character rather than per word keeps CJK lyrics usable,
// where whitespace between semantic units cannot be assumed.
func wrap(dc *gg.Context, text string, maxWidth float64) []string {
	var lines []string
	line := ""

	for _, r := range text {
		candidate := line + string(r)
		if w, _ := dc.MeasureString(candidate); w > maxWidth && line != "" {
			lines = append(lines, line)
			line = string(r)
			continue
		}
		line = candidate
	}

	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

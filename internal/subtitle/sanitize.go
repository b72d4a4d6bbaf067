package subtitle

import "strings"

const (
	// maxCueSeconds is the longest span a single cue is allowed to cover.
	// Transcription models occasionally emit a runaway end timestamp that
	// stretches one line over most of the song.
	maxCueSeconds = 12

	// clampedCueSeconds replaces a runaway duration.
	clampedCueSeconds = 5

	// minCueSeconds is the floor applied to inverted or zero-length spans.
	minCueSeconds = 3
)

// Sanitize applies timing policy to parsed cues and returns the surviving
// ones in their original order. Each cue is repaired independently; no
// cross-cue overlap resolution happens here.
//
//   - spans longer than 12s are treated as hallucinated and clamped to 5s
//   - spans with end ≤ start (after clamping) get a 3s floor
//   - cues whose text trims to empty are dropped
func Sanitize(cues []Cue) []Cue {
	out := make([]Cue, 0, len(cues))
	for _, cue := range cues {
		cue.Text = strings.TrimSpace(cue.Text)
		if cue.Text == "" {
			continue
		}
		if cue.End-cue.Start > maxCueSeconds {
			cue.End = cue.Start + clampedCueSeconds
		}
		if cue.End <= cue.Start {
			cue.End = cue.Start + minCueSeconds
		}
		out = append(out, cue)
	}
	return out
}

package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseTimestamp converts an SRT-style timestamp into seconds. It accepts
// any mix of ':', ',' and '.' as field separators.
//
// Field-count policy:
//   - 4 fields are read as HH:MM:SS:ms.
//   - 3 fields are read as MM:SS:ms — never HH:MM:SS. Transcripts produced
//     for a single song are never hour-scale, and AI output that drops the
//     hour field ("03:12,500") is far more common than an hour-long cue.
//     Reading 3 fields as HH:MM:SS would silently inflate every such
//     timestamp by a factor of 60. Keep this heuristic when touching this
//     code; it is intentional and not an SRT standard.
//
// A field that fails to parse as an integer counts as 0, so a single
// garbled field never rejects the whole timestamp. Only a field count
// outside 3..4 reports failure. Milliseconds are taken at face value
// regardless of digit width: "0:48:5" means 5ms, not 500ms. Upstream
// transcripts depend on that quirk.
func ParseTimestamp(s string) (float64, bool) {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ':' || r == ',' || r == '.'
	})

	num := func(i int) float64 {
		n, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return 0
		}
		return float64(n)
	}

	switch len(fields) {
	case 4:
		return num(0)*3600 + num(1)*60 + num(2) + num(3)/1000, true
	case 3:
		return num(0)*60 + num(1) + num(2)/1000, true
	default:
		return 0, false
	}
}

// FormatTimestamp renders seconds in the canonical SRT form HH:MM:SS,mmm
// with zero-padded fields. Hours, minutes and seconds are floor-truncated;
// milliseconds are the floored sub-second remainder.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}

	whole := math.Floor(seconds)
	// The tiny guard keeps values that sit exactly on a millisecond
	// boundary from flooring one ms low due to float representation.
	ms := int(math.Floor((seconds-whole)*1000 + 1e-6))

	total := int(whole)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60

	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, sec, ms)
}

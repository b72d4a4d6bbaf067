package subtitle

import (
	"fmt"
	"strings"
)

// FormatSRT renders cues as a standard SRT document: index line, range
// line, text, blank separator. Indices are assigned 1..N from slice order.
func FormatSRT(cues []Cue) string {
	if len(cues) == 0 {
		return ""
	}
	var b strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cue.Text)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// ActiveCue returns the text of the first cue covering t (start ≤ t < end),
// or "" when no cue is active. Cues are expected in parse order, ascending
// by start time.
func ActiveCue(cues []Cue, t float64) string {
	for _, cue := range cues {
		if t >= cue.Start && t < cue.End {
			return cue.Text
		}
	}
	return ""
}

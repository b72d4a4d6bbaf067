package subtitle

import (
	"regexp"
	"strings"
)

// Cue is one subtitle interval and its display text. Start and End are
// seconds from the beginning of the track.
type Cue struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Diagnostic records a block the parser skipped. Diagnostics are
// informational only; callers are free to discard them.
type Diagnostic struct {
	Line    int    `json:"line"`
	Input   string `json:"input"`
	Message string `json:"message"`
}

// rangeLine matches "<timestamp> --> <timestamp>" with optional text after
// the second timestamp on the same line. Each timestamp is 2–4 numeric
// fields joined by ':', ',' or '.'; whether a match actually decodes is up
// to ParseTimestamp.
var rangeLine = regexp.MustCompile(`^(\d+(?:[:,.]\d+){1,3})\s*-->\s*(\d+(?:[:,.]\d+){1,3})\s*(.*)$`)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// Parse scans a raw timed-text blob into cues. The input is handled
// permissively: index numbers are optional, timestamp separators may be
// mixed, and cue text may sit on the range line itself or on following
// lines. Malformed blocks are skipped and reported as diagnostics; the scan
// never aborts. Empty or whitespace-only input yields no cues and no error.
//
// The scan is forward-only and single-pass. Index numbers are consumed but
// never stored; output cues are renumbered by whoever formats them.
func Parse(raw string) ([]Cue, []Diagnostic) {
	var cues []Cue
	var diags []Diagnostic

	lines := splitLines(raw)

	for i := 0; i < len(lines); i++ {
		m := rangeLine.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}

		start, okStart := ParseTimestamp(m[1])
		end, okEnd := ParseTimestamp(m[2])
		if !okStart || !okEnd {
			diags = append(diags, Diagnostic{
				Line:    i + 1,
				Input:   lines[i],
				Message: "unparseable timestamp range",
			})
			continue
		}

		text := strings.TrimSpace(m[3])
		if text == "" {
			// Collect follow-on lines until the next block begins: either a
			// range line, or a digits-only index line directly in front of
			// a range line.
			var parts []string
			for i+1 < len(lines) {
				next := lines[i+1]
				if rangeLine.MatchString(next) {
					break
				}
				if digitsOnly.MatchString(next) && i+2 < len(lines) && rangeLine.MatchString(lines[i+2]) {
					break
				}
				parts = append(parts, next)
				i++
			}
			text = strings.Join(parts, " ")
		}

		if text == "" {
			diags = append(diags, Diagnostic{
				Line:    i + 1,
				Input:   lines[i],
				Message: "cue has no text",
			})
			continue
		}

		cues = append(cues, Cue{Text: text, Start: start, End: end})
	}

	return cues, diags
}

// splitLines normalizes platform line breaks and drops empty lines.
func splitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

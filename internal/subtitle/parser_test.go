package subtitle

import "testing"

func TestParse_StandardBlocks(t *testing.T) {
	raw := `1
00:00:00,000 --> 00:00:04,500
First line

2
00:00:04,500 --> 00:00:08,000
Second line
continued here
`

	cues, diags := Parse(raw)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}

	if cues[0].Text != "First line" || cues[0].Start != 0 || cues[0].End != 4.5 {
		t.Errorf("cue 0 = %+v", cues[0])
	}
	if cues[1].Text != "Second line continued here" {
		t.Errorf("multi-line text not joined with space: %q", cues[1].Text)
	}
	if cues[1].Start != 4.5 || cues[1].End != 8 {
		t.Errorf("cue 1 timing = %v..%v", cues[1].Start, cues[1].End)
	}
}

func TestParse_InlineText(t *testing.T) {
	raw := "00:00:01,000 --> 00:00:03,000 hello from the same line"

	cues, _ := Parse(raw)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].Text != "hello from the same line" {
		t.Errorf("inline text = %q", cues[0].Text)
	}
}

func TestParse_MixedSeparatorsAndMissingIndex(t *testing.T) {
	raw := `00:00:01.000 --> 00:00:03.000
dot separators

0:05:250 --> 0:07:900
three-field timestamps
`

	cues, diags := Parse(raw)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	// Three fields decode as MM:SS:ms.
	if cues[1].Start != 5.25 || cues[1].End != 7.9 {
		t.Errorf("three-field cue timing = %v..%v", cues[1].Start, cues[1].End)
	}
}

func TestParse_IndexLineNotSwallowedAsText(t *testing.T) {
	raw := `00:00:01,000 --> 00:00:03,000
some words
2
00:00:03,000 --> 00:00:05,000
more words
`

	cues, _ := Parse(raw)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Text != "some words" {
		t.Errorf("next block's index leaked into text: %q", cues[0].Text)
	}
	if cues[1].Text != "more words" {
		t.Errorf("cue 1 text = %q", cues[1].Text)
	}
}

func TestParse_NumericTextLineKept(t *testing.T) {
	// A digits-only line counts as text unless a range line follows it.
	raw := `00:00:01,000 --> 00:00:03,000
867
5309
`

	cues, _ := Parse(raw)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].Text != "867 5309" {
		t.Errorf("numeric text = %q", cues[0].Text)
	}
}

func TestParse_SkipsBadBlockAndContinues(t *testing.T) {
	raw := `1
00:01 --> 00:00:03,000
unreachable text

2
00:00:03,000 --> 00:00:05,000
good cue
`

	cues, diags := Parse(raw)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue after skipping bad block, got %d", len(cues))
	}
	if cues[0].Text != "good cue" {
		t.Errorf("surviving cue = %+v", cues[0])
	}
	if len(diags) == 0 {
		t.Error("expected a diagnostic for the skipped block")
	}
}

func TestParse_EmptyTextBlockDropped(t *testing.T) {
	raw := `1
00:00:01,000 --> 00:00:03,000

2
00:00:03,000 --> 00:00:05,000
still here
`

	cues, _ := Parse(raw)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].Text != "still here" {
		t.Errorf("cue = %+v", cues[0])
	}
}

func TestParse_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\r\n\r\n", "no timestamps anywhere"} {
		cues, _ := Parse(raw)
		if len(cues) != 0 {
			t.Errorf("Parse(%q) = %d cues, want 0", raw, len(cues))
		}
	}
}

func TestParse_WindowsLineBreaks(t *testing.T) {
	raw := "1\r\n00:00:01,000 --> 00:00:03,000\r\ncrlf text\r\n"

	cues, _ := Parse(raw)
	if len(cues) != 1 || cues[0].Text != "crlf text" {
		t.Fatalf("cues = %+v", cues)
	}
}

package subtitle

import "testing"

func TestSanitize_ClampsRunawayDuration(t *testing.T) {
	cues := Sanitize([]Cue{{Text: "a", Start: 10, End: 9999}})
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].Start != 10 || cues[0].End != 15 {
		t.Errorf("got %v..%v, want 10..15", cues[0].Start, cues[0].End)
	}
}

func TestSanitize_FixesInvertedSpan(t *testing.T) {
	cues := Sanitize([]Cue{{Text: "a", Start: 20, End: 18}})
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].Start != 20 || cues[0].End != 23 {
		t.Errorf("got %v..%v, want 20..23", cues[0].Start, cues[0].End)
	}
}

func TestSanitize_ZeroLengthSpan(t *testing.T) {
	cues := Sanitize([]Cue{{Text: "a", Start: 7, End: 7}})
	if cues[0].End != 10 {
		t.Errorf("end = %v, want 10", cues[0].End)
	}
}

func TestSanitize_DropsEmptyText(t *testing.T) {
	cues := Sanitize([]Cue{
		{Text: "keep", Start: 0, End: 2},
		{Text: "   ", Start: 2, End: 4},
		{Text: "also keep", Start: 4, End: 6},
	})
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Text != "keep" || cues[1].Text != "also keep" {
		t.Errorf("cues = %+v", cues)
	}
}

func TestSanitize_ExactThresholdUntouched(t *testing.T) {
	// 12s exactly is allowed; the clamp fires only above the threshold.
	cues := Sanitize([]Cue{{Text: "a", Start: 0, End: 12}})
	if cues[0].End != 12 {
		t.Errorf("end = %v, want 12", cues[0].End)
	}
}

func TestSanitize_PreservesOrder(t *testing.T) {
	in := []Cue{
		{Text: "one", Start: 0, End: 2},
		{Text: "two", Start: 2, End: 4},
		{Text: "three", Start: 4, End: 6},
	}
	out := Sanitize(in)
	for i, want := range []string{"one", "two", "three"} {
		if out[i].Text != want {
			t.Fatalf("order changed: %+v", out)
		}
	}
}

package subtitle

import "testing"

func TestFormatSRT(t *testing.T) {
	cues := []Cue{
		{Text: "Hello", Start: 0, End: 4.5},
		{Text: "World", Start: 4.5, End: 8},
	}

	want := `1
00:00:00,000 --> 00:00:04,500
Hello

2
00:00:04,500 --> 00:00:08,000
World
`

	if got := FormatSRT(cues); got != want {
		t.Errorf("FormatSRT mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatSRT_Empty(t *testing.T) {
	if got := FormatSRT(nil); got != "" {
		t.Errorf("FormatSRT(nil) = %q, want empty", got)
	}
}

func TestActiveCue(t *testing.T) {
	cues := []Cue{
		{Text: "A", Start: 0, End: 5},
		{Text: "B", Start: 5, End: 10},
	}

	cases := []struct {
		t    float64
		want string
	}{
		{0, "A"},
		{4.999, "A"},
		{5, "B"}, // boundary belongs to the next cue
		{9.99, "B"},
		{10, ""},
		{42, ""},
	}

	for _, c := range cases {
		if got := ActiveCue(cues, c.t); got != c.want {
			t.Errorf("ActiveCue(%v) = %q, want %q", c.t, got, c.want)
		}
	}
}

func TestActiveCue_NoCues(t *testing.T) {
	if got := ActiveCue(nil, 3); got != "" {
		t.Errorf("ActiveCue(nil) = %q, want empty", got)
	}
}

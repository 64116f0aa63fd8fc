package instrument

import "testing"

func TestLaneCount(t *testing.T) {
	cases := []struct {
		model string
		want  int
	}{
		{"HiSeq4000", 8},
		{"HiSeq2500", 2},
		{"NovaSeq", 4},
		{"MiSeq", 1},
		{"UnknownBox", 1},
	}
	for _, c := range cases {
		if got := LaneCount(c.model); got != c.want {
			t.Fatalf("LaneCount(%q) = %d, want %d", c.model, got, c.want)
		}
	}
}

func TestNeedsI5ReverseComplement(t *testing.T) {
	for _, model := range []string{"HiSeq4000", "HiSeq3000", "NextSeq", "MiniSeq"} {
		if !NeedsI5ReverseComplement(model) {
			t.Fatalf("%s should reverse-complement i5", model)
		}
	}
	for _, model := range []string{"MiSeq", "HiSeq2500", "NovaSeq"} {
		if NeedsI5ReverseComplement(model) {
			t.Fatalf("%s should not reverse-complement i5", model)
		}
	}
}

func TestReverseComplement(t *testing.T) {
	if got := ReverseComplement("ACGT"); got != "ACGT" {
		t.Fatalf("ACGT = %q", got)
	}
	if got := ReverseComplement("AACC"); got != "GGTT" {
		t.Fatalf("AACC = %q", got)
	}
	if got := ReverseComplement("AXT"); got != "ANT" {
		t.Fatalf("unknown base = %q, want ANT", got)
	}
}

func TestScrubSampleName(t *testing.T) {
	if got := ScrubSampleName("sample 1/a"); got != "sample_1_a" {
		t.Fatalf("scrub = %q", got)
	}
	if got := ScrubSampleName("ok-name_2"); got != "ok-name_2" {
		t.Fatalf("clean name changed to %q", got)
	}
}

package command

import (
	"math"
	"testing"
)

func TestSimilarity_Identity(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"a", "scroll down", "päge", "go to example.org"} {
		if got := Similarity(s, s); got != 1.0 {
			t.Errorf("Similarity(%q, %q) = %v, want 1.0", s, s, got)
		}
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"scroll down", "scroll doen"},
		{"kitten", "sitting"},
		{"", "abc"},
		{"go to", "goto"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if math.Abs(ab-ba) > 1e-12 {
			t.Errorf("Similarity(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarity_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "empty vs non-empty", a: "hello", b: "", want: 0.0},
		{name: "disjoint", a: "abc", b: "xyz", want: 0.0},
		{name: "one substitution in eleven runes", a: "scroll down", b: "scroll doen", want: 10.0 / 11.0},
		{name: "kitten sitting", a: "kitten", b: "sitting", want: (7.0 - 3.0) / 7.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_TypoAboveThreshold(t *testing.T) {
	t.Parallel()

	// A single-character typo in an eleven-character phrase must clear both
	// the 0.8 noise bar and the accept threshold.
	got := Similarity("scroll doen", "scroll down")
	if got <= 0.8 {
		t.Errorf("Similarity(scroll doen, scroll down) = %v, want > 0.8", got)
	}
	if got <= DefaultAcceptThreshold {
		t.Errorf("score %v does not clear the accept threshold %v", got, DefaultAcceptThreshold)
	}
}

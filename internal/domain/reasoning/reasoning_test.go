package reasoning

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func TestIsCapable(t *testing.T) {
	capable := []string{"o1", "o3", "o3-mini", "o4-mini", "gpt-5", "gpt-5-mini", "gpt-5.2", "gpt-4.1", "gpt-4.1-mini"}
	for _, m := range capable {
		if !IsCapable(m) {
			t.Fatalf("%s should be reasoning-capable", m)
		}
	}

	incapable := []string{"gpt-4", "gpt-4o", "gpt-4-turbo", "claude-3.5-sonnet", "custom-model"}
	for _, m := range incapable {
		if IsCapable(m) {
			t.Fatalf("%s should not be reasoning-capable", m)
		}
	}
}

func TestMultiplier(t *testing.T) {
	tests := []struct {
		model  string
		effort string
		want   float64
	}{
		{"o3", EffortNone, 0},
		{"gpt-5", EffortMinimal, 0.5},
		{"o3", EffortMinimal, 1.5}, // minimal is gpt-5 only
		{"o3", EffortLow, 1.5},
		{"o3", EffortMedium, 3},
		{"o3", "", 3}, // default
		{"o3", "bogus", 3},
		{"o3", EffortHigh, 6},
		{"gpt-5.2", EffortXHigh, 10},
		{"gpt-5.1", EffortXHigh, 6}, // xhigh is gpt-5.2 only
	}
	for _, tt := range tests {
		if got := Multiplier(tt.model, tt.effort); got != tt.want {
			t.Fatalf("Multiplier(%q, %q) = %v, want %v", tt.model, tt.effort, got, tt.want)
		}
	}
}

func TestTokensFor(t *testing.T) {
	if got := TokensFor("o3", EffortMedium, 100); got != 300 {
		t.Fatalf("o3 medium reasoning tokens = %d, want 300", got)
	}
	if got := TokensFor("gpt-4o", EffortHigh, 100); got != 0 {
		t.Fatalf("non-capable model produced %d reasoning tokens", got)
	}
	if got := TokensFor("gpt-5", EffortNone, 100); got != 0 {
		t.Fatalf("effort none produced %d reasoning tokens", got)
	}
}

func TestSummaryWords(t *testing.T) {
	tests := []struct {
		verbosity string
		tokens    int
		want      int
	}{
		{"concise", 1000, 50},
		{"concise", 10, 8}, // floor
		{"auto", 1000, 100},
		{"auto", 10, 10},
		{"detailed", 1000, 150},
		{"detailed", 10, 15},
	}
	for _, tt := range tests {
		if got := SummaryWords(tt.verbosity, tt.tokens); got != tt.want {
			t.Fatalf("SummaryWords(%q, %d) = %d, want %d", tt.verbosity, tt.tokens, got, tt.want)
		}
	}
}

func TestSummaryShape(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	for _, target := range []int{1, 8, 40, 150} {
		text := Summary(rng, target)
		if got := len(strings.Fields(text)); got != target {
			t.Fatalf("summary target %d produced %d words: %q", target, got, text)
		}
		if !strings.HasSuffix(text, ".") {
			t.Fatalf("summary not period-terminated: %q", text)
		}
		first := text[0]
		if first < 'A' || first > 'Z' {
			t.Fatalf("summary not capitalized: %q", text)
		}
	}
}

func TestSummaryDeterministic(t *testing.T) {
	a := Summary(rand.New(rand.NewPCG(11, 0)), 30)
	b := Summary(rand.New(rand.NewPCG(11, 0)), 30)
	if a != b {
		t.Fatal("same seed produced different summaries")
	}
}

package generator

import (
	"math/rand/v2"
	"strings"
	"testing"
)

// wordCodec treats each whitespace-separated word as one token.
type wordCodec struct{}

func (wordCodec) Count(text string) int {
	return len(strings.Fields(text))
}

func (wordCodec) Truncate(text string, maxTokens int) string {
	fields := strings.Fields(text)
	if len(fields) <= maxTokens {
		return text
	}
	return strings.Join(fields[:maxTokens], " ")
}

func newRng() *rand.Rand {
	return rand.New(rand.NewPCG(42, 0))
}

func TestFactory(t *testing.T) {
	tests := []struct {
		spec string
		name string
	}{
		{"lorem", "lorem"},
		{"", "lorem"},
		{"echo", "echo"},
		{"random", "random"},
		{"sequence", "sequence"},
		{"fixed:hello world", "fixed"},
	}
	for _, tt := range tests {
		g, err := New(tt.spec, wordCodec{})
		if err != nil {
			t.Fatalf("New(%q): %v", tt.spec, err)
		}
		if g.Name() != tt.name {
			t.Fatalf("New(%q).Name() = %q, want %q", tt.spec, g.Name(), tt.name)
		}
	}

	if _, err := New("markov", wordCodec{}); err == nil {
		t.Fatal("expected error for unknown generator spec")
	}
}

func TestLoremHitsTarget(t *testing.T) {
	g, _ := New("lorem", wordCodec{})
	for _, target := range []int{1, 5, 50, 200} {
		text := g.Generate(newRng(), nil, target)
		got := (wordCodec{}).Count(text)
		if got < target-1 || got > target+1 {
			t.Fatalf("lorem target %d produced %d tokens: %q", target, got, text)
		}
		if !strings.HasSuffix(text, ".") {
			t.Fatalf("lorem output not period-terminated: %q", text)
		}
	}
}

func TestRandomHitsTarget(t *testing.T) {
	g, _ := New("random", wordCodec{})
	for _, target := range []int{3, 30, 120} {
		text := g.Generate(newRng(), nil, target)
		got := (wordCodec{}).Count(text)
		if got < target-1 || got > target+1 {
			t.Fatalf("random target %d produced %d tokens", target, got)
		}
	}
}

func TestEcho(t *testing.T) {
	g, _ := New("echo", wordCodec{})
	msgs := []Message{
		{Role: "system", Content: "you are concise"},
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "an answer"},
		{Role: "user", Content: "second question"},
	}
	text := g.Generate(newRng(), msgs, 100)
	if text != "Echo: second question" {
		t.Fatalf("echo = %q", text)
	}

	// Truncated to the target when the message is longer.
	long := []Message{{Role: "user", Content: "a b c d e f g h"}}
	text = g.Generate(newRng(), long, 3)
	if got := (wordCodec{}).Count(text); got != 3 {
		t.Fatalf("truncated echo has %d tokens: %q", got, text)
	}

	// No user message at all.
	text = g.Generate(newRng(), []Message{{Role: "system", Content: "x"}}, 10)
	if text != "Echo: (no user message found)" {
		t.Fatalf("echo fallback = %q", text)
	}
}

func TestFixedIgnoresTarget(t *testing.T) {
	g, _ := New("fixed:The quick brown fox.", wordCodec{})
	for _, target := range []int{1, 100} {
		if got := g.Generate(newRng(), nil, target); got != "The quick brown fox." {
			t.Fatalf("fixed output = %q", got)
		}
	}
}

func TestSequenceExactCount(t *testing.T) {
	g, _ := New("sequence", wordCodec{})
	text := g.Generate(newRng(), nil, 5)
	if text != "token_0 token_1 token_2 token_3 token_4" {
		t.Fatalf("sequence = %q", text)
	}

	// Target below one still yields a single token.
	if got := g.Generate(newRng(), nil, 0); got != "token_0" {
		t.Fatalf("sequence(0) = %q", got)
	}
}

func TestSeededGenerationIsDeterministic(t *testing.T) {
	g, _ := New("random", wordCodec{})
	a := g.Generate(rand.New(rand.NewPCG(9, 9)), nil, 40)
	b := g.Generate(rand.New(rand.NewPCG(9, 9)), nil, 40)
	if a != b {
		t.Fatal("same seed produced different output")
	}
}

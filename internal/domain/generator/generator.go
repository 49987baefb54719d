// Package generator produces synthetic completion text. Generators are
// deterministic given an RNG and a token codec, so seeded runs replay
// identical completions.
package generator

import (
	"fmt"
	"math/rand/v2"
	"strings"

	apperrors "github.com/llmsim/llmsim/pkg/errors"
)

// Message is the minimal view of a conversation message a generator needs.
type Message struct {
	Role    string
	Content string
}

// TokenCodec counts and truncates text in model tokens. Implemented by the
// tokenizer infrastructure; injected here so the domain stays free of the
// BPE dependency.
type TokenCodec interface {
	Count(text string) int
	Truncate(text string, maxTokens int) string
}

// Generator produces completion text aimed at a target token count.
// Lorem and random land within ±1 token of the target; echo and fixed
// treat it as a ceiling or ignore it.
type Generator interface {
	Name() string
	Generate(rng *rand.Rand, messages []Message, targetTokens int) string
}

// New builds a generator from its config spec: lorem, echo, random,
// sequence, or fixed:TEXT.
func New(spec string, codec TokenCodec) (Generator, error) {
	if text, ok := strings.CutPrefix(spec, "fixed:"); ok {
		return &fixedGenerator{text: text}, nil
	}
	switch spec {
	case "", "lorem":
		return &loremGenerator{codec: codec}, nil
	case "echo":
		return &echoGenerator{codec: codec}, nil
	case "random":
		return &randomGenerator{codec: codec}, nil
	case "sequence":
		return &sequenceGenerator{}, nil
	}
	return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown generator %q", spec))
}

// ValidSpec reports whether spec names a known generator. Lets config
// validation reject typos before the first request hits the factory.
func ValidSpec(spec string) bool {
	if strings.HasPrefix(spec, "fixed:") {
		return true
	}
	switch spec {
	case "", "lorem", "echo", "random", "sequence":
		return true
	}
	return false
}

// lastUserContent returns the content of the most recent user message.
func lastUserContent(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content, true
		}
	}
	return "", false
}

// fitToTarget appends words from next() until the codec counts at least
// targetTokens, then truncates back to exactly the target.
func fitToTarget(codec TokenCodec, targetTokens int, next func() string) string {
	if targetTokens < 1 {
		targetTokens = 1
	}
	var b strings.Builder
	words := 0
	for {
		if words > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(next())
		words++
		// Counting every word is wasteful for large targets; words are
		// roughly one token each, so only start checking near the target.
		if words >= targetTokens && codec.Count(b.String()) >= targetTokens {
			break
		}
	}
	return codec.Truncate(b.String(), targetTokens)
}

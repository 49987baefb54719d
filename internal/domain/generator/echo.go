package generator

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const echoFallback = "Echo: (no user message found)"

// echoGenerator repeats the last user message back, truncated to the
// target token count.
type echoGenerator struct {
	codec TokenCodec
}

func (g *echoGenerator) Name() string { return "echo" }

func (g *echoGenerator) Generate(_ *rand.Rand, messages []Message, targetTokens int) string {
	content, ok := lastUserContent(messages)
	if !ok {
		return echoFallback
	}
	text := "Echo: " + content
	if targetTokens > 0 && g.codec.Count(text) > targetTokens {
		text = g.codec.Truncate(text, targetTokens)
	}
	return text
}

// fixedGenerator returns the configured text verbatim, ignoring the target.
type fixedGenerator struct {
	text string
}

func (g *fixedGenerator) Name() string { return "fixed" }

func (g *fixedGenerator) Generate(_ *rand.Rand, _ []Message, _ int) string {
	return g.text
}

// sequenceGenerator emits exactly targetTokens numbered tokens. Useful for
// asserting token-count behavior in load tests.
type sequenceGenerator struct{}

func (g *sequenceGenerator) Name() string { return "sequence" }

func (g *sequenceGenerator) Generate(_ *rand.Rand, _ []Message, targetTokens int) string {
	if targetTokens < 1 {
		targetTokens = 1
	}
	var b strings.Builder
	for i := 0; i < targetTokens; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "token_%d", i)
	}
	return b.String()
}

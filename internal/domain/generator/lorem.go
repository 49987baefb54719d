package generator

import (
	"math/rand/v2"
	"strings"
)

var loremWords = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing",
	"elit", "sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore",
	"et", "dolore", "magna", "aliqua", "enim", "ad", "minim", "veniam",
	"quis", "nostrud", "exercitation", "ullamco", "laboris", "nisi",
	"aliquip", "ex", "ea", "commodo", "consequat", "duis", "aute", "irure",
	"in", "reprehenderit", "voluptate", "velit", "esse", "cillum", "fugiat",
	"nulla", "pariatur", "excepteur", "sint", "occaecat", "cupidatat",
	"non", "proident", "sunt", "culpa", "qui", "officia", "deserunt",
	"mollit", "anim", "id", "est", "laborum",
}

// loremGenerator emits lorem ipsum prose: sentence-cased, a period every
// ten words, always period-terminated.
type loremGenerator struct {
	codec TokenCodec
}

func (g *loremGenerator) Name() string { return "lorem" }

func (g *loremGenerator) Generate(rng *rand.Rand, _ []Message, targetTokens int) string {
	count := 0
	newSentence := true
	text := fitToTarget(g.codec, targetTokens, func() string {
		w := loremWords[rng.IntN(len(loremWords))]
		if newSentence {
			w = capitalize(w)
			newSentence = false
		}
		count++
		if count%10 == 0 {
			w += "."
			newSentence = true
		}
		return w
	})
	return terminate(text)
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

// terminate strips dangling punctuation left by token truncation and
// ensures the text ends with a period.
func terminate(text string) string {
	text = strings.TrimRight(text, " ,")
	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
		text += "."
	}
	return text
}

package generator

import "math/rand/v2"

var commonWords = []string{
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "I",
	"it", "for", "not", "on", "with", "he", "as", "you", "do", "at",
	"this", "but", "his", "by", "from", "they", "we", "say", "her", "she",
	"or", "an", "will", "my", "one", "all", "would", "there", "their",
	"what", "so", "up", "out", "if", "about", "who", "get", "which", "go",
	"me", "when", "make", "can", "like", "time", "no", "just", "him",
	"know", "take", "people", "into", "year", "your", "good", "some",
	"could", "them", "see", "other", "than", "then", "now", "look", "only",
	"come", "its", "over", "think", "also", "back", "after", "use", "two",
	"how", "our", "work", "first", "well", "way", "even", "new", "want",
	"because", "any", "these", "give", "day", "most", "us",
}

var sentenceEnders = []string{".", "!", "?"}

// randomGenerator emits common English words with punctuation at random
// intervals of 8 to 15 words.
type randomGenerator struct {
	codec TokenCodec
}

func (g *randomGenerator) Name() string { return "random" }

func (g *randomGenerator) Generate(rng *rand.Rand, _ []Message, targetTokens int) string {
	count := 0
	nextStop := 8 + rng.IntN(8)
	newSentence := true
	text := fitToTarget(g.codec, targetTokens, func() string {
		w := commonWords[rng.IntN(len(commonWords))]
		if newSentence {
			w = capitalize(w)
			newSentence = false
		}
		count++
		if count == nextStop {
			w += sentenceEnders[rng.IntN(len(sentenceEnders))]
			nextStop = count + 8 + rng.IntN(8)
			newSentence = true
		}
		return w
	})
	return terminate(text)
}

// Package reasoning simulates the hidden chain-of-thought budget of
// reasoning-capable models and produces plausible summary text for the
// Responses API.
package reasoning

import (
	"math/rand/v2"
	"strings"
)

// Effort levels accepted in the reasoning.effort request field.
const (
	EffortNone    = "none"
	EffortMinimal = "minimal"
	EffortLow     = "low"
	EffortMedium  = "medium"
	EffortHigh    = "high"
	EffortXHigh   = "xhigh"
)

// IsCapable reports whether a model simulates reasoning: the o-series,
// the gpt-5 family, and gpt-4.1.
func IsCapable(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5", "gpt-4.1"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// Multiplier maps an effort level to the ratio of reasoning tokens over
// completion tokens. Unknown and empty efforts get the medium default.
// Minimal is only honored on the gpt-5 family and xhigh only on gpt-5.2;
// elsewhere they degrade to low and high respectively.
func Multiplier(model, effort string) float64 {
	switch effort {
	case EffortNone:
		return 0
	case EffortMinimal:
		if strings.HasPrefix(model, "gpt-5") {
			return 0.5
		}
		return 1.5
	case EffortLow:
		return 1.5
	case EffortHigh:
		return 6
	case EffortXHigh:
		if strings.HasPrefix(model, "gpt-5.2") {
			return 10
		}
		return 6
	default:
		return 3
	}
}

// TokensFor computes the simulated reasoning token count for a request.
// Non-capable models never reason, whatever the request asks for.
func TokensFor(model, effort string, completionTokens int) int {
	if !IsCapable(model) {
		return 0
	}
	return int(float64(completionTokens) * Multiplier(model, effort))
}

var phrases = []string{
	"the model considered",
	"analyzing the input",
	"evaluating possible approaches",
	"breaking down the problem",
	"considering multiple perspectives",
	"reviewing relevant context",
	"weighing the alternatives",
	"synthesizing information",
	"formulating a response",
	"assessing the requirements",
	"identifying key factors",
	"examining the constraints",
	"reasoning through the steps",
	"determining the best approach",
	"processing the query",
}

var fillers = []string{
	"and", "then", "next", "also", "before", "after", "while", "during",
	"through", "carefully", "thoroughly", "systematically", "logically",
	"methodically",
}

// SummaryWords returns the word budget for a reasoning summary at the
// given verbosity (concise, auto, detailed).
func SummaryWords(verbosity string, reasoningTokens int) int {
	switch verbosity {
	case "concise":
		return max(8, reasoningTokens/20)
	case "detailed":
		return max(15, reasoningTokens*15/100)
	default: // auto
		return max(10, reasoningTokens/10)
	}
}

// Summary generates reasoning summary text of roughly targetWords words.
func Summary(rng *rand.Rand, targetWords int) string {
	if targetWords < 1 {
		targetWords = 1
	}

	words := strings.Fields(phrases[rng.IntN(len(phrases))])
	for len(words) < targetWords {
		// A filler word every fifth position keeps the phrases from
		// reading like a bare list.
		if len(words)%5 == 0 && targetWords-len(words) >= 3 {
			words = append(words, fillers[rng.IntN(len(fillers))])
		}
		words = append(words, strings.Fields(phrases[rng.IntN(len(phrases))])...)
	}
	words = words[:targetWords]

	text := strings.Join(words, " ")
	return capitalizeFirst(text) + "."
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

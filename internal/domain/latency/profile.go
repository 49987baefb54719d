// Package latency models per-token timing of LLM providers.
//
// A Profile holds the mean/stddev of time-to-first-token (TTFT) and
// time-between-tokens (TBT) in milliseconds. Samples are drawn from a
// normal distribution and clamped at zero.
package latency

import (
	"math/rand/v2"
	"strings"
	"time"
)

// Profile describes the latency characteristics of a simulated model.
// All values are in milliseconds.
type Profile struct {
	TTFTMean float64
	TTFTStd  float64
	TBTMean  float64
	TBTStd   float64
}

// modelProfiles maps model prefixes to latency profiles. Order matters:
// longer prefixes come first so gpt-5-mini wins over gpt-5.
var modelProfiles = []struct {
	prefix  string
	profile Profile
}{
	{"gpt-5-mini", Profile{300, 75, 20, 6}},
	{"gpt-5", Profile{600, 150, 40, 12}},
	{"gpt-4o", Profile{400, 100, 25, 8}},
	{"gpt-4", Profile{800, 200, 50, 15}},
	{"o1", Profile{2000, 500, 30, 10}},
	{"o3", Profile{2000, 500, 30, 10}},
	{"o4", Profile{2000, 500, 30, 10}},
	{"claude-opus", Profile{1000, 250, 60, 18}},
	{"claude-sonnet", Profile{500, 125, 30, 10}},
	{"claude-haiku", Profile{200, 50, 15, 5}},
}

// namedProfiles are the profiles selectable by name in config, including
// synthetic ones with no model counterpart.
var namedProfiles = map[string]Profile{
	"gpt-5-mini":    {300, 75, 20, 6},
	"gpt-5":         {600, 150, 40, 12},
	"gpt-4o":        {400, 100, 25, 8},
	"gpt-4":         {800, 200, 50, 15},
	"o1":            {2000, 500, 30, 10},
	"o3":            {2000, 500, 30, 10},
	"o4":            {2000, 500, 30, 10},
	"claude-opus":   {1000, 250, 60, 18},
	"claude-sonnet": {500, 125, 30, 10},
	"claude-haiku":  {200, 50, 15, 5},
	"instant":       {0, 0, 0, 0},
	"fast":          {10, 2, 1, 1},
}

// ForModel returns the latency profile for a model ID by prefix match.
// Unknown models fall back to the gpt-4 profile.
func ForModel(model string) Profile {
	for _, mp := range modelProfiles {
		if strings.HasPrefix(model, mp.prefix) {
			return mp.profile
		}
	}
	return namedProfiles["gpt-4"]
}

// ByName looks up a profile by its config name.
func ByName(name string) (Profile, bool) {
	p, ok := namedProfiles[name]
	return p, ok
}

// Instant is the zero-latency profile used in tests and benchmarks.
func Instant() Profile {
	return namedProfiles["instant"]
}

// SampleTTFT draws a time-to-first-token delay.
func (p Profile) SampleTTFT(rng *rand.Rand) time.Duration {
	return sample(rng, p.TTFTMean, p.TTFTStd)
}

// SampleTBT draws an inter-token delay.
func (p Profile) SampleTBT(rng *rand.Rand) time.Duration {
	return sample(rng, p.TBTMean, p.TBTStd)
}

func sample(rng *rand.Rand, mean, std float64) time.Duration {
	if mean == 0 && std == 0 {
		return 0
	}
	ms := rng.NormFloat64()*std + mean
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}

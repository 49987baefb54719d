// Package stream paces token emission for SSE responses: a TTFT delay
// before the first token, a TBT delay between subsequent ones, with the
// sleeps interruptible by client disconnect or an armed timeout fuse.
package stream

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/llmsim/llmsim/internal/domain/latency"
)

// Result tells the caller what ended a pacing sleep.
type Result int

const (
	// Continue means the delay elapsed; emit the next token.
	Continue Result = iota
	// Disconnected means the client went away mid-stream.
	Disconnected
	// TimedOut means the injected timeout fuse fired.
	TimedOut
)

// Pacer drives the timing of one streamed response. Not safe for
// concurrent use; each request gets its own.
type Pacer struct {
	profile  latency.Profile
	rng      *rand.Rand
	deadline <-chan time.Time
}

func NewPacer(profile latency.Profile, rng *rand.Rand) *Pacer {
	return &Pacer{profile: profile, rng: rng}
}

// ArmTimeout starts the injected-timeout fuse. Once it fires, the next
// pacing call reports TimedOut and the stream must be cut abruptly.
func (p *Pacer) ArmTimeout(after time.Duration) {
	p.deadline = time.After(after)
}

// FirstToken waits out the time-to-first-token delay.
func (p *Pacer) FirstToken(ctx context.Context) Result {
	return p.wait(ctx, p.profile.SampleTTFT(p.rng))
}

// NextToken waits out one inter-token delay.
func (p *Pacer) NextToken(ctx context.Context) Result {
	return p.wait(ctx, p.profile.SampleTBT(p.rng))
}

func (p *Pacer) wait(ctx context.Context, d time.Duration) Result {
	// Check for an already-fired fuse or a gone client even when the
	// delay is zero, so instant profiles still honor both.
	select {
	case <-ctx.Done():
		return Disconnected
	case <-p.deadline:
		return TimedOut
	default:
	}
	if d <= 0 {
		return Continue
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return Continue
	case <-ctx.Done():
		return Disconnected
	case <-p.deadline:
		return TimedOut
	}
}

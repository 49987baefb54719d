// Package usecase orchestrates one simulated completion: fault draw,
// latency resolution, content generation, token accounting, reasoning.
package usecase

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/llmsim/llmsim/internal/domain/faults"
	"github.com/llmsim/llmsim/internal/domain/generator"
	"github.com/llmsim/llmsim/internal/domain/latency"
	"github.com/llmsim/llmsim/internal/domain/reasoning"
	"github.com/llmsim/llmsim/internal/domain/stats"
	"github.com/llmsim/llmsim/internal/domain/stream"
	"github.com/llmsim/llmsim/internal/infrastructure/config"
	"github.com/llmsim/llmsim/internal/infrastructure/tokenizer"
)

// Request is the provider-agnostic view of one completion request, after
// the handler has validated it.
type Request struct {
	Model     string
	Messages  []generator.Message
	MaxTokens *int
	Streaming bool

	// InputText, when non-nil, switches prompt accounting to the
	// Responses style: count the flattened input instead of per-message.
	InputText *string

	// ReasoningRequested marks Responses API requests carrying a
	// reasoning block. Effort and Summary may still be empty.
	ReasoningRequested bool
	ReasoningEffort    string
	ReasoningSummary   string // auto, concise, detailed; "" disables summary
}

// Plan is everything a handler needs to serve the request. When Fault is
// set and the request is non-streaming (or the fault is not a timeout),
// the handler writes the fault instead of the content. A streaming
// timeout arms the pacer fuse and lets the stream start normally.
type Plan struct {
	Fault  *faults.Fault
	Handle *stats.RequestHandle

	Model        string
	Profile      latency.Profile
	Pacer        *stream.Pacer
	Rng          *rand.Rand
	Text         string
	Tokens       []string
	FinishReason string

	PromptTokens     int
	CompletionTokens int
	ReasoningTokens  int
	// Summary is the reasoning summary text, empty when the request did
	// not ask for one (or the model cannot reason).
	Summary string
}

// Simulator holds the live configuration and shared aggregates. The
// config pointer is swapped atomically on hot reload.
type Simulator struct {
	logger *zap.Logger
	stats  *stats.Aggregator

	cfg atomic.Pointer[config.Config]

	baseSeed uint64
	seq      atomic.Uint64
}

// NewSimulator wires the orchestrator. A nonzero cfg.Seed makes every
// sample deterministic; otherwise each run is seeded from the clock.
func NewSimulator(cfg *config.Config, agg *stats.Aggregator, logger *zap.Logger) *Simulator {
	s := &Simulator{
		logger: logger,
		stats:  agg,
	}
	s.cfg.Store(cfg)
	s.baseSeed = cfg.Seed
	if s.baseSeed == 0 {
		s.baseSeed = uint64(time.Now().UnixNano())
	}
	return s
}

// Config returns the current configuration snapshot.
func (s *Simulator) Config() *config.Config {
	return s.cfg.Load()
}

// SetConfig swaps in a new configuration (hot reload). In-flight requests
// keep the snapshot they started with.
func (s *Simulator) SetConfig(cfg *config.Config) {
	s.cfg.Store(cfg)
	s.logger.Info("Simulator configuration updated",
		zap.String("generator", cfg.Response.Generator),
		zap.Int("target_tokens", cfg.Response.TargetTokens),
	)
}

// Stats exposes the aggregator for the stats and metrics endpoints.
func (s *Simulator) Stats() *stats.Aggregator {
	return s.stats
}

// rng derives an independent, reproducible RNG for one request.
func (s *Simulator) rng() *rand.Rand {
	return rand.New(rand.NewPCG(s.baseSeed, s.seq.Add(1)))
}

// Plan runs the per-request pipeline. It always registers the request
// with the stats aggregator; the caller owns Handle.End().
func (s *Simulator) Plan(req Request) (*Plan, error) {
	cfg := s.cfg.Load()
	rng := s.rng()
	handle := s.stats.Start(req.Model, req.Streaming)

	plan := &Plan{
		Handle: handle,
		Model:  req.Model,
		Rng:    rng,
	}

	// One fault draw per request, before any bytes go out.
	injector := faults.NewInjector(faults.Config{
		RateLimitRate:   cfg.Errors.RateLimitRate,
		ServerErrorRate: cfg.Errors.ServerErrorRate,
		TimeoutRate:     cfg.Errors.TimeoutRate,
		TimeoutAfterMs:  cfg.Errors.TimeoutAfterMs,
	})
	fault := injector.Draw(rng)
	plan.Fault = fault

	// Rate limit and server faults short-circuit generation entirely.
	// Non-streaming timeouts do too: the request hangs and then fails.
	if fault != nil && (fault.Class != faults.ClassTimeout || !req.Streaming) {
		return plan, nil
	}

	plan.Profile = s.resolveProfile(cfg, req.Model)
	plan.Pacer = stream.NewPacer(plan.Profile, rng)
	if fault != nil && fault.Class == faults.ClassTimeout {
		plan.Pacer.ArmTimeout(time.Duration(fault.TimeoutAfterMs) * time.Millisecond)
	}

	codec, err := tokenizer.ForModel(req.Model)
	if err != nil {
		handle.End()
		return nil, err
	}

	gen, err := generator.New(cfg.Response.Generator, codec)
	if err != nil {
		// The handle was already registered; release it so the active
		// count still decrements exactly once per request.
		handle.End()
		return nil, err
	}

	target := cfg.Response.TargetTokens
	plan.Text = gen.Generate(rng, req.Messages, target)
	plan.Tokens = codec.Split(plan.Text)
	plan.FinishReason = "stop"

	// max_tokens is a hard ceiling on the completion.
	if req.MaxTokens != nil && *req.MaxTokens >= 0 && len(plan.Tokens) > *req.MaxTokens {
		plan.Tokens = plan.Tokens[:*req.MaxTokens]
		plan.Text = joinTokens(plan.Tokens)
		plan.FinishReason = "length"
	}
	plan.CompletionTokens = len(plan.Tokens)

	plan.PromptTokens = s.promptTokens(codec, req)

	if req.ReasoningRequested {
		effort := req.ReasoningEffort
		plan.ReasoningTokens = reasoning.TokensFor(req.Model, effort, plan.CompletionTokens)
		if plan.ReasoningTokens > 0 && wantsSummary(req.ReasoningSummary) {
			words := reasoning.SummaryWords(req.ReasoningSummary, plan.ReasoningTokens)
			plan.Summary = reasoning.Summary(rng, words)
		}
	}

	return plan, nil
}

func wantsSummary(v string) bool {
	return v == "auto" || v == "concise" || v == "detailed"
}

// promptTokens follows the provider accounting: per chat message the
// content tokens plus 4 of framing, plus 3 per request; Responses input
// is counted flat plus 3.
func (s *Simulator) promptTokens(codec *tokenizer.Codec, req Request) int {
	if req.InputText != nil {
		return codec.Count(*req.InputText) + 3
	}
	total := 3
	for _, m := range req.Messages {
		total += codec.Count(m.Content) + 4
	}
	return total
}

func (s *Simulator) resolveProfile(cfg *config.Config, model string) latency.Profile {
	if !cfg.Latency.Overridden() {
		return latency.ForModel(model)
	}
	if cfg.Latency.Profile != "" {
		if p, ok := latency.ByName(cfg.Latency.Profile); ok {
			return p
		}
		s.logger.Warn("Unknown latency profile, deriving from model",
			zap.String("profile", cfg.Latency.Profile),
		)
		return latency.ForModel(model)
	}
	return latency.Profile{
		TTFTMean: cfg.Latency.TTFTMeanMs,
		TTFTStd:  cfg.Latency.TTFTStddevMs,
		TBTMean:  cfg.Latency.TBTMeanMs,
		TBTStd:   cfg.Latency.TBTStddevMs,
	}
}

func joinTokens(tokens []string) string {
	var n int
	for _, t := range tokens {
		n += len(t)
	}
	b := make([]byte, 0, n)
	for _, t := range tokens {
		b = append(b, t...)
	}
	return string(b)
}

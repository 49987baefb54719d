// Package stats aggregates request metrics for the /llmsim/stats endpoint,
// the Prometheus exposition, and the TUI. Counters are lock-free atomics;
// the latency running mean, the per-model map, and the RPS ring take short
// mutexes on their own.
package stats

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// ErrorKind classifies a failed request for the error counters.
type ErrorKind int

const (
	ErrRateLimit ErrorKind = iota
	ErrServer
	ErrTimeout
	ErrClientAbort
)

// Aggregator collects request statistics for the lifetime of the process.
type Aggregator struct {
	startedAt time.Time

	totalRequests        atomic.Uint64
	activeRequests       atomic.Int64
	streamingRequests    atomic.Uint64
	nonStreamingRequests atomic.Uint64

	promptTokens     atomic.Uint64
	completionTokens atomic.Uint64
	reasoningTokens  atomic.Uint64

	totalErrors     atomic.Uint64
	rateLimitErrors atomic.Uint64
	serverErrors    atomic.Uint64
	timeoutErrors   atomic.Uint64
	abortedRequests atomic.Uint64

	// Latency in microseconds. Min starts at MaxInt64 so the first CAS wins.
	minLatencyUs atomic.Int64
	maxLatencyUs atomic.Int64

	latencyMu    sync.Mutex
	latencyCount uint64
	latencyAvgMs float64

	modelMu       sync.Mutex
	modelRequests map[string]uint64

	ringMu sync.Mutex
	ring   []time.Time // request start timestamps within the last 60s
}

func NewAggregator() *Aggregator {
	a := &Aggregator{
		startedAt:     time.Now(),
		modelRequests: make(map[string]uint64),
	}
	a.minLatencyUs.Store(math.MaxInt64)
	return a
}

// RequestHandle tracks one in-flight request. Obtain with Start, feed it
// token counts and errors, and always call End.
type RequestHandle struct {
	agg       *Aggregator
	startedAt time.Time
	ended     atomic.Bool
}

// Start records a new request and returns its handle.
func (a *Aggregator) Start(model string, streaming bool) *RequestHandle {
	now := time.Now()
	a.totalRequests.Add(1)
	a.activeRequests.Add(1)
	if streaming {
		a.streamingRequests.Add(1)
	} else {
		a.nonStreamingRequests.Add(1)
	}

	a.modelMu.Lock()
	a.modelRequests[model]++
	a.modelMu.Unlock()

	a.ringMu.Lock()
	a.pruneRingLocked(now)
	a.ring = append(a.ring, now)
	a.ringMu.Unlock()

	return &RequestHandle{agg: a, startedAt: now}
}

// Tokens records the token usage of a completed request.
func (h *RequestHandle) Tokens(prompt, completion, reasoning int) {
	h.agg.promptTokens.Add(uint64(prompt))
	h.agg.completionTokens.Add(uint64(completion))
	h.agg.reasoningTokens.Add(uint64(reasoning))
}

// Error records an injected or observed failure.
func (h *RequestHandle) Error(kind ErrorKind) {
	h.agg.totalErrors.Add(1)
	switch kind {
	case ErrRateLimit:
		h.agg.rateLimitErrors.Add(1)
	case ErrServer:
		h.agg.serverErrors.Add(1)
	case ErrTimeout:
		h.agg.timeoutErrors.Add(1)
	case ErrClientAbort:
		h.agg.abortedRequests.Add(1)
	}
}

// End records the request latency and releases the active slot. Safe to
// call more than once; only the first call counts.
func (h *RequestHandle) End() {
	if !h.ended.CompareAndSwap(false, true) {
		return
	}
	h.agg.activeRequests.Add(-1)
	h.agg.recordLatency(time.Since(h.startedAt))
}

func (a *Aggregator) recordLatency(d time.Duration) {
	us := d.Microseconds()

	for {
		cur := a.minLatencyUs.Load()
		if us >= cur || a.minLatencyUs.CompareAndSwap(cur, us) {
			break
		}
	}
	for {
		cur := a.maxLatencyUs.Load()
		if us <= cur || a.maxLatencyUs.CompareAndSwap(cur, us) {
			break
		}
	}

	ms := float64(us) / 1000.0
	a.latencyMu.Lock()
	a.latencyCount++
	a.latencyAvgMs += (ms - a.latencyAvgMs) / float64(a.latencyCount)
	a.latencyMu.Unlock()
}

// pruneRingLocked drops timestamps older than the 60s window. Caller holds
// ringMu.
func (a *Aggregator) pruneRingLocked(now time.Time) {
	cutoff := now.Add(-60 * time.Second)
	i := 0
	for i < len(a.ring) && a.ring[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		a.ring = append(a.ring[:0], a.ring[i:]...)
	}
}

// Snapshot is the JSON view served at /llmsim/stats.
type Snapshot struct {
	UptimeSecs           uint64            `json:"uptime_secs"`
	TotalRequests        uint64            `json:"total_requests"`
	ActiveRequests       int64             `json:"active_requests"`
	StreamingRequests    uint64            `json:"streaming_requests"`
	NonStreamingRequests uint64            `json:"non_streaming_requests"`
	PromptTokens         uint64            `json:"prompt_tokens"`
	CompletionTokens     uint64            `json:"completion_tokens"`
	ReasoningTokens      uint64            `json:"reasoning_tokens"`
	TotalTokens          uint64            `json:"total_tokens"`
	TotalErrors          uint64            `json:"total_errors"`
	RateLimitErrors      uint64            `json:"rate_limit_errors"`
	ServerErrors         uint64            `json:"server_errors"`
	TimeoutErrors        uint64            `json:"timeout_errors"`
	AbortedRequests      uint64            `json:"aborted_requests"`
	RequestsPerSecond    float64           `json:"requests_per_second"`
	AvgLatencyMs         float64           `json:"avg_latency_ms"`
	MinLatencyMs         float64           `json:"min_latency_ms"`
	MaxLatencyMs         float64           `json:"max_latency_ms"`
	ModelRequests        map[string]uint64 `json:"model_requests"`
}

// Snapshot returns a consistent-enough view for reporting. Individual
// counters are read atomically; cross-counter identities hold whenever no
// request is mid-record.
func (a *Aggregator) Snapshot() Snapshot {
	prompt := a.promptTokens.Load()
	completion := a.completionTokens.Load()
	reasoning := a.reasoningTokens.Load()

	a.ringMu.Lock()
	a.pruneRingLocked(time.Now())
	rps := float64(len(a.ring)) / 60.0
	a.ringMu.Unlock()

	a.latencyMu.Lock()
	avgMs := a.latencyAvgMs
	a.latencyMu.Unlock()

	minUs := a.minLatencyUs.Load()
	var minMs float64
	if minUs != math.MaxInt64 {
		minMs = float64(minUs) / 1000.0
	}

	a.modelMu.Lock()
	models := make(map[string]uint64, len(a.modelRequests))
	for k, v := range a.modelRequests {
		models[k] = v
	}
	a.modelMu.Unlock()

	return Snapshot{
		UptimeSecs:           uint64(time.Since(a.startedAt).Seconds()),
		TotalRequests:        a.totalRequests.Load(),
		ActiveRequests:       a.activeRequests.Load(),
		StreamingRequests:    a.streamingRequests.Load(),
		NonStreamingRequests: a.nonStreamingRequests.Load(),
		PromptTokens:         prompt,
		CompletionTokens:     completion,
		ReasoningTokens:      reasoning,
		TotalTokens:          prompt + completion + reasoning,
		TotalErrors:          a.totalErrors.Load(),
		RateLimitErrors:      a.rateLimitErrors.Load(),
		ServerErrors:         a.serverErrors.Load(),
		TimeoutErrors:        a.timeoutErrors.Load(),
		AbortedRequests:      a.abortedRequests.Load(),
		RequestsPerSecond:    rps,
		AvgLatencyMs:         avgMs,
		MinLatencyMs:         minMs,
		MaxLatencyMs:         float64(a.maxLatencyUs.Load()) / 1000.0,
		ModelRequests:        models,
	}
}

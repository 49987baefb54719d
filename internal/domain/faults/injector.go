// Package faults decides, per request, whether to inject a simulated
// provider failure and what that failure looks like on the wire.
package faults

import "math/rand/v2"

// Class is the kind of injected fault.
type Class int

const (
	ClassNone Class = iota
	ClassRateLimit
	ClassServerError
	ClassTimeout
)

// Config holds the injection probabilities. Rates are in [0,1] and their
// sum must not exceed 1.
type Config struct {
	RateLimitRate   float64 `mapstructure:"rate_limit_rate" yaml:"rate_limit_rate"`
	ServerErrorRate float64 `mapstructure:"server_error_rate" yaml:"server_error_rate"`
	TimeoutRate     float64 `mapstructure:"timeout_rate" yaml:"timeout_rate"`
	TimeoutAfterMs  int     `mapstructure:"timeout_after_ms" yaml:"timeout_after_ms"`
}

// None disables injection entirely.
func None() Config {
	return Config{TimeoutAfterMs: 30000}
}

// Chaos is a preset for resilience testing: 10% rate limits, 5% server
// errors, 5% timeouts with a short fuse.
func Chaos() Config {
	return Config{
		RateLimitRate:   0.10,
		ServerErrorRate: 0.05,
		TimeoutRate:     0.05,
		TimeoutAfterMs:  5000,
	}
}

// Fault is a concrete injected failure ready to serialize.
type Fault struct {
	Class      Class
	Status     int
	Type       string
	Code       string
	Message    string
	RetryAfter int // seconds; 0 means no Retry-After header
	// TimeoutAfterMs applies to ClassTimeout: how long the request hangs
	// before failing (non-streaming) or how long the stream runs before
	// being cut (streaming).
	TimeoutAfterMs int
}

// Injector draws faults against the configured rates.
type Injector struct {
	cfg Config
}

func NewInjector(cfg Config) *Injector {
	return &Injector{cfg: cfg}
}

// Draw makes a single uniform draw and walks the cumulative rate
// thresholds. It is called exactly once per request, before any response
// bytes are written. Returns nil when no fault fires.
func (inj *Injector) Draw(rng *rand.Rand) *Fault {
	total := inj.cfg.RateLimitRate + inj.cfg.ServerErrorRate + inj.cfg.TimeoutRate
	if total <= 0 {
		return nil
	}

	u := rng.Float64()
	threshold := inj.cfg.RateLimitRate
	if u < threshold {
		return &Fault{
			Class:      ClassRateLimit,
			Status:     429,
			Type:       "rate_limit_error",
			Code:       "rate_limit_exceeded",
			Message:    "Rate limit exceeded. Please retry after some time.",
			RetryAfter: 1 + rng.IntN(60),
		}
	}
	threshold += inj.cfg.ServerErrorRate
	if u < threshold {
		// Half plain 500s, half 503s with a retry hint.
		if rng.Float64() < 0.5 {
			return &Fault{
				Class:   ClassServerError,
				Status:  500,
				Type:    "server_error",
				Code:    "server_error",
				Message: "The server had an error processing your request.",
			}
		}
		return &Fault{
			Class:      ClassServerError,
			Status:     503,
			Type:       "server_error",
			Code:       "service_unavailable",
			Message:    "Service temporarily unavailable",
			RetryAfter: 60,
		}
	}
	threshold += inj.cfg.TimeoutRate
	if u < threshold {
		return &Fault{
			Class:          ClassTimeout,
			Status:         504,
			Type:           "timeout_error",
			Code:           "timeout",
			Message:        "Request timed out",
			TimeoutAfterMs: inj.cfg.TimeoutAfterMs,
		}
	}
	return nil
}

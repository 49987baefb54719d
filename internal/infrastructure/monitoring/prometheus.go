// Package monitoring exposes the stats aggregator in Prometheus text
// format without pulling in the full prometheus/client_golang dependency.
package monitoring

import (
	"fmt"
	"net/http"
	"runtime"
	"sort"

	"github.com/llmsim/llmsim/internal/domain/stats"
)

// PrometheusHandler serves the exposition format (0.0.4) over the stats
// aggregator. Mount it at "/metrics".
func PrometheusHandler(agg *stats.Aggregator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		s := agg.Snapshot()

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		lines := []struct {
			name string
			help string
			typ  string
			val  interface{}
		}{
			{"llmsim_requests_total", "Total number of simulated requests", "counter", s.TotalRequests},
			{"llmsim_requests_streaming_total", "Total streaming requests", "counter", s.StreamingRequests},
			{"llmsim_requests_non_streaming_total", "Total non-streaming requests", "counter", s.NonStreamingRequests},
			{"llmsim_active_requests", "Requests currently in flight", "gauge", s.ActiveRequests},

			{"llmsim_prompt_tokens_total", "Total prompt tokens counted", "counter", s.PromptTokens},
			{"llmsim_completion_tokens_total", "Total completion tokens emitted", "counter", s.CompletionTokens},
			{"llmsim_reasoning_tokens_total", "Total simulated reasoning tokens", "counter", s.ReasoningTokens},

			{"llmsim_errors_total", "Total injected and observed errors", "counter", s.TotalErrors},
			{"llmsim_rate_limit_errors_total", "Injected rate limit errors", "counter", s.RateLimitErrors},
			{"llmsim_server_errors_total", "Injected server errors", "counter", s.ServerErrors},
			{"llmsim_timeout_errors_total", "Injected timeouts", "counter", s.TimeoutErrors},
			{"llmsim_aborted_requests_total", "Requests aborted by the client", "counter", s.AbortedRequests},

			{"llmsim_requests_per_second", "Requests per second over the last minute", "gauge", s.RequestsPerSecond},
			{"llmsim_request_latency_avg_ms", "Average request latency in milliseconds", "gauge", s.AvgLatencyMs},
			{"llmsim_request_latency_min_ms", "Minimum request latency in milliseconds", "gauge", s.MinLatencyMs},
			{"llmsim_request_latency_max_ms", "Maximum request latency in milliseconds", "gauge", s.MaxLatencyMs},
			{"llmsim_uptime_seconds", "Process uptime in seconds", "gauge", s.UptimeSecs},

			{"llmsim_memory_alloc_bytes", "Current memory allocation in bytes", "gauge", memStats.Alloc},
			{"llmsim_goroutines", "Number of goroutines", "gauge", runtime.NumGoroutine()},
		}

		for _, l := range lines {
			fmt.Fprintf(w, "# HELP %s %s\n", l.name, l.help)
			fmt.Fprintf(w, "# TYPE %s %s\n", l.name, l.typ)
			switch v := l.val.(type) {
			case uint64:
				fmt.Fprintf(w, "%s %d\n", l.name, v)
			case int64:
				fmt.Fprintf(w, "%s %d\n", l.name, v)
			case int:
				fmt.Fprintf(w, "%s %d\n", l.name, v)
			case float64:
				fmt.Fprintf(w, "%s %f\n", l.name, v)
			}
			fmt.Fprintln(w)
		}

		// Per-model breakdown as a labeled counter.
		fmt.Fprintf(w, "# HELP llmsim_model_requests_total Requests per model\n")
		fmt.Fprintf(w, "# TYPE llmsim_model_requests_total counter\n")
		ids := make([]string, 0, len(s.ModelRequests))
		for id := range s.ModelRequests {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(w, "llmsim_model_requests_total{model=%q} %d\n", id, s.ModelRequests[id])
		}
	})
}

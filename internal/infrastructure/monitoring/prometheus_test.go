package monitoring

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/llmsim/llmsim/internal/domain/stats"
)

func TestPrometheusExposition(t *testing.T) {
	agg := stats.NewAggregator()
	h := agg.Start("gpt-4o", true)
	h.Tokens(12, 34, 0)
	h.End()

	he := agg.Start("o3", false)
	he.Error(stats.ErrRateLimit)
	he.End()

	rec := httptest.NewRecorder()
	PrometheusHandler(agg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain; version=0.0.4") {
		t.Fatalf("content type = %q", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"llmsim_requests_total 2",
		"llmsim_active_requests 0",
		"llmsim_prompt_tokens_total 12",
		"llmsim_completion_tokens_total 34",
		"llmsim_rate_limit_errors_total 1",
		"# TYPE llmsim_requests_total counter",
		`llmsim_model_requests_total{model="gpt-4o"} 1`,
		`llmsim_model_requests_total{model="o3"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q:\n%s", want, body)
		}
	}
}

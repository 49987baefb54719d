package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/llmsim/llmsim/internal/api/openai"
	"github.com/llmsim/llmsim/internal/application/usecase"
	"github.com/llmsim/llmsim/internal/domain/models"
	"github.com/llmsim/llmsim/internal/domain/stats"
	"github.com/llmsim/llmsim/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter builds a router over an instant latency profile so tests
// never sleep. mutate tweaks the base config before wiring.
func newTestRouter(t *testing.T, mutate func(*config.Config)) (*gin.Engine, *stats.Aggregator) {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 8080, Mode: "release"},
		Latency:  config.LatencyConfig{Profile: "instant"},
		Response: config.ResponseConfig{Generator: "lorem", TargetTokens: 20},
		Errors:   config.ErrorsConfig{TimeoutAfterMs: 30000},
		Seed:     42,
	}
	if mutate != nil {
		mutate(cfg)
	}
	agg := stats.NewAggregator()
	sim := usecase.NewSimulator(cfg, agg, zap.NewNop())
	registry := models.NewRegistry(cfg.Models.Available)
	return NewRouter(sim, registry, zap.NewNop()), agg
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getPath(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	w := getPath(t, router, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "llmsim" {
		t.Errorf("body = %v", body)
	}
}

func TestChatCompletionNonStreaming(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	w := postJSON(t, router, "/openai/v1/chat/completions", map[string]any{
		"model": "gpt-4",
		"messages": []map[string]string{
			{"role": "user", "content": "Hello there"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp openai.ChatCompletionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !strings.HasPrefix(resp.ID, "chatcmpl-") {
		t.Errorf("ID = %q, want chatcmpl- prefix", resp.ID)
	}
	if resp.Object != "chat.completion" {
		t.Errorf("Object = %q", resp.Object)
	}
	if resp.SystemFingerprint != "fp_llmsim" {
		t.Errorf("SystemFingerprint = %q", resp.SystemFingerprint)
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("len(Choices) = %d", len(resp.Choices))
	}
	choice := resp.Choices[0]
	if choice.Message.Role != "assistant" || choice.Message.Content == "" {
		t.Errorf("message = %+v", choice.Message)
	}
	if choice.FinishReason != "stop" {
		t.Errorf("FinishReason = %q", choice.FinishReason)
	}

	u := resp.Usage
	if u == nil {
		t.Fatal("usage missing")
	}
	if u.PromptTokens <= 0 || u.CompletionTokens <= 0 {
		t.Errorf("usage = %+v", u)
	}
	if u.TotalTokens != u.PromptTokens+u.CompletionTokens {
		t.Errorf("total %d != prompt %d + completion %d", u.TotalTokens, u.PromptTokens, u.CompletionTokens)
	}
}

func TestChatCompletionMaxTokens(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	w := postJSON(t, router, "/openai/v1/chat/completions", map[string]any{
		"model":      "gpt-4",
		"max_tokens": 5,
		"messages": []map[string]string{
			{"role": "user", "content": "Hello"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp openai.ChatCompletionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Choices[0].FinishReason != "length" {
		t.Errorf("FinishReason = %q, want length", resp.Choices[0].FinishReason)
	}
	if resp.Usage.CompletionTokens != 5 {
		t.Errorf("CompletionTokens = %d, want 5", resp.Usage.CompletionTokens)
	}
}

func TestChatCompletionStreaming(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	w := postJSON(t, router, "/openai/v1/chat/completions", map[string]any{
		"model":          "gpt-4o",
		"stream":         true,
		"stream_options": map[string]bool{"include_usage": true},
		"messages": []map[string]string{
			{"role": "user", "content": "Stream please"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q", ct)
	}

	frames := parseDataFrames(t, w.Body.String())
	if len(frames) < 3 {
		t.Fatalf("too few frames: %d", len(frames))
	}
	if frames[len(frames)-1] != "[DONE]" {
		t.Errorf("last frame = %q, want [DONE]", frames[len(frames)-1])
	}

	var chunks []openai.ChatStreamChunk
	for _, f := range frames[:len(frames)-1] {
		var chunk openai.ChatStreamChunk
		if err := json.Unmarshal([]byte(f), &chunk); err != nil {
			t.Fatalf("unmarshal chunk %q: %v", f, err)
		}
		chunks = append(chunks, chunk)
	}

	if chunks[0].Choices[0].Delta.Role != "assistant" {
		t.Errorf("first delta = %+v, want assistant role", chunks[0].Choices[0].Delta)
	}

	var contentDeltas int
	var content strings.Builder
	for _, chunk := range chunks {
		if c := chunk.Choices[0].Delta.Content; c != "" {
			contentDeltas++
			content.WriteString(c)
		}
	}

	last := chunks[len(chunks)-1]
	if last.Choices[0].FinishReason == nil || *last.Choices[0].FinishReason != "stop" {
		t.Errorf("final finish_reason = %v", last.Choices[0].FinishReason)
	}
	if last.Usage == nil {
		t.Fatal("usage missing from final chunk")
	}
	if contentDeltas != last.Usage.CompletionTokens {
		t.Errorf("content deltas %d != completion_tokens %d", contentDeltas, last.Usage.CompletionTokens)
	}
	if content.Len() == 0 {
		t.Error("no content streamed")
	}
}

func parseDataFrames(t *testing.T, body string) []string {
	t.Helper()
	var frames []string
	for _, line := range strings.Split(body, "\n") {
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			frames = append(frames, data)
		}
	}
	return frames
}

func TestChatCompletionValidation(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	tests := []struct {
		name string
		body map[string]any
	}{
		{
			name: "empty messages",
			body: map[string]any{"model": "gpt-4", "messages": []any{}},
		},
		{
			name: "invalid role",
			body: map[string]any{
				"model":    "gpt-4",
				"messages": []map[string]string{{"role": "wizard", "content": "hi"}},
			},
		},
		{
			name: "temperature out of range",
			body: map[string]any{
				"model":       "gpt-4",
				"temperature": 3.0,
				"messages":    []map[string]string{{"role": "user", "content": "hi"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/openai/v1/chat/completions", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			var env openai.ErrorEnvelope
			if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if env.Error.Type != "invalid_request_error" {
				t.Errorf("error type = %q", env.Error.Type)
			}
		})
	}
}

func TestRateLimitFault(t *testing.T) {
	router, agg := newTestRouter(t, func(cfg *config.Config) {
		cfg.Errors.RateLimitRate = 1.0
	})
	w := postJSON(t, router, "/openai/v1/chat/completions", map[string]any{
		"model":    "gpt-4",
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}

	var env openai.ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Error.Type != "rate_limit_error" || env.Error.Code != "rate_limit_exceeded" {
		t.Errorf("error = %+v", env.Error)
	}

	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retry < 1 || retry > 60 {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}

	snap := agg.Snapshot()
	if snap.RateLimitErrors != 1 || snap.TotalErrors != 1 {
		t.Errorf("snapshot errors = %d/%d", snap.RateLimitErrors, snap.TotalErrors)
	}
}

func TestServerFault(t *testing.T) {
	router, _ := newTestRouter(t, func(cfg *config.Config) {
		cfg.Errors.ServerErrorRate = 1.0
	})
	w := postJSON(t, router, "/openai/v1/chat/completions", map[string]any{
		"model":    "gpt-4",
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	if w.Code != http.StatusInternalServerError && w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 500 or 503", w.Code)
	}

	var env openai.ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Error.Type != "server_error" {
		t.Errorf("error type = %q", env.Error.Type)
	}
}

func TestResponsesNonStreaming(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	w := postJSON(t, router, "/openai/v1/responses", map[string]any{
		"model": "o3",
		"input": "Explain yourself",
		"reasoning": map[string]string{
			"effort":  "medium",
			"summary": "auto",
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp openai.ResponsesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !strings.HasPrefix(resp.ID, "resp_") {
		t.Errorf("ID = %q, want resp_ prefix", resp.ID)
	}
	if resp.Object != "response" || resp.Status != "completed" {
		t.Errorf("object/status = %q/%q", resp.Object, resp.Status)
	}

	if len(resp.Output) != 2 {
		t.Fatalf("len(Output) = %d, want reasoning + message", len(resp.Output))
	}
	rsn, msg := resp.Output[0], resp.Output[1]
	if rsn.Type != "reasoning" || !strings.HasPrefix(rsn.ID, "rs_") {
		t.Errorf("output[0] = %+v", rsn)
	}
	if rsn.Status != "completed" {
		t.Errorf("reasoning status = %q, want completed", rsn.Status)
	}
	if len(rsn.Summary) == 0 || rsn.Summary[0].Type != "summary_text" || rsn.Summary[0].Text == "" {
		t.Errorf("summary = %+v", rsn.Summary)
	}
	if msg.Type != "message" || msg.Role != "assistant" || !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("output[1] = %+v", msg)
	}
	if len(msg.Content) != 1 || msg.Content[0].Type != "output_text" || msg.Content[0].Text == "" {
		t.Errorf("content = %+v", msg.Content)
	}
	if resp.OutputText != msg.Content[0].Text {
		t.Error("output_text does not match message content")
	}

	u := resp.Usage
	if u == nil || u.OutputTokensDetails == nil {
		t.Fatalf("usage = %+v", u)
	}
	completion := u.OutputTokens - u.OutputTokensDetails.ReasoningTokens
	if u.OutputTokensDetails.ReasoningTokens != completion*3 {
		t.Errorf("reasoning %d != 3 * completion %d (medium effort)",
			u.OutputTokensDetails.ReasoningTokens, completion)
	}
	if u.TotalTokens != u.InputTokens+u.OutputTokens {
		t.Errorf("total %d != input %d + output %d", u.TotalTokens, u.InputTokens, u.OutputTokens)
	}
}

func TestResponsesNonReasoningModel(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	w := postJSON(t, router, "/openai/v1/responses", map[string]any{
		"model":     "gpt-4o",
		"input":     "hi",
		"reasoning": map[string]string{"effort": "high"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp openai.ResponsesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Output) != 1 || resp.Output[0].Type != "message" {
		t.Errorf("output = %+v, want single message item", resp.Output)
	}
	if d := resp.Usage.OutputTokensDetails; d != nil && d.ReasoningTokens != 0 {
		t.Errorf("reasoning tokens = %d, want 0", d.ReasoningTokens)
	}
}

func TestResponsesStreaming(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	w := postJSON(t, router, "/openai/v1/responses", map[string]any{
		"model":  "o3",
		"input":  "Stream it",
		"stream": true,
		"reasoning": map[string]string{
			"effort":  "low",
			"summary": "concise",
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var names []string
	var events []openai.StreamEvent
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			names = append(names, name)
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var ev openai.StreamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				t.Fatalf("unmarshal event %q: %v", data, err)
			}
			events = append(events, ev)
		}
	}
	if len(events) == 0 || len(names) != len(events) {
		t.Fatalf("events/names = %d/%d", len(events), len(names))
	}

	if names[0] != openai.EventResponseCreated {
		t.Errorf("first event = %q", names[0])
	}
	if names[1] != openai.EventResponseInProgress {
		t.Errorf("second event = %q", names[1])
	}
	if names[len(names)-1] != openai.EventResponseCompleted {
		t.Errorf("last event = %q", names[len(names)-1])
	}

	for i, ev := range events {
		if ev.SequenceNumber != i {
			t.Fatalf("event %d has sequence_number %d", i, ev.SequenceNumber)
		}
		if ev.Type != names[i] {
			t.Errorf("event %d type %q != name %q", i, ev.Type, names[i])
		}
	}

	count := func(name string) int {
		n := 0
		for _, got := range names {
			if got == name {
				n++
			}
		}
		return n
	}
	if count(openai.EventReasoningSummaryDelta) == 0 {
		t.Error("no reasoning summary deltas")
	}
	for _, ev := range events {
		if ev.Item == nil || ev.Item.Type != "reasoning" {
			continue
		}
		if !strings.HasPrefix(ev.Item.ID, "rs_") {
			t.Errorf("reasoning item ID = %q, want rs_ prefix", ev.Item.ID)
		}
		switch ev.Type {
		case openai.EventOutputItemAdded:
			if ev.Item.Status != "in_progress" {
				t.Errorf("added reasoning item status = %q", ev.Item.Status)
			}
		case openai.EventOutputItemDone:
			if ev.Item.Status != "completed" {
				t.Errorf("done reasoning item status = %q", ev.Item.Status)
			}
		}
	}
	deltas := count(openai.EventOutputTextDelta)
	if deltas == 0 {
		t.Fatal("no output text deltas")
	}

	final := events[len(events)-1]
	if final.Response == nil || final.Response.Usage == nil {
		t.Fatal("final event missing response usage")
	}
	completion := final.Response.Usage.OutputTokens - final.Response.Usage.OutputTokensDetails.ReasoningTokens
	if deltas != completion {
		t.Errorf("text deltas %d != completion tokens %d", deltas, completion)
	}
}

func TestOpenResponsesRoute(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	w := postJSON(t, router, "/openresponses/v1/responses", map[string]any{
		"model": "claude-sonnet-4.5",
		"input": "hello",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp openai.ResponsesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.HasPrefix(resp.ID, "resp_") {
		t.Errorf("ID = %q, want resp_ prefix", resp.ID)
	}
	if resp.Status != "completed" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.CompletedAt == nil {
		t.Error("completed_at missing")
	}
}

func TestModelsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := getPath(t, router, "/openai/v1/models")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list struct {
		Object string               `json:"object"`
		Data   []models.ModelObject `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if list.Object != "list" || len(list.Data) == 0 {
		t.Fatalf("list = %q with %d entries", list.Object, len(list.Data))
	}
	var found bool
	for _, m := range list.Data {
		if m.ID == "gpt-5" {
			found = true
			if m.ContextWindow != 400000 || m.MaxOutputTokens != 128000 {
				t.Errorf("gpt-5 limits = %d/%d", m.ContextWindow, m.MaxOutputTokens)
			}
		}
	}
	if !found {
		t.Error("gpt-5 missing from list")
	}

	w = getPath(t, router, "/openai/v1/models/gpt-4")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	w = getPath(t, router, "/openai/v1/models/not-a-model")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown model status = %d, want 404", w.Code)
	}
	var env openai.ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Error.Code != "model_not_found" {
		t.Errorf("error code = %q", env.Error.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	for i := 0; i < 3; i++ {
		w := postJSON(t, router, "/openai/v1/chat/completions", map[string]any{
			"model":    "gpt-4",
			"messages": []map[string]string{{"role": "user", "content": "hi"}},
		})
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}

	w := getPath(t, router, "/llmsim/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var snap stats.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", snap.TotalRequests)
	}
	if snap.ActiveRequests != 0 {
		t.Errorf("ActiveRequests = %d, want 0", snap.ActiveRequests)
	}
	if snap.CompletionTokens == 0 || snap.PromptTokens == 0 {
		t.Errorf("tokens = %d/%d", snap.PromptTokens, snap.CompletionTokens)
	}
	if snap.ModelRequests["gpt-4"] != 3 {
		t.Errorf("ModelRequests = %v", snap.ModelRequests)
	}
}

func TestServerStartBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	cfg := &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: port, Mode: "release"},
		Latency:  config.LatencyConfig{Profile: "instant"},
		Response: config.ResponseConfig{Generator: "lorem", TargetTokens: 20},
		Errors:   config.ErrorsConfig{TimeoutAfterMs: 30000},
	}
	agg := stats.NewAggregator()
	sim := usecase.NewSimulator(cfg, agg, zap.NewNop())
	registry := models.NewRegistry(nil)

	srv := NewServer(Config{Host: "127.0.0.1", Port: port, Mode: "release"}, sim, registry, zap.NewNop())
	if err := srv.Start(context.Background()); err == nil {
		srv.Stop(context.Background())
		t.Fatal("Start on a taken port should fail")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := postJSON(t, router, "/openai/v1/chat/completions", map[string]any{
		"model":    "gpt-4o",
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("chat status = %d", w.Code)
	}

	w = getPath(t, router, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"llmsim_requests_total 1",
		`llmsim_model_requests_total{model="gpt-4o"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

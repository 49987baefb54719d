package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/llmsim/llmsim/internal/api/openai"
	"github.com/llmsim/llmsim/internal/api/openresponses"
	"github.com/llmsim/llmsim/internal/application/usecase"
	"github.com/llmsim/llmsim/internal/domain/generator"
	"github.com/llmsim/llmsim/internal/domain/stats"
	"github.com/llmsim/llmsim/internal/domain/stream"
)

// dialect parameterizes the two Responses surfaces: the OpenAI one and
// OpenResponses, which differ only in the completed_at field on the final
// response.
type dialect struct {
	newResponseID  func() string
	newMessageID   func() string
	newReasoningID func() string
	completedAt    bool
}

var openaiDialect = dialect{
	newResponseID:  func() string { return openai.HexID("resp_") },
	newMessageID:   func() string { return openai.HexID("msg_") },
	newReasoningID: func() string { return openai.HexID("rs_") },
}

var openResponsesDialect = dialect{
	newResponseID:  openresponses.NewResponseID,
	newMessageID:   openresponses.NewMessageID,
	newReasoningID: openresponses.NewReasoningID,
	completedAt:    true,
}

// ResponsesHandler serves the Responses API in both dialects.
type ResponsesHandler struct {
	sim    *usecase.Simulator
	logger *zap.Logger
}

func NewResponsesHandler(sim *usecase.Simulator, logger *zap.Logger) *ResponsesHandler {
	return &ResponsesHandler{sim: sim, logger: logger}
}

// Responses handles POST /openai/v1/responses.
func (h *ResponsesHandler) Responses(c *gin.Context) {
	h.handle(c, openaiDialect)
}

// OpenResponses handles POST /openresponses/v1/responses.
func (h *ResponsesHandler) OpenResponses(c *gin.Context) {
	h.handle(c, openResponsesDialect)
}

func (h *ResponsesHandler) handle(c *gin.Context, d dialect) {
	var req openai.ResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidRequest(c, err.Error())
		return
	}
	if err := validateResponsesRequest(&req); err != nil {
		writeInvalidRequest(c, err.Error())
		return
	}

	input := req.Input.PlainText()
	promptText := input
	if req.Instructions != "" {
		promptText = req.Instructions + "\n" + input
	}

	simReq := usecase.Request{
		Model:     req.Model,
		Messages:  []generator.Message{{Role: "user", Content: input}},
		MaxTokens: req.MaxOutputTokens,
		Streaming: req.Stream,
		InputText: &promptText,
	}
	if req.Reasoning != nil {
		simReq.ReasoningRequested = true
		simReq.ReasoningEffort = req.Reasoning.Effort
		simReq.ReasoningSummary = req.Reasoning.Summary
	}

	plan, err := h.sim.Plan(simReq)
	if err != nil {
		h.logger.Error("Failed to plan response", zap.Error(err))
		c.JSON(http.StatusInternalServerError, openai.ErrorEnvelope{
			Error: openai.ErrorBody{Type: "server_error", Message: err.Error()},
		})
		return
	}

	if req.Stream {
		h.handleStream(c, &req, plan, d)
		return
	}
	h.handleNonStream(c, &req, plan, d)
}

// buildOutput assembles the output items: an optional reasoning item
// followed by the assistant message.
func buildOutput(plan *usecase.Plan, d dialect) []openai.OutputItem {
	var output []openai.OutputItem
	if plan.ReasoningTokens > 0 {
		item := openai.OutputItem{
			ID:     d.newReasoningID(),
			Type:   "reasoning",
			Status: "completed",
		}
		if plan.Summary != "" {
			item.Summary = []openai.SummaryPart{{Type: "summary_text", Text: plan.Summary}}
		}
		output = append(output, item)
	}
	output = append(output, openai.OutputItem{
		ID:     d.newMessageID(),
		Type:   "message",
		Status: "completed",
		Role:   "assistant",
		Content: []openai.ContentPart{
			{Type: "output_text", Text: plan.Text, Annotations: []any{}},
		},
	})
	return output
}

func responseUsage(plan *usecase.Plan) *openai.ResponseUsage {
	out := plan.CompletionTokens + plan.ReasoningTokens
	return &openai.ResponseUsage{
		InputTokens:  plan.PromptTokens,
		OutputTokens: out,
		TotalTokens:  plan.PromptTokens + out,
		OutputTokensDetails: &openai.OutputTokensDetails{
			ReasoningTokens: plan.ReasoningTokens,
		},
	}
}

func (h *ResponsesHandler) handleNonStream(c *gin.Context, req *openai.ResponsesRequest, plan *usecase.Plan, d dialect) {
	if plan.Fault != nil {
		writeFault(c, plan.Fault, plan.Handle)
		return
	}

	if plan.Pacer.FirstToken(c.Request.Context()) == stream.Disconnected {
		plan.Handle.Error(stats.ErrClientAbort)
		plan.Handle.End()
		return
	}

	now := time.Now().Unix()
	resp := openai.ResponsesResponse{
		ID:         d.newResponseID(),
		Object:     "response",
		CreatedAt:  now,
		Model:      req.Model,
		Status:     "completed",
		Output:     buildOutput(plan, d),
		OutputText: plan.Text,
		Usage:      responseUsage(plan),
		Metadata:   req.Metadata,
	}
	if d.completedAt {
		completed := time.Now().Unix()
		resp.CompletedAt = &completed
	}

	plan.Handle.Tokens(plan.PromptTokens, plan.CompletionTokens, plan.ReasoningTokens)
	c.JSON(http.StatusOK, resp)
	plan.Handle.End()
}

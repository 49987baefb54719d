package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/llmsim/llmsim/internal/api/openai"
	"github.com/llmsim/llmsim/internal/application/usecase"
	"github.com/llmsim/llmsim/internal/domain/generator"
	"github.com/llmsim/llmsim/internal/domain/stats"
	"github.com/llmsim/llmsim/internal/domain/stream"
)

// ChatHandler serves the OpenAI Chat Completions surface.
type ChatHandler struct {
	sim    *usecase.Simulator
	logger *zap.Logger
}

func NewChatHandler(sim *usecase.Simulator, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{sim: sim, logger: logger}
}

// ChatCompletions handles POST /openai/v1/chat/completions.
func (h *ChatHandler) ChatCompletions(c *gin.Context) {
	var req openai.ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidRequest(c, err.Error())
		return
	}
	if err := validateChatRequest(&req); err != nil {
		writeInvalidRequest(c, err.Error())
		return
	}

	msgs := make([]generator.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = generator.Message{Role: m.Role, Content: m.Content}
	}

	plan, err := h.sim.Plan(usecase.Request{
		Model:     req.Model,
		Messages:  msgs,
		MaxTokens: req.MaxTokens,
		Streaming: req.Stream,
	})
	if err != nil {
		h.logger.Error("Failed to plan completion", zap.Error(err))
		c.JSON(http.StatusInternalServerError, openai.ErrorEnvelope{
			Error: openai.ErrorBody{Type: "server_error", Message: err.Error()},
		})
		return
	}

	if req.Stream {
		h.handleStream(c, &req, plan)
		return
	}
	h.handleNonStream(c, &req, plan)
}

func (h *ChatHandler) handleNonStream(c *gin.Context, req *openai.ChatCompletionRequest, plan *usecase.Plan) {
	if plan.Fault != nil {
		writeFault(c, plan.Fault, plan.Handle)
		return
	}

	// Non-streaming still pays the time to first token.
	if plan.Pacer.FirstToken(c.Request.Context()) == stream.Disconnected {
		plan.Handle.Error(stats.ErrClientAbort)
		plan.Handle.End()
		return
	}

	plan.Handle.Tokens(plan.PromptTokens, plan.CompletionTokens, plan.ReasoningTokens)
	c.JSON(http.StatusOK, openai.ChatCompletionResponse{
		ID:      openai.NewCompletionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []openai.ChatChoice{
			{
				Index: 0,
				Message: openai.ChatMessage{
					Role:    "assistant",
					Content: plan.Text,
				},
				FinishReason: plan.FinishReason,
			},
		},
		Usage:             chatUsage(plan),
		SystemFingerprint: openai.SystemFingerprint,
	})
	plan.Handle.End()
}

func (h *ChatHandler) handleStream(c *gin.Context, req *openai.ChatCompletionRequest, plan *usecase.Plan) {
	// Faults other than timeout are decided before the stream opens, so
	// they surface as plain HTTP errors.
	if plan.Fault != nil && plan.Pacer == nil {
		writeFault(c, plan.Fault, plan.Handle)
		return
	}

	setSSEHeaders(c)

	id := openai.NewCompletionID()
	created := time.Now().Unix()
	chunk := func(choices []openai.ChatStreamChoice, usage *openai.ChatUsage) openai.ChatStreamChunk {
		return openai.ChatStreamChunk{
			ID:                id,
			Object:            "chat.completion.chunk",
			Created:           created,
			Model:             req.Model,
			Choices:           choices,
			Usage:             usage,
			SystemFingerprint: openai.SystemFingerprint,
		}
	}

	// Role delta first, then the TTFT gap, then one chunk per token.
	writeSSEData(c.Writer, h.logger, chunk([]openai.ChatStreamChoice{
		{Index: 0, Delta: openai.ChatStreamDelta{Role: "assistant"}},
	}, nil))

	if r := plan.Pacer.FirstToken(c.Request.Context()); r != stream.Continue {
		endStream(r, plan.Handle)
		return
	}

	for i, token := range plan.Tokens {
		if i > 0 {
			if r := plan.Pacer.NextToken(c.Request.Context()); r != stream.Continue {
				endStream(r, plan.Handle)
				return
			}
		}
		writeSSEData(c.Writer, h.logger, chunk([]openai.ChatStreamChoice{
			{Index: 0, Delta: openai.ChatStreamDelta{Content: token}},
		}, nil))
	}

	var usage *openai.ChatUsage
	if req.StreamOptions != nil && req.StreamOptions.IncludeUsage {
		usage = chatUsage(plan)
	}
	finish := plan.FinishReason
	writeSSEData(c.Writer, h.logger, chunk([]openai.ChatStreamChoice{
		{Index: 0, Delta: openai.ChatStreamDelta{}, FinishReason: &finish},
	}, usage))
	writeDone(c.Writer)

	plan.Handle.Tokens(plan.PromptTokens, plan.CompletionTokens, plan.ReasoningTokens)
	plan.Handle.End()
}

func chatUsage(plan *usecase.Plan) *openai.ChatUsage {
	usage := &openai.ChatUsage{
		PromptTokens:     plan.PromptTokens,
		CompletionTokens: plan.CompletionTokens,
		TotalTokens:      plan.PromptTokens + plan.CompletionTokens + plan.ReasoningTokens,
	}
	if plan.ReasoningTokens > 0 {
		usage.CompletionTokensDetails = &openai.CompletionTokensDetails{
			ReasoningTokens: plan.ReasoningTokens,
		}
	}
	return usage
}

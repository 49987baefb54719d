package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/llmsim/llmsim/internal/api/openai"
	"github.com/llmsim/llmsim/internal/application/usecase"
	"github.com/llmsim/llmsim/internal/domain/stream"
)

// eventWriter emits Responses API stream events with one shared,
// monotonically increasing sequence number.
type eventWriter struct {
	c   *gin.Context
	h   *ResponsesHandler
	seq int
}

func (ew *eventWriter) emit(ev openai.StreamEvent) {
	ev.SequenceNumber = ew.seq
	ew.seq++
	writeSSEEvent(ew.c.Writer, ew.h.logger, &ev)
}

func (h *ResponsesHandler) handleStream(c *gin.Context, req *openai.ResponsesRequest, plan *usecase.Plan, d dialect) {
	if plan.Fault != nil && plan.Pacer == nil {
		writeFault(c, plan.Fault, plan.Handle)
		return
	}

	setSSEHeaders(c)

	respID := d.newResponseID()
	createdAt := time.Now().Unix()
	shell := func(status string) *openai.ResponsesResponse {
		return &openai.ResponsesResponse{
			ID:        respID,
			Object:    "response",
			CreatedAt: createdAt,
			Model:     req.Model,
			Status:    status,
			Output:    []openai.OutputItem{},
			Metadata:  req.Metadata,
		}
	}

	ew := &eventWriter{c: c, h: h}
	ew.emit(openai.StreamEvent{Type: openai.EventResponseCreated, Response: shell("in_progress")})

	if r := plan.Pacer.FirstToken(c.Request.Context()); r != stream.Continue {
		endStream(r, plan.Handle)
		return
	}

	ew.emit(openai.StreamEvent{Type: openai.EventResponseInProgress, Response: shell("in_progress")})

	outputIndex := 0
	var reasoningItem *openai.OutputItem

	if plan.ReasoningTokens > 0 {
		item := openai.OutputItem{ID: d.newReasoningID(), Type: "reasoning", Status: "completed"}
		reasoningItem = &item
		idx := outputIndex
		ew.emit(openai.StreamEvent{
			Type:        openai.EventOutputItemAdded,
			OutputIndex: &idx,
			Item:        &openai.OutputItem{ID: item.ID, Type: "reasoning", Status: "in_progress", Summary: []openai.SummaryPart{}},
		})

		if plan.Summary != "" {
			if !h.streamSummary(ew, plan, item.ID, idx) {
				return
			}
			reasoningItem.Summary = []openai.SummaryPart{{Type: "summary_text", Text: plan.Summary}}
		}

		ew.emit(openai.StreamEvent{
			Type:        openai.EventOutputItemDone,
			OutputIndex: &idx,
			Item:        reasoningItem,
		})
		outputIndex++
	}

	msgID := d.newMessageID()
	msgIdx := outputIndex
	contentIdx := 0
	ew.emit(openai.StreamEvent{
		Type:        openai.EventOutputItemAdded,
		OutputIndex: &msgIdx,
		Item: &openai.OutputItem{
			ID:      msgID,
			Type:    "message",
			Status:  "in_progress",
			Role:    "assistant",
			Content: []openai.ContentPart{},
		},
	})
	ew.emit(openai.StreamEvent{
		Type:         openai.EventContentPartAdded,
		ItemID:       msgID,
		OutputIndex:  &msgIdx,
		ContentIndex: &contentIdx,
		Part:         openai.ContentPart{Type: "output_text", Text: "", Annotations: []any{}},
	})

	for i, token := range plan.Tokens {
		if i > 0 || plan.ReasoningTokens > 0 {
			if r := plan.Pacer.NextToken(c.Request.Context()); r != stream.Continue {
				endStream(r, plan.Handle)
				return
			}
		}
		ew.emit(openai.StreamEvent{
			Type:         openai.EventOutputTextDelta,
			ItemID:       msgID,
			OutputIndex:  &msgIdx,
			ContentIndex: &contentIdx,
			Delta:        token,
		})
	}

	ew.emit(openai.StreamEvent{
		Type:         openai.EventOutputTextDone,
		ItemID:       msgID,
		OutputIndex:  &msgIdx,
		ContentIndex: &contentIdx,
		Text:         plan.Text,
	})
	ew.emit(openai.StreamEvent{
		Type:         openai.EventContentPartDone,
		ItemID:       msgID,
		OutputIndex:  &msgIdx,
		ContentIndex: &contentIdx,
		Part:         openai.ContentPart{Type: "output_text", Text: plan.Text, Annotations: []any{}},
	})

	finalMsg := openai.OutputItem{
		ID:     msgID,
		Type:   "message",
		Status: "completed",
		Role:   "assistant",
		Content: []openai.ContentPart{
			{Type: "output_text", Text: plan.Text, Annotations: []any{}},
		},
	}
	ew.emit(openai.StreamEvent{
		Type:        openai.EventOutputItemDone,
		OutputIndex: &msgIdx,
		Item:        &finalMsg,
	})

	final := shell("completed")
	if reasoningItem != nil {
		final.Output = append(final.Output, *reasoningItem)
	}
	final.Output = append(final.Output, finalMsg)
	final.OutputText = plan.Text
	final.Usage = responseUsage(plan)
	if d.completedAt {
		completed := time.Now().Unix()
		final.CompletedAt = &completed
	}
	ew.emit(openai.StreamEvent{Type: openai.EventResponseCompleted, Response: final})

	plan.Handle.Tokens(plan.PromptTokens, plan.CompletionTokens, plan.ReasoningTokens)
	plan.Handle.End()
}

// streamSummary emits the reasoning summary part events with word-level
// deltas. Returns false when the stream was cut.
func (h *ResponsesHandler) streamSummary(ew *eventWriter, plan *usecase.Plan, itemID string, outputIndex int) bool {
	summaryIdx := 0
	ew.emit(openai.StreamEvent{
		Type:         openai.EventReasoningSummaryPartAdd,
		ItemID:       itemID,
		OutputIndex:  &outputIndex,
		SummaryIndex: &summaryIdx,
		Part:         openai.SummaryPart{Type: "summary_text", Text: ""},
	})

	for i, delta := range splitSummary(plan.Summary) {
		if i > 0 {
			if r := plan.Pacer.NextToken(ew.c.Request.Context()); r != stream.Continue {
				endStream(r, plan.Handle)
				return false
			}
		}
		ew.emit(openai.StreamEvent{
			Type:         openai.EventReasoningSummaryDelta,
			ItemID:       itemID,
			OutputIndex:  &outputIndex,
			SummaryIndex: &summaryIdx,
			Delta:        delta,
		})
	}

	ew.emit(openai.StreamEvent{
		Type:         openai.EventReasoningSummaryDone,
		ItemID:       itemID,
		OutputIndex:  &outputIndex,
		SummaryIndex: &summaryIdx,
		Text:         plan.Summary,
	})
	ew.emit(openai.StreamEvent{
		Type:         openai.EventReasoningSummaryPartDone,
		ItemID:       itemID,
		OutputIndex:  &outputIndex,
		SummaryIndex: &summaryIdx,
		Part:         openai.SummaryPart{Type: "summary_text", Text: plan.Summary},
	})
	return true
}

// splitSummary cuts the summary into word deltas that concatenate back to
// the original text.
func splitSummary(text string) []string {
	words := strings.SplitAfter(text, " ")
	out := words[:0]
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

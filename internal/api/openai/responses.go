package openai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResponsesRequest mirrors the Responses API request body. Input accepts
// either a plain string or an array of messages.
type ResponsesRequest struct {
	Model           string           `json:"model" binding:"required"`
	Input           ResponseInput    `json:"input,omitempty"`
	Instructions    string           `json:"instructions,omitempty"`
	MaxOutputTokens *int             `json:"max_output_tokens,omitempty"`
	Temperature     *float64         `json:"temperature,omitempty"`
	Stream          bool             `json:"stream,omitempty"`
	Reasoning       *ReasoningParams `json:"reasoning,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}

// ReasoningParams configures simulated reasoning.
type ReasoningParams struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"` // auto, concise, detailed
}

// ResponseInput is the polymorphic input field: a string or message list.
type ResponseInput struct {
	Text     string
	Messages []InputMessage
	set      bool
}

// InputMessage is one structured input turn. Content is either a string
// or a list of typed parts.
type InputMessage struct {
	Role    string       `json:"role"`
	Content InputContent `json:"content"`
}

// InputContent is a string or an array of content parts on the wire.
type InputContent struct {
	Text  string
	Parts []InputContentPart
}

// InputContentPart is one typed content fragment.
type InputContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (in *ResponseInput) UnmarshalJSON(data []byte) error {
	in.set = true
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &in.Text)
	}
	if err := json.Unmarshal(data, &in.Messages); err != nil {
		return fmt.Errorf("input must be a string or message array: %w", err)
	}
	return nil
}

func (in ResponseInput) MarshalJSON() ([]byte, error) {
	if in.Messages != nil {
		return json.Marshal(in.Messages)
	}
	return json.Marshal(in.Text)
}

// IsZero reports whether the request carried no input at all.
func (in ResponseInput) IsZero() bool {
	return !in.set
}

func (c *InputContent) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.Text)
	}
	return json.Unmarshal(data, &c.Parts)
}

func (c InputContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// PlainText flattens the input to the text the simulator echoes and
// counts prompt tokens against.
func (in ResponseInput) PlainText() string {
	if in.Messages == nil {
		return in.Text
	}
	var parts []string
	for _, m := range in.Messages {
		if m.Content.Parts == nil {
			parts = append(parts, m.Content.Text)
			continue
		}
		for _, p := range m.Content.Parts {
			if p.Text != "" {
				parts = append(parts, p.Text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// ResponsesResponse is the non-streaming Responses API body.
type ResponsesResponse struct {
	ID          string         `json:"id"`
	Object      string         `json:"object"`
	CreatedAt   int64          `json:"created_at"`
	CompletedAt *int64         `json:"completed_at,omitempty"`
	Model       string         `json:"model"`
	Status      string         `json:"status"`
	Output      []OutputItem   `json:"output"`
	OutputText  string         `json:"output_text,omitempty"`
	Usage       *ResponseUsage `json:"usage,omitempty"`
	Error       *ErrorBody     `json:"error"`
	Metadata    map[string]any `json:"metadata"`
}

// OutputItem is a reasoning or message item in the output array.
type OutputItem struct {
	ID      string        `json:"id"`
	Type    string        `json:"type"` // reasoning, message
	Status  string        `json:"status,omitempty"`
	Role    string        `json:"role,omitempty"`
	Content []ContentPart `json:"content,omitempty"`
	Summary []SummaryPart `json:"summary,omitempty"`
}

// ContentPart is one fragment of a message item.
type ContentPart struct {
	Type        string `json:"type"` // output_text
	Text        string `json:"text"`
	Annotations []any  `json:"annotations"`
}

// SummaryPart is one fragment of a reasoning item's summary.
type SummaryPart struct {
	Type string `json:"type"` // summary_text
	Text string `json:"text"`
}

// ResponseUsage reports Responses API token consumption.
type ResponseUsage struct {
	InputTokens         int                  `json:"input_tokens"`
	OutputTokens        int                  `json:"output_tokens"`
	TotalTokens         int                  `json:"total_tokens"`
	OutputTokensDetails *OutputTokensDetails `json:"output_tokens_details,omitempty"`
}

// OutputTokensDetails breaks out reasoning tokens.
type OutputTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

// Stream event type names, in emission order.
const (
	EventResponseCreated          = "response.created"
	EventResponseInProgress       = "response.in_progress"
	EventOutputItemAdded          = "response.output_item.added"
	EventReasoningSummaryPartAdd  = "response.reasoning_summary_part.added"
	EventReasoningSummaryDelta    = "response.reasoning_summary_text.delta"
	EventReasoningSummaryDone     = "response.reasoning_summary_text.done"
	EventReasoningSummaryPartDone = "response.reasoning_summary_part.done"
	EventOutputItemDone           = "response.output_item.done"
	EventContentPartAdded         = "response.content_part.added"
	EventOutputTextDelta          = "response.output_text.delta"
	EventOutputTextDone           = "response.output_text.done"
	EventContentPartDone          = "response.content_part.done"
	EventResponseCompleted        = "response.completed"
)

// StreamEvent is one labeled SSE event of a streamed response. The Type
// field doubles as the SSE event name.
type StreamEvent struct {
	Type           string             `json:"type"`
	SequenceNumber int                `json:"sequence_number"`
	Response       *ResponsesResponse `json:"response,omitempty"`
	OutputIndex    *int               `json:"output_index,omitempty"`
	Item           *OutputItem        `json:"item,omitempty"`
	ItemID         string             `json:"item_id,omitempty"`
	ContentIndex   *int               `json:"content_index,omitempty"`
	SummaryIndex   *int               `json:"summary_index,omitempty"`
	Part           any                `json:"part,omitempty"`
	Delta          string             `json:"delta,omitempty"`
	Text           string             `json:"text,omitempty"`
}

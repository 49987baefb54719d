// Package openresponses covers the OpenResponses dialect of the Responses
// API. The wire shapes and ID scheme match the OpenAI ones; what differs
// is the completed_at timestamp on the final response.
package openresponses

import "github.com/llmsim/llmsim/internal/api/openai"

// Request and response bodies are shape-identical to the OpenAI dialect.
type (
	Request  = openai.ResponsesRequest
	Response = openai.ResponsesResponse
)

// NewResponseID mints a resp_-prefixed response ID.
func NewResponseID() string { return openai.HexID("resp_") }

// NewMessageID mints an msg_-prefixed output item ID.
func NewMessageID() string { return openai.HexID("msg_") }

// NewReasoningID mints an rs_-prefixed reasoning item ID.
func NewReasoningID() string { return openai.HexID("rs_") }

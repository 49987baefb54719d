package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/llmsim/llmsim/internal/api/openai"
)

var validRoles = map[string]bool{
	"system":    true,
	"developer": true,
	"user":      true,
	"assistant": true,
	"tool":      true,
}

// writeInvalidRequest sends the OpenAI-style 400 envelope. Validation
// failures happen before the request reaches the stats aggregator, so
// they never show up in the error counters.
func writeInvalidRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, openai.ErrorEnvelope{
		Error: openai.ErrorBody{
			Type:    "invalid_request_error",
			Message: message,
		},
	})
}

func validateChatRequest(req *openai.ChatCompletionRequest) error {
	if len(req.Messages) == 0 {
		return fmt.Errorf("messages must be a non-empty array")
	}
	for _, m := range req.Messages {
		if !validRoles[m.Role] {
			return fmt.Errorf("invalid role %q", m.Role)
		}
	}
	return validateTemperature(req.Temperature)
}

func validateResponsesRequest(req *openai.ResponsesRequest) error {
	if req.Input.IsZero() {
		return fmt.Errorf("input is required")
	}
	for _, m := range req.Input.Messages {
		if !validRoles[m.Role] {
			return fmt.Errorf("invalid role %q", m.Role)
		}
	}
	return validateTemperature(req.Temperature)
}

func validateTemperature(t *float64) error {
	if t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("temperature %v must be between 0 and 2", *t)
	}
	return nil
}

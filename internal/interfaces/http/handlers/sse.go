package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/llmsim/llmsim/internal/api/openai"
	"github.com/llmsim/llmsim/internal/domain/faults"
	"github.com/llmsim/llmsim/internal/domain/stats"
	"github.com/llmsim/llmsim/internal/domain/stream"
)

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
}

// writeSSEData writes a data-only frame (Chat Completions style).
func writeSSEData(w gin.ResponseWriter, logger *zap.Logger, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal SSE payload", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	w.Flush()
}

// writeSSEEvent writes a labeled frame (Responses API style): the event
// name line plus the JSON data, which itself carries the same type.
func writeSSEEvent(w gin.ResponseWriter, logger *zap.Logger, event *openai.StreamEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal SSE event", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
	w.Flush()
}

func writeDone(w gin.ResponseWriter) {
	io.WriteString(w, "data: [DONE]\n\n")
	w.Flush()
}

// writeFault serializes an injected fault as the OpenAI error envelope.
// Timeout faults hang for their configured fuse first, honoring client
// disconnect while waiting.
func writeFault(c *gin.Context, fault *faults.Fault, handle *stats.RequestHandle) {
	if fault.Class == faults.ClassTimeout {
		fuse := time.Duration(fault.TimeoutAfterMs) * time.Millisecond
		select {
		case <-c.Request.Context().Done():
			handle.Error(stats.ErrClientAbort)
			handle.End()
			return
		case <-time.After(fuse):
		}
	}

	handle.Error(faultErrorKind(fault))
	if fault.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(fault.RetryAfter))
	}
	c.JSON(fault.Status, openai.ErrorEnvelope{
		Error: openai.ErrorBody{
			Type:    fault.Type,
			Message: fault.Message,
			Code:    fault.Code,
		},
	})
	handle.End()
}

func faultErrorKind(fault *faults.Fault) stats.ErrorKind {
	switch fault.Class {
	case faults.ClassRateLimit:
		return stats.ErrRateLimit
	case faults.ClassTimeout:
		return stats.ErrTimeout
	default:
		return stats.ErrServer
	}
}

// endStream records the terminal accounting for a pacing interruption.
func endStream(result stream.Result, handle *stats.RequestHandle) {
	switch result {
	case stream.Disconnected:
		handle.Error(stats.ErrClientAbort)
	case stream.TimedOut:
		handle.Error(stats.ErrTimeout)
	}
	handle.End()
}

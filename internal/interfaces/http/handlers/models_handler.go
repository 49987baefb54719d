package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/llmsim/llmsim/internal/api/openai"
	"github.com/llmsim/llmsim/internal/domain/models"
)

// ModelsHandler serves the model catalog endpoints.
type ModelsHandler struct {
	registry *models.Registry
}

func NewModelsHandler(registry *models.Registry) *ModelsHandler {
	return &ModelsHandler{registry: registry}
}

// ModelsListResponse mirrors OpenAI's list envelope.
type ModelsListResponse struct {
	Object string               `json:"object"`
	Data   []models.ModelObject `json:"data"`
}

// List handles GET /openai/v1/models.
func (h *ModelsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, ModelsListResponse{
		Object: "list",
		Data:   h.registry.List(),
	})
}

// Get handles GET /openai/v1/models/:id.
func (h *ModelsHandler) Get(c *gin.Context) {
	id := c.Param("id")
	obj, ok := h.registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, openai.ErrorEnvelope{
			Error: openai.ErrorBody{
				Type:    "invalid_request_error",
				Message: "The model '" + id + "' does not exist",
				Code:    "model_not_found",
				Param:   "model",
			},
		})
		return
	}
	c.JSON(http.StatusOK, obj)
}

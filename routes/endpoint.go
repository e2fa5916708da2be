package routes

import (
	"context"
	"net/http"
	"strings"

	"movewell-assistant/models"

	"github.com/gin-gonic/gin"
)

// Answerer runs the stateless retrieval + completion pipeline.
type Answerer interface {
	Answer(ctx context.Context, message string) string
}

// SetupEndpointRoutes registers POST /endpoint, the minimal pass-through used
// by external channels. It keeps its own {"error": ...} body.
func SetupEndpointRoutes(router *gin.Engine, answerer Answerer) {
	router.POST("/endpoint", handleEndpoint(answerer))
}

func handleEndpoint(answerer Answerer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.EndpointRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No message provided"})
			return
		}

		reply := answerer.Answer(c.Request.Context(), req.Message)
		c.JSON(http.StatusOK, models.EndpointResponse{Reply: reply})
	}
}

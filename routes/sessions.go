package routes

import (
	"context"
	"errors"
	"net/http"

	"movewell-assistant/internal/logger"
	"movewell-assistant/middleware"
	"movewell-assistant/models"
	"movewell-assistant/services"
	"movewell-assistant/utils"

	"github.com/gin-gonic/gin"
)

// SessionFlow is the session-facing side of the chat flow.
type SessionFlow interface {
	StartSession(ctx context.Context) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SubmitContact(ctx context.Context, id string, contact models.ContactDetails) (*models.Session, string, error)
	StartIntake(ctx context.Context, id string) (*models.Session, error)
	SubmitIntake(ctx context.Context, id string, answers models.PhysioIntake) (*models.Session, error)
	SendMessage(ctx context.Context, id, message string) (*models.ChatResponse, error)
}

func SetupSessionRoutes(router *gin.Engine, flow SessionFlow) {
	sessions := router.Group("/sessions")

	sessions.POST("", handleStartSession(flow))
	sessions.GET("/:id", handleGetSession(flow))
	sessions.POST("/:id/contact", handleSubmitContact(flow))
	sessions.POST("/:id/intake/start", handleStartIntake(flow))
	sessions.POST("/:id/intake", handleSubmitIntake(flow))
	sessions.POST("/:id/messages", handleSendMessage(flow))
}

func handleStartSession(flow SessionFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := flow.StartSession(c.Request.Context())
		if err != nil {
			respondFlowError(c, err)
			return
		}
		c.JSON(http.StatusCreated, s)
	}
}

func handleGetSession(flow SessionFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := flow.GetSession(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondFlowError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func handleSubmitContact(flow SessionFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		var contact models.ContactDetails
		if err := c.ShouldBindJSON(&contact); err != nil {
			utils.RespondWithError(c, http.StatusUnprocessableEntity, "validation_failed",
				"Please enter a valid email and phone number", validationDetails(err))
			return
		}

		s, reply, err := flow.SubmitContact(c.Request.Context(), c.Param("id"), contact)
		if err != nil {
			respondFlowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": reply, "session": s})
	}
}

func handleStartIntake(flow SessionFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := flow.StartIntake(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondFlowError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func handleSubmitIntake(flow SessionFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		var answers models.PhysioIntake
		if err := c.ShouldBindJSON(&answers); err != nil {
			utils.RespondWithError(c, http.StatusUnprocessableEntity, "validation_failed",
				"Invalid intake answers", validationDetails(err))
			return
		}

		s, err := flow.SubmitIntake(c.Request.Context(), c.Param("id"), answers)
		if err != nil {
			respondFlowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Intake submitted. You may now chat with the assistant.", "session": s})
	}
}

func handleSendMessage(flow SessionFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", validationDetails(err))
			return
		}

		resp, err := flow.SendMessage(c.Request.Context(), c.Param("id"), req.Message)
		if err != nil {
			respondFlowError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func respondFlowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		utils.RespondWithNotFound(c, "Session not found")
	case errors.Is(err, services.ErrChatDisabled):
		utils.RespondWithError(c, http.StatusForbidden, "chat_disabled",
			"Please submit your contact details to start chatting", nil)
	case errors.Is(err, services.ErrIntakeNotStarted):
		utils.RespondWithError(c, http.StatusConflict, "intake_not_started",
			"Start the intake questionnaire first", nil)
	default:
		logger.Error("Session request failed",
			"request_id", middleware.GetRequestID(c),
			"session_id", c.Param("id"),
			"error", err,
		)
		utils.RespondWithInternalError(c, "Something went wrong, please try again", nil)
	}
}

package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	jobDTO "github.com/karlis-benefelds/forum-transcriber/internal/adapter/dto/job"
	"github.com/karlis-benefelds/forum-transcriber/pkg/llm"
)

// Answerer answers questions about a completed transcript
type Answerer interface {
	Ask(ctx context.Context, jobID uuid.UUID, question string, history []llm.Message) (string, error)
}

// Chat handles transcript Q&A HTTP requests
type Chat struct {
	answerer Answerer
	logger   *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(answerer Answerer, logger *zap.Logger) *Chat {
	return &Chat{
		answerer: answerer,
		logger:   logger,
	}
}

// Ask handles POST /jobs/:id/chat
func (h *Chat) Ask(c echo.Context) error {
	if h.answerer == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"error":   "chat_unavailable",
			"message": "chat is not configured, set LLM_API_KEY",
		})
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_job_id",
			"message": "job id must be a valid UUID",
		})
	}

	var req jobDTO.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "validation_failed",
			"message": err.Error(),
		})
	}

	history := make([]llm.Message, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}

	answer, err := h.answerer.Ask(c.Request().Context(), id, req.Question, history)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return c.JSON(http.StatusOK, jobDTO.ChatResponse{JobID: id, Answer: answer})
}

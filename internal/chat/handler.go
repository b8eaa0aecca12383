package chat

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"coachteam/internal/routing"
	"coachteam/pkg/llm"
	"coachteam/pkg/logging"

	"github.com/gin-gonic/gin"
)

const maxMessageRunes = 4000

type Handler struct {
	Orchestrator *Orchestrator
	Logger       logging.Logger
}

func NewHandler(orchestrator *Orchestrator, logger logging.Logger) *Handler {
	return &Handler{Orchestrator: orchestrator, Logger: logger}
}

func RegisterRoutes(router gin.IRoutes, handler *Handler) {
	router.POST("/messages", handler.HandleSendMessage)
	router.GET("/threads/:id", handler.HandleGetThread)
}

type SendMessageRequest struct {
	Channel  string `json:"channel"`
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

func (h *Handler) HandleSendMessage(c *gin.Context) {
	userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
	if userID == "" {
		writeError(c, http.StatusUnauthorized, "unauthorized", "user identity is required")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_payload", "invalid request payload")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(c, http.StatusBadRequest, "message_required", "message is required")
		return
	}
	if len([]rune(req.Message)) > maxMessageRunes {
		writeError(c, http.StatusBadRequest, "message_too_long", "message too long")
		return
	}
	channel, err := routing.ParseRole(req.Channel)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_channel", "unknown channel")
		return
	}

	result, err := h.Orchestrator.SendMessage(c.Request.Context(), SendMessageInput{
		UserID:   userID,
		Channel:  channel,
		Text:     req.Message,
		ThreadID: strings.TrimSpace(req.ThreadID),
	})
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) HandleGetThread(c *gin.Context) {
	userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
	if userID == "" {
		writeError(c, http.StatusUnauthorized, "unauthorized", "user identity is required")
		return
	}
	threadID := c.Param("id")
	if threadID == "" {
		writeError(c, http.StatusBadRequest, "thread_id_required", "thread id is required")
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, "invalid_limit", "invalid limit")
			return
		}
		limit = n
	}

	thread, messages, err := h.Orchestrator.GetThread(c.Request.Context(), userID, threadID, limit)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread, "messages": messages})
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func (h *Handler) writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrThreadNotFound):
		writeError(c, http.StatusNotFound, "thread_not_found", "thread not found")
	case errors.Is(err, ErrThreadForbidden):
		writeError(c, http.StatusForbidden, "forbidden", "thread belongs to another user")
	case llm.IsTimeout(err):
		writeError(c, http.StatusGatewayTimeout, "completion_timeout", "the team is taking too long to answer")
	case llm.IsRateLimited(err):
		writeError(c, http.StatusTooManyRequests, "completion_rate_limited", "too many requests, try again shortly")
	default:
		var llmErr *llm.Error
		if errors.As(err, &llmErr) {
			writeError(c, http.StatusBadGateway, "completion_failed", "the team could not answer right now")
			return
		}
		h.Logger.WithError(err).Error("Message turn failed")
		writeError(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}

package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/niranjanisuresh/YouConnect/internal/config"
	"github.com/niranjanisuresh/YouConnect/internal/service"
	"github.com/niranjanisuresh/YouConnect/pkg/response"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// HTTPHandler exposes the read-side REST surface of the chat core:
// history, room stats, and a chatbot probe endpoint.
type HTTPHandler struct {
	service      service.ChatService
	historyLimit int
}

func NewHTTPHandler(svc service.ChatService, chatCfg config.ChatConfig) *HTTPHandler {
	limit := chatCfg.HistoryLimit
	if limit <= 0 {
		limit = defaultLimit
	}
	return &HTTPHandler{service: svc, historyLimit: limit}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/chat/:video_id", h.GetHistory)
		api.GET("/chat/:video_id/stats", h.GetStats)
		api.POST("/chat/bot/test", h.TestBot)
	}

	r.GET("/health", h.HealthCheck)
}

func (h *HTTPHandler) GetHistory(c *gin.Context) {
	videoID := c.Param("video_id")
	if videoID == "" {
		response.BadRequest(c, "video_id is required")
		return
	}

	limit := parsePositive(c.Query("limit"), h.historyLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := parsePositive(c.Query("offset"), 0)

	response.Success(c, h.service.History(videoID, limit, offset))
}

func (h *HTTPHandler) GetStats(c *gin.Context) {
	videoID := c.Param("video_id")
	if videoID == "" {
		response.BadRequest(c, "video_id is required")
		return
	}

	stats, ok := h.service.Stats(videoID)
	if !ok {
		response.NotFound(c, "no chat log for this video")
		return
	}
	response.Success(c, stats)
}

type testBotRequest struct {
	Message    string `json:"message" binding:"required"`
	VideoTitle string `json:"video_title"`
}

type testBotResponse struct {
	UserMessage string `json:"user_message"`
	BotResponse string `json:"bot_response"`
	Category    string `json:"category"`
}

// TestBot classifies a message and returns the canned reply without
// touching any room state.
func (h *HTTPHandler) TestBot(c *gin.Context) {
	var req testBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "message is required")
		return
	}

	reply, category := h.service.TestBot(req.Message, req.VideoTitle)
	response.Success(c, testBotResponse{
		UserMessage: req.Message,
		BotResponse: reply,
		Category:    category,
	})
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{"status": "OK"})
}

func parsePositive(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

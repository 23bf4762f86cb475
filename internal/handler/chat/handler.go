package chat

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	chatService "github.com/zhouzirui/quickchat/backend/internal/service/chat"
	"github.com/zhouzirui/quickchat/backend/pkg/utils"
)

// ErrorMessage is the single error body returned for every failed exchange.
// Which step failed is only logged.
const ErrorMessage = "failed to generate reply"

// Request 是 POST /api/chat 的请求体
type Request struct {
	Message string `json:"message"`
}

// Response 是成功时的响应体
type Response struct {
	Reply string `json:"reply"`
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

// handleChat 处理一轮对话：持久化用户消息、调用模型、持久化回复
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))

	var payload Request
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn("invalid chat request body", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, ErrorMessage)
		return
	}

	reply, err := h.chatSvc.Exchange(r.Context(), payload.Message)
	if err != nil {
		step, _ := chatService.FailedStep(err)
		logger.Error("chat exchange failed",
			zap.String("step", string(step)),
			zap.Int("message_len", len(payload.Message)),
			zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, ErrorMessage)
		return
	}

	utils.RespondJSON(w, http.StatusOK, Response{Reply: reply})
}

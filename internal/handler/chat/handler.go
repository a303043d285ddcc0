package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/qanoonbuddy/backend/internal/analysis/area"
	"github.com/qanoonbuddy/backend/internal/observability"
	chatService "github.com/qanoonbuddy/backend/internal/service/chat"
	"github.com/qanoonbuddy/backend/pkg/utils"
)

// maxBodyBytes 限制聊天类 JSON 请求体大小
const maxBodyBytes = 64 << 10

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	metrics *observability.Collector
	logger  *zap.Logger
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, metrics *observability.Collector, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		metrics: metrics,
		logger:  logger,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Delete("/", h.handleDeleteSession)
			r.Put("/credential", h.handleSetCredential)
			r.Post("/messages", h.handleSendMessage)
		})
	})
}

type createSessionRequest struct {
	PersonaID string `json:"personaId" validate:"omitempty,max=64"`
}

type credentialRequest struct {
	APIKey string `json:"apiKey" validate:"max=512"`
}

type messageRequest struct {
	Content string `json:"content" validate:"notblank,max=8000"`
}

type messageResponse struct {
	chatService.Reply
	Area area.Label `json:"area"`
}

// handleCreateSession 创建会话，personaId 为空时使用默认 persona
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload createSessionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(r, &payload); err != nil {
			utils.RespondDomainError(w, err)
			return
		}
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.PersonaID)
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleGetSession 返回会话及完整对话记录
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		utils.RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetCredential 保存会话级 API Key。环境变量中的 key 始终优先。
func (h *Handler) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	var payload credentialRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if err := h.chatSvc.SetCredential(r.Context(), sessionID, payload.APIKey); err != nil {
		utils.RespondDomainError(w, err)
		return
	}
	available, err := h.chatSvc.BackendAvailable(r.Context(), sessionID)
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"backendAvailable": available})
}

// handleSendMessage 追加用户消息并返回助手回复
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	reply, err := h.chatSvc.SendMessage(r.Context(), sessionID, payload.Content)
	if err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	decision := area.Analyze(payload.Content)
	h.metrics.ObserveQuestion(string(decision.Area))
	h.logger.Debug("chat message handled",
		zap.String("session", sessionID),
		zap.String("area", string(decision.Area)),
		zap.Bool("failed", reply.Failed),
	)

	utils.RespondJSON(w, http.StatusOK, messageResponse{Reply: reply, Area: decision.Area})
}

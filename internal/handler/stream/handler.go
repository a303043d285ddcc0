package stream

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/qanoonbuddy/backend/internal/analysis/area"
	"github.com/qanoonbuddy/backend/internal/observability"
	chatService "github.com/qanoonbuddy/backend/internal/service/chat"
	"github.com/qanoonbuddy/backend/pkg/utils"
)

// Handler manages streaming AI responses via Server-Sent Events
type Handler struct {
	chatSvc *chatService.Service
	metrics *observability.Collector
	logger  *zap.Logger
}

// New creates a new stream handler
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

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Area      string `json:"area,omitempty"`
	Failed    bool   `json:"failed,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RegisterRoutes 注册流式聊天路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// handleStream runs one chat turn and relays the reply as SSE events:
// start, delta*, message | warning | error, end.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")
	if strings.TrimSpace(userMessage) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	ctx := r.Context()
	if _, err := h.chatSvc.GetSession(ctx, sessionID); err != nil {
		utils.RespondDomainError(w, err)
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	decision := area.Analyze(userMessage)
	h.metrics.ObserveQuestion(string(decision.Area))

	h.send(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		Area:      string(decision.Area),
	})

	reply, err := h.chatSvc.StreamMessage(ctx, sessionID, userMessage, func(delta string) {
		h.send(w, flusher, StreamResponse{
			Event:     "delta",
			SessionID: sessionID,
			Content:   delta,
		})
	})
	switch {
	case err != nil:
		h.logger.Warn("stream request failed", zap.String("session", sessionID), zap.Error(err))
		h.send(w, flusher, StreamResponse{Event: "error", SessionID: sessionID, Error: err.Error()})
	case reply.Warning != "":
		h.send(w, flusher, StreamResponse{Event: "warning", SessionID: sessionID, Content: reply.Warning})
	case reply.Assistant != nil:
		h.send(w, flusher, StreamResponse{
			Event:     "message",
			SessionID: sessionID,
			Content:   reply.Assistant.Content,
			Failed:    reply.Failed,
		})
	}

	h.send(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})
	h.logger.Debug("stream completed", zap.String("session", sessionID), zap.Bool("failed", reply.Failed))
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

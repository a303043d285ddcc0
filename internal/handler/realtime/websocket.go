package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qanoonbuddy/backend/internal/analysis/area"
	"github.com/qanoonbuddy/backend/internal/domain"
	"github.com/qanoonbuddy/backend/internal/observability"
	chatservice "github.com/qanoonbuddy/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
	maxFrame     = 64 << 10
)

// WebSocketHandler WebSocket文字聊天处理器
type WebSocketHandler struct {
	chatSvc     *chatservice.Service
	metrics     *observability.Collector
	logger      *zap.Logger
	upgrader    websocket.Upgrader
	readTimeout time.Duration
}

// NewWebSocketHandler 创建WebSocket处理器。allowedOrigins 为空或含 "*" 时不校验来源。
func NewWebSocketHandler(chatSvc *chatservice.Service, allowedOrigins []string, metrics *observability.Collector, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		chatSvc:     chatSvc,
		metrics:     metrics,
		logger:      logger,
		readTimeout: readTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

// CredentialMessage 会话级 API Key
type CredentialMessage struct {
	APIKey string `json:"apiKey"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// conn serializes writes; gorilla allows one concurrent writer.
type conn struct {
	ws        *websocket.Conn
	mu        sync.Mutex
	sessionID string
	logger    *zap.Logger
}

func (c *conn) writeJSON(msg outgoingMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteJSON(msg); err != nil {
		c.logger.Debug("websocket write failed", zap.String("session", c.sessionID), zap.Error(err))
	}
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (c *conn) sendInfo(data map[string]any) {
	c.writeJSON(outgoingMessage{
		Type:      "result",
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (c *conn) sendError(message string) {
	c.writeJSON(outgoingMessage{
		Type:      "error",
		SessionID: c.sessionID,
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	})
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	c := &conn{ws: ws, sessionID: sessionID, logger: h.logger}
	h.logger.Info("websocket connected", zap.String("session", sessionID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ws.SetReadLimit(maxFrame)
	_ = ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	go h.pingLoop(ctx, c)

	c.sendInfo(map[string]any{
		"type":    "connected",
		"persona": session.PersonaID,
		"history": session.History,
	})

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Info("websocket read error", zap.String("session", sessionID), zap.Error(err))
			}
			return
		}
		if msg.SessionID != "" && msg.SessionID != sessionID {
			c.sendError("session mismatch")
			continue
		}
		h.handleMessage(ctx, c, &msg)
		// 模型回复可能超过读超时，处理完再续期
		_ = ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, c *conn, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		h.handleTextMessage(ctx, c, msg.Data)
	case "credential":
		h.handleCredentialMessage(ctx, c, msg.Data)
	case "history":
		history, err := h.chatSvc.LoadTranscript(ctx, c.sessionID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.sendInfo(map[string]any{"type": "history", "history": history})
	default:
		c.sendError("unsupported message type: " + msg.Type)
	}
}

func (h *WebSocketHandler) handleCredentialMessage(ctx context.Context, c *conn, raw json.RawMessage) {
	var cred CredentialMessage
	if err := json.Unmarshal(raw, &cred); err != nil {
		c.sendError("invalid credential payload")
		return
	}
	if err := h.chatSvc.SetCredential(ctx, c.sessionID, cred.APIKey); err != nil {
		c.sendError(err.Error())
		return
	}
	available, _ := h.chatSvc.BackendAvailable(ctx, c.sessionID)
	c.sendInfo(map[string]any{"type": "credential", "backendAvailable": available})
}

func (h *WebSocketHandler) handleTextMessage(ctx context.Context, c *conn, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		c.sendError("invalid text payload")
		return
	}
	if strings.TrimSpace(text.Text) == "" {
		c.sendError("message is empty")
		return
	}

	decision := area.Analyze(text.Text)
	h.metrics.ObserveQuestion(string(decision.Area))
	c.sendInfo(map[string]any{
		"type": "user",
		"text": text.Text,
		"area": decision.Area,
	})

	reply, err := h.chatSvc.StreamMessage(ctx, c.sessionID, text.Text, func(delta string) {
		c.sendInfo(map[string]any{
			"type": "ai_delta",
			"text": delta,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.sendError("session not found")
			return
		}
		c.sendError(err.Error())
		return
	}

	if reply.Warning != "" {
		c.sendInfo(map[string]any{"type": "warning", "text": reply.Warning})
		return
	}
	if reply.Assistant != nil {
		c.sendInfo(map[string]any{
			"type":    "ai",
			"text":    reply.Assistant.Content,
			"failed":  reply.Failed,
			"isFinal": true,
		})
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	open := len(allowed) == 0
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			open = true
		}
		set[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		if open {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			// 非浏览器客户端
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

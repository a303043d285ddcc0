package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanoonbuddy/backend/internal/domain"
	"github.com/qanoonbuddy/backend/internal/model/persona"
	"github.com/qanoonbuddy/backend/internal/service/ai"
	chatservice "github.com/qanoonbuddy/backend/internal/service/chat"
)

type overrideResolver struct{}

func (overrideResolver) Available(override string) bool { return override != "" }

func (r overrideResolver) Resolve(_ context.Context, override string) (ai.Backend, error) {
	if !r.Available(override) {
		return nil, domain.ErrBackendUnavailable
	}
	return ai.BackendFunc(func(context.Context, string) (string, error) {
		return "File the return before 30 September.", nil
	}), nil
}

type slowResolver struct{ delay time.Duration }

func (slowResolver) Available(string) bool { return true }

func (r slowResolver) Resolve(context.Context, string) (ai.Backend, error) {
	return ai.BackendFunc(func(ctx context.Context, _ string) (string, error) {
		select {
		case <-time.After(r.delay):
			return "Section 7 of the Muslim Family Laws Ordinance applies.", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}), nil
}

func startServer(t *testing.T) (*httptest.Server, *chatservice.Service, string) {
	t.Helper()
	return startServerWith(t, overrideResolver{}, readTimeout)
}

func startServerWith(t *testing.T, resolver chatservice.BackendResolver, idle time.Duration) (*httptest.Server, *chatservice.Service, string) {
	t.Helper()
	chatSvc := chatservice.NewService(persona.NewMemoryStore(persona.Seed()), resolver, chatservice.Options{})
	session, err := chatSvc.CreateSession(context.Background(), "")
	require.NoError(t, err)

	h := NewWebSocketHandler(chatSvc, nil, nil, nil)
	h.readTimeout = idle
	r := chi.NewRouter()
	h.RegisterWebSocketRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, chatSvc, session.ID
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readResult(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, ws.ReadJSON(&msg))
	msg.Data["_envelope"] = msg.Type
	return msg.Data
}

func TestWebSocketChatRoundTrip(t *testing.T) {
	srv, chatSvc, id := startServer(t)
	ws := dial(t, srv, id)

	connected := readResult(t, ws)
	assert.Equal(t, "connected", connected["type"])
	assert.Equal(t, "qanoon-buddy", connected["persona"])

	require.NoError(t, ws.WriteJSON(map[string]any{"type": "credential", "data": map[string]string{"apiKey": "k"}}))
	cred := readResult(t, ws)
	assert.Equal(t, "credential", cred["type"])
	assert.Equal(t, true, cred["backendAvailable"])

	require.NoError(t, ws.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": "When is the FBR deadline?"}}))
	user := readResult(t, ws)
	assert.Equal(t, "user", user["type"])
	assert.Equal(t, "tax", user["area"])

	delta := readResult(t, ws)
	assert.Equal(t, "ai_delta", delta["type"])

	final := readResult(t, ws)
	assert.Equal(t, "ai", final["type"])
	assert.Equal(t, "File the return before 30 September.", final["text"])

	history, err := chatSvc.LoadTranscript(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestWebSocketSurvivesReplySlowerThanReadTimeout(t *testing.T) {
	srv, chatSvc, id := startServerWith(t, slowResolver{delay: 700 * time.Millisecond}, 300*time.Millisecond)
	ws := dial(t, srv, id)
	readResult(t, ws)

	for _, text := range []string{"What is khula?", "And talaq notice?"} {
		require.NoError(t, ws.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": text}}))
		assert.Equal(t, "user", readResult(t, ws)["type"])
		assert.Equal(t, "ai_delta", readResult(t, ws)["type"])
		assert.Equal(t, "ai", readResult(t, ws)["type"])
	}

	history, err := chatSvc.LoadTranscript(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

func TestWebSocketWarnsWithoutCredential(t *testing.T) {
	srv, _, id := startServer(t)
	ws := dial(t, srv, id)
	readResult(t, ws)

	require.NoError(t, ws.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": "hello"}}))
	readResult(t, ws)
	warning := readResult(t, ws)
	assert.Equal(t, "warning", warning["type"])
	assert.Equal(t, chatservice.UnavailableWarning, warning["text"])
}

func TestWebSocketRejectsUnknownType(t *testing.T) {
	srv, _, id := startServer(t)
	ws := dial(t, srv, id)
	readResult(t, ws)

	require.NoError(t, ws.WriteJSON(map[string]any{"type": "audio"}))
	msg := readResult(t, ws)
	assert.Equal(t, "error", msg["_envelope"])
	assert.Contains(t, msg["message"], "unsupported message type")
}

func TestWebSocketUnknownSession(t *testing.T) {
	srv, _, _ := startServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://qanoon.example/"})

	req := httptest.NewRequest(http.MethodGet, "/ws/x", nil)
	req.Header.Set("Origin", "https://qanoon.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://other.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}

package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanoonbuddy/backend/internal/domain"
	"github.com/qanoonbuddy/backend/internal/model/persona"
	"github.com/qanoonbuddy/backend/internal/service/ai"
	chatservice "github.com/qanoonbuddy/backend/internal/service/chat"
)

type chunkedBackend struct{}

func (chunkedBackend) Generate(context.Context, string) (string, error) {
	return "Under PECA 2016, cyber harassment is an offence.", nil
}

func (chunkedBackend) Stream(_ context.Context, _ string, onDelta func(string)) (string, error) {
	parts := []string{"Under PECA 2016, ", "cyber harassment ", "is an offence."}
	for _, p := range parts {
		onDelta(p)
	}
	return strings.Join(parts, ""), nil
}

type resolver struct{ available bool }

func (r resolver) Available(string) bool { return r.available }

func (r resolver) Resolve(context.Context, string) (ai.Backend, error) {
	if !r.available {
		return nil, domain.ErrBackendUnavailable
	}
	return chunkedBackend{}, nil
}

func setup(t *testing.T, available bool) (*chi.Mux, *chatservice.Service, string) {
	t.Helper()
	chatSvc := chatservice.NewService(persona.NewMemoryStore(persona.Seed()), resolver{available: available}, chatservice.Options{})
	session, err := chatSvc.CreateSession(context.Background(), "")
	require.NoError(t, err)

	r := chi.NewRouter()
	New(chatSvc, nil, nil).RegisterRoutes(r)
	return r, chatSvc, session.ID
}

func readEvents(t *testing.T, body string) []StreamResponse {
	t.Helper()
	var events []StreamResponse
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev StreamResponse
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func eventNames(events []StreamResponse) []string {
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Event)
	}
	return names
}

func TestStreamRelaysDeltasAndRecordsReply(t *testing.T) {
	r, chatSvc, id := setup(t, true)

	req := httptest.NewRequest(http.MethodGet, "/stream/"+id+"?message="+url.QueryEscape("Is online harassment a crime?"), nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))

	events := readEvents(t, resp.Body.String())
	assert.Equal(t, []string{"start", "delta", "delta", "delta", "message", "end"}, eventNames(events))
	assert.Equal(t, "cyber", events[0].Area)
	assert.Equal(t, "Under PECA 2016, cyber harassment is an offence.", events[4].Content)
	assert.True(t, events[5].Finished)

	history, err := chatSvc.LoadTranscript(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestStreamWithoutBackendSendsWarning(t *testing.T) {
	r, _, id := setup(t, false)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stream/"+id+"?message=hello", nil))

	events := readEvents(t, resp.Body.String())
	assert.Equal(t, []string{"start", "warning", "end"}, eventNames(events))
	assert.Equal(t, chatservice.UnavailableWarning, events[1].Content)
}

func TestStreamRequiresMessage(t *testing.T) {
	r, _, id := setup(t, true)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stream/"+id+"?message=%20", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStreamUnknownSession(t *testing.T) {
	r, _, _ := setup(t, true)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stream/missing?message=hi", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

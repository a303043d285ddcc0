package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qanoonbuddy/backend/internal/domain"
	chatmodel "github.com/qanoonbuddy/backend/internal/model/chat"
	"github.com/qanoonbuddy/backend/internal/model/persona"
	"github.com/qanoonbuddy/backend/internal/service/ai"
)

// UnavailableWarning is shown instead of calling the backend when no
// credential is configured.
const UnavailableWarning = domain.UnavailableWarning

// BackendResolver hands out the backend for a session's credential.
type BackendResolver interface {
	Available(sessionOverride string) bool
	Resolve(ctx context.Context, sessionOverride string) (ai.Backend, error)
}

// Options tunes a Service.
type Options struct {
	// HistoryTurns > 0 inlines that many earlier turns into each prompt.
	HistoryTurns int
	Logger       *zap.Logger
}

// Service owns the live sessions. Each session is guarded by its own mutex so
// requests for one session run one at a time while sessions stay independent.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	personas     persona.Store
	resolver     BackendResolver
	historyTurns int
	logger       *zap.Logger
}

type entry struct {
	mu         sync.Mutex
	id         string
	personaID  string
	createdAt  time.Time
	prompt     *PromptSession
	credential string
}

// Reply is the outcome of one user message.
type Reply struct {
	User      chatmodel.Turn   `json:"user"`
	Assistant *chatmodel.Turn  `json:"reply,omitempty"`
	Failed    bool             `json:"failed,omitempty"`
	Warning   string           `json:"warning,omitempty"`
	History   []chatmodel.Turn `json:"history"`
}

// NewService bootstraps the in-memory session service.
func NewService(personas persona.Store, resolver BackendResolver, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions:     make(map[string]*entry),
		personas:     personas,
		resolver:     resolver,
		historyTurns: opts.HistoryTurns,
		logger:       logger,
	}
}

// CreateSession provisions an anonymous session bound to a persona. An empty
// persona id selects the default persona.
func (s *Service) CreateSession(_ context.Context, personaID string) (chatmodel.Session, error) {
	var p persona.Persona
	if strings.TrimSpace(personaID) == "" {
		p = s.personas.Default()
	} else {
		found, ok := s.personas.FindByID(personaID)
		if !ok {
			return chatmodel.Session{}, fmt.Errorf("persona %q: %w", personaID, domain.ErrPersonaNotFound)
		}
		p = found
	}

	e := &entry{
		id:        uuid.NewString(),
		personaID: p.ID,
		createdAt: time.Now().UTC(),
		prompt:    NewPromptSession(p.SystemInstructions, p.OpeningLine),
	}

	s.mu.Lock()
	s.sessions[e.id] = e
	s.mu.Unlock()

	s.logger.Debug("session created", zap.String("session", e.id), zap.String("persona", p.ID))
	return e.view(), nil
}

// GetSession retrieves a session and its transcript.
func (s *Service) GetSession(_ context.Context, sessionID string) (chatmodel.Session, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return chatmodel.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view(), nil
}

// LoadTranscript returns a copy of the stored turns.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chatmodel.Turn, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prompt.History(), nil
}

// DeleteSession ends a session and drops its transcript.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// SetCredential stores an API key used by this session when the process
// environment has none. A blank key clears the override.
func (s *Service) SetCredential(_ context.Context, sessionID, apiKey string) error {
	e, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.credential = strings.TrimSpace(apiKey)
	e.mu.Unlock()
	return nil
}

// BackendAvailable reports whether a message sent now would reach the backend.
func (s *Service) BackendAvailable(_ context.Context, sessionID string) (bool, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	credential := e.credential
	e.mu.Unlock()
	return s.resolver.Available(credential), nil
}

// SendMessage appends the user message, asks the backend and records its
// reply. See send for the failure rules.
func (s *Service) SendMessage(ctx context.Context, sessionID, text string) (Reply, error) {
	return s.send(ctx, sessionID, text, nil)
}

// StreamMessage is SendMessage with partial output delivered to onDelta.
func (s *Service) StreamMessage(ctx context.Context, sessionID, text string, onDelta func(string)) (Reply, error) {
	if onDelta == nil {
		onDelta = func(string) {}
	}
	return s.send(ctx, sessionID, text, onDelta)
}

// send enforces the ordering: blank text is rejected before any change; the
// user turn is stored before the backend is called; an unavailable backend
// yields a warning and no assistant turn; any backend failure records
// FallbackReply.
func (s *Service) send(ctx context.Context, sessionID, text string, onDelta func(string)) (Reply, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return Reply{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	userTurn, err := e.prompt.AppendUserMessage(text)
	if err != nil {
		return Reply{}, err
	}
	reply := Reply{User: userTurn}

	backend, err := s.resolver.Resolve(ctx, e.credential)
	if errors.Is(err, domain.ErrBackendUnavailable) {
		s.logger.Info("backend unavailable, message kept without reply", zap.String("session", e.id))
		reply.Warning = UnavailableWarning
		reply.History = e.prompt.History()
		return reply, nil
	}

	var content string
	genErr := err
	if genErr == nil {
		content, genErr = s.generate(ctx, e, backend, onDelta)
	}
	if genErr != nil {
		s.logger.Warn("chat reply failed, recording fallback", zap.String("session", e.id), zap.Error(genErr))
		reply.Failed = true
	}

	assistant := e.prompt.RecordAssistantReply(content, genErr)
	reply.Assistant = &assistant
	reply.Failed = reply.Failed || assistant.Content == FallbackReply
	reply.History = e.prompt.History()
	return reply, nil
}

func (s *Service) generate(ctx context.Context, e *entry, backend ai.Backend, onDelta func(string)) (string, error) {
	promptText, err := e.prompt.BuildPromptWithHistory(s.historyTurns)
	if err != nil {
		return "", err
	}

	ctx = ai.WithTask(ctx, "chat")
	if onDelta == nil {
		return backend.Generate(ctx, promptText)
	}
	if streamer, ok := backend.(ai.Streamer); ok {
		return streamer.Stream(ctx, promptText, onDelta)
	}

	content, err := backend.Generate(ctx, promptText)
	if err == nil {
		onDelta(content)
	}
	return content, err
}

func (s *Service) lookup(sessionID string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return e, nil
}

// view must be called with e.mu held, or before e is published.
func (e *entry) view() chatmodel.Session {
	return chatmodel.Session{
		ID:        e.id,
		PersonaID: e.personaID,
		CreatedAt: e.createdAt,
		History:   e.prompt.History(),
	}
}

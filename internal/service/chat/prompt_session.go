package chat

import (
	"fmt"
	"strings"

	"github.com/qanoonbuddy/backend/internal/domain"
	chatmodel "github.com/qanoonbuddy/backend/internal/model/chat"
	"github.com/qanoonbuddy/backend/internal/service/ai"
)

// FallbackReply is recorded in place of a reply the backend failed to produce.
const FallbackReply = "Sorry, I couldn't generate a response. Please check your API key."

// DefaultGreeting opens a transcript when the persona has no opening line.
const DefaultGreeting = "Hello! I'm Qanoon Buddy. How can I help you with Pakistani law today?"

// PromptSession holds the transcript of one conversation and builds the
// prompts sent to the backend. It is not safe for concurrent use; Service
// serializes access per session.
type PromptSession struct {
	systemInstructions string
	turns              []chatmodel.Turn
	lastUser           int
}

// NewPromptSession starts a transcript with the assistant greeting.
func NewPromptSession(systemInstructions, greeting string) *PromptSession {
	if strings.TrimSpace(greeting) == "" {
		greeting = DefaultGreeting
	}
	turns := make([]chatmodel.Turn, 1, 16)
	turns[0] = chatmodel.AssistantTurn(greeting)
	return &PromptSession{
		systemInstructions: systemInstructions,
		turns:              turns,
		lastUser:           -1,
	}
}

// AppendUserMessage records a user turn. Blank text is rejected and leaves
// the transcript untouched.
func (s *PromptSession) AppendUserMessage(text string) (chatmodel.Turn, error) {
	if strings.TrimSpace(text) == "" {
		return chatmodel.Turn{}, fmt.Errorf("message is empty: %w", domain.ErrInvalidInput)
	}
	turn := chatmodel.UserTurn(text)
	s.lastUser = len(s.turns)
	s.turns = append(s.turns, turn)
	return turn, nil
}

// BuildPrompt returns the system instructions, a blank line and the latest
// user message. Earlier turns are not included.
func (s *PromptSession) BuildPrompt() (string, error) {
	return s.BuildPromptWithHistory(0)
}

// BuildPromptWithHistory additionally inlines up to historyTurns turns that
// precede the latest user message. Zero gives the BuildPrompt output.
func (s *PromptSession) BuildPromptWithHistory(historyTurns int) (string, error) {
	if s.lastUser < 0 {
		return "", fmt.Errorf("no user message to answer: %w", domain.ErrInvalidInput)
	}
	latest := s.turns[s.lastUser].Content
	if historyTurns <= 0 || s.lastUser == 0 {
		return ai.Compose(s.systemInstructions, latest), nil
	}

	start := s.lastUser - historyTurns
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, turn := range s.turns[start:s.lastUser] {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	b.WriteString("\nuser: ")
	b.WriteString(latest)
	return ai.Compose(s.systemInstructions, b.String()), nil
}

// RecordAssistantReply appends the assistant turn. A generation error or a
// blank reply records FallbackReply instead.
func (s *PromptSession) RecordAssistantReply(reply string, genErr error) chatmodel.Turn {
	content := reply
	if genErr != nil || strings.TrimSpace(reply) == "" {
		content = FallbackReply
	}
	turn := chatmodel.AssistantTurn(content)
	s.turns = append(s.turns, turn)
	return turn
}

// History returns a copy of the transcript, oldest first.
func (s *PromptSession) History() []chatmodel.Turn {
	return append([]chatmodel.Turn(nil), s.turns...)
}

// Len reports the number of turns.
func (s *PromptSession) Len() int {
	return len(s.turns)
}

// SystemInstructions returns the instructions fixed at creation.
func (s *PromptSession) SystemInstructions() string {
	return s.systemInstructions
}

package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanoonbuddy/backend/internal/config"
	"github.com/qanoonbuddy/backend/internal/domain"
	"github.com/qanoonbuddy/backend/internal/observability"
)

func lenientBreaker() config.BreakerConfig {
	return config.BreakerConfig{MaxRequests: 1, MinRequests: 100, FailureThreshold: 1}
}

func TestChainBackendGeneratePassesPromptVerbatim(t *testing.T) {
	fake := &fakeChatModel{reply: "Khula is a wife-initiated divorce."}
	backend, err := NewChainBackend(context.Background(), fake, ChainOptions{Breaker: lenientBreaker()})
	require.NoError(t, err)

	prompt := "You are Qanoon Buddy.\n\nWhat does section {2} say?"
	got, err := backend.Generate(context.Background(), prompt)
	require.NoError(t, err)

	assert.Equal(t, "Khula is a wife-initiated divorce.", got)
	require.Equal(t, 1, fake.calls())
	assert.Equal(t, prompt, fake.prompts[0])
}

func TestChainBackendEmptyReplyIsBackendError(t *testing.T) {
	fake := &fakeChatModel{reply: "   "}
	backend, err := NewChainBackend(context.Background(), fake, ChainOptions{Breaker: lenientBreaker()})
	require.NoError(t, err)

	_, err = backend.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, domain.ErrBackend)
}

func TestChainBackendModelErrorIsBackendError(t *testing.T) {
	metrics := observability.NewCollector("test")
	fake := &fakeChatModel{err: errors.New("quota exceeded")}
	backend, err := NewChainBackend(context.Background(), fake, ChainOptions{Breaker: lenientBreaker(), Metrics: metrics})
	require.NoError(t, err)

	_, err = backend.Generate(WithTask(context.Background(), "translate"), "hi")
	require.ErrorIs(t, err, domain.ErrBackend)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestChainBackendBreakerOpensAfterFailures(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("boom")}
	backend, err := NewChainBackend(context.Background(), fake, ChainOptions{
		Breaker: config.BreakerConfig{MaxRequests: 1, MinRequests: 1, FailureThreshold: 0.5},
	})
	require.NoError(t, err)

	_, err = backend.Generate(context.Background(), "first")
	require.ErrorIs(t, err, domain.ErrBackend)

	_, err = backend.Generate(context.Background(), "second")
	require.ErrorIs(t, err, domain.ErrBackend)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 1, fake.calls())
}

func TestChainBackendStreamDeliversDeltas(t *testing.T) {
	fake := &fakeChatModel{chunks: []string{"Maintenance ", "is ", "owed."}}
	backend, err := NewChainBackend(context.Background(), fake, ChainOptions{Streaming: true, Breaker: lenientBreaker()})
	require.NoError(t, err)

	var deltas []string
	full, err := backend.Stream(context.Background(), "q", func(d string) { deltas = append(deltas, d) })
	require.NoError(t, err)

	assert.Equal(t, []string{"Maintenance ", "is ", "owed."}, deltas)
	assert.Equal(t, "Maintenance is owed.", full)
}

func TestChainBackendStreamDisabledUsesGenerate(t *testing.T) {
	fake := &fakeChatModel{reply: "whole answer"}
	backend, err := NewChainBackend(context.Background(), fake, ChainOptions{Streaming: false, Breaker: lenientBreaker()})
	require.NoError(t, err)

	var deltas []string
	full, err := backend.Stream(context.Background(), "q", func(d string) { deltas = append(deltas, d) })
	require.NoError(t, err)
	assert.Equal(t, "whole answer", full)
	assert.Equal(t, []string{"whole answer"}, deltas)
}

func TestNewChainBackendRejectsNilModel(t *testing.T) {
	_, err := NewChainBackend(context.Background(), nil, ChainOptions{})
	assert.Error(t, err)
}

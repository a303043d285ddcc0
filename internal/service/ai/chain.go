package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/qanoonbuddy/backend/internal/config"
	"github.com/qanoonbuddy/backend/internal/domain"
	"github.com/qanoonbuddy/backend/internal/observability"
)

var errEmptyResponse = errors.New("model returned an empty response")

// ChainBackend runs prompts through an eino chain (template -> chat model)
// guarded by a circuit breaker.
type ChainBackend struct {
	chain     compose.Runnable[map[string]any, *schema.Message]
	breaker   *gobreaker.CircuitBreaker
	streaming bool
	logger    *zap.Logger
	metrics   *observability.Collector
}

// ChainOptions configures a ChainBackend.
type ChainOptions struct {
	Name      string
	Streaming bool
	Breaker   config.BreakerConfig
	Logger    *zap.Logger
	Metrics   *observability.Collector
}

// NewChainBackend compiles the prompt chain around chatModel.
func NewChainBackend(ctx context.Context, chatModel model.BaseChatModel, opts ChainOptions) (*ChainBackend, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile prompt chain: %w", err)
	}

	return &ChainBackend{
		chain:     runnable,
		breaker:   newBreaker(opts.Name, opts.Breaker, logger),
		streaming: opts.Streaming,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

func newBreaker(name string, cfg config.BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if name == "" {
		name = "text-generation"
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// cancellation by the caller says nothing about backend health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// Generate implements Backend.
func (b *ChainBackend) Generate(ctx context.Context, promptText string) (string, error) {
	task := TaskFromContext(ctx)
	start := time.Now()

	out, err := b.breaker.Execute(func() (interface{}, error) {
		msg, err := b.chain.Invoke(ctx, map[string]any{"prompt": promptText})
		if err != nil {
			return nil, err
		}
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			return nil, errEmptyResponse
		}
		return msg.Content, nil
	})
	if err != nil {
		b.finish(task, start, 0, err)
		return "", fmt.Errorf("%w: %w", domain.ErrBackend, err)
	}

	text := out.(string)
	b.finish(task, start, len(text), nil)
	return text, nil
}

// Stream implements Streamer. It falls back to Generate when streaming is
// disabled in configuration.
func (b *ChainBackend) Stream(ctx context.Context, promptText string, onDelta func(string)) (string, error) {
	if !b.streaming {
		text, err := b.Generate(ctx, promptText)
		if err == nil && onDelta != nil {
			onDelta(text)
		}
		return text, err
	}

	task := TaskFromContext(ctx)
	start := time.Now()

	out, err := b.breaker.Execute(func() (interface{}, error) {
		stream, err := b.chain.Stream(ctx, map[string]any{"prompt": promptText})
		if err != nil {
			return nil, err
		}
		defer stream.Close()

		chunks := make([]*schema.Message, 0, 16)
		for {
			chunk, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				break
			}
			if recvErr != nil {
				return nil, recvErr
			}
			if chunk == nil {
				continue
			}
			chunks = append(chunks, chunk)
			if chunk.Content != "" && onDelta != nil {
				onDelta(chunk.Content)
			}
		}
		if len(chunks) == 0 {
			return nil, errEmptyResponse
		}

		full, err := schema.ConcatMessages(chunks)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(full.Content) == "" {
			return nil, errEmptyResponse
		}
		return full.Content, nil
	})
	if err != nil {
		b.finish(task, start, 0, err)
		return "", fmt.Errorf("%w: %w", domain.ErrBackend, err)
	}

	text := out.(string)
	b.finish(task, start, len(text), nil)
	return text, nil
}

func (b *ChainBackend) finish(task string, start time.Time, length int, err error) {
	elapsed := time.Since(start)
	outcome := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}
	b.metrics.ObserveBackendCall(task, outcome, elapsed.Seconds())

	if err != nil {
		b.logger.Warn("text generation failed",
			zap.String("task", task),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return
	}
	b.logger.Info("text generated",
		zap.String("task", task),
		zap.Int("length", length),
		zap.Duration("elapsed", elapsed))
}

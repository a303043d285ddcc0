package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/qanoonbuddy/backend/internal/config"
	"github.com/qanoonbuddy/backend/internal/domain"
	"github.com/qanoonbuddy/backend/internal/observability"
)

// ModelFactory creates a chat model authenticated with apiKey.
type ModelFactory func(ctx context.Context, apiKey string) (model.BaseChatModel, error)

// DefaultCachedBackends bounds the backend cache when the config leaves it unset.
const DefaultCachedBackends = 32

// Provider resolves credentials to backends. Compiled chains are cached per
// credential; the least recently used one is dropped once the cache is full.
type Provider struct {
	cfg      config.AIConfig
	newModel ModelFactory
	logger   *zap.Logger
	metrics  *observability.Collector

	mu       sync.Mutex
	backends *lru.Cache[string, *ChainBackend]
}

// NewProvider creates a provider backed by the Ark chat model.
func NewProvider(cfg config.AIConfig, logger *zap.Logger, metrics *observability.Collector) *Provider {
	factory := func(ctx context.Context, apiKey string) (model.BaseChatModel, error) {
		return cfg.NewChatModel(ctx, apiKey)
	}
	return NewProviderWithFactory(cfg, factory, logger, metrics)
}

// NewProviderWithFactory allows swapping the chat model implementation.
func NewProviderWithFactory(cfg config.AIConfig, factory ModelFactory, logger *zap.Logger, metrics *observability.Collector) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.CachedBackends
	if size <= 0 {
		size = DefaultCachedBackends
	}
	// size > 0, New 不会返回错误
	backends, _ := lru.New[string, *ChainBackend](size)
	return &Provider{
		cfg:      cfg,
		newModel: factory,
		logger:   logger,
		metrics:  metrics,
		backends: backends,
	}
}

// CachedBackends reports how many backends are currently cached.
func (p *Provider) CachedBackends() int {
	return p.backends.Len()
}

// Available reports whether a call with the given session override would
// find a credential. It performs no I/O.
func (p *Provider) Available(sessionOverride string) bool {
	if !p.cfg.Configured() {
		return false
	}
	_, ok := ResolveCredential(p.cfg.APIKey, sessionOverride)
	return ok
}

// StreamingEnabled 指示是否开启流式输出。
func (p *Provider) StreamingEnabled() bool {
	return p.cfg.Stream
}

// Resolve returns the backend for the resolved credential, or
// domain.ErrBackendUnavailable when none is configured.
func (p *Provider) Resolve(ctx context.Context, sessionOverride string) (Backend, error) {
	if !p.cfg.Configured() {
		return nil, fmt.Errorf("model not configured: %w", domain.ErrBackendUnavailable)
	}
	apiKey, ok := ResolveCredential(p.cfg.APIKey, sessionOverride)
	if !ok {
		return nil, fmt.Errorf("no api key: %w", domain.ErrBackendUnavailable)
	}

	cacheKey := fingerprint(apiKey)

	p.mu.Lock()
	defer p.mu.Unlock()

	if backend, ok := p.backends.Get(cacheKey); ok {
		return backend, nil
	}

	chatModel, err := p.newModel(ctx, apiKey)
	if err != nil {
		p.logger.Warn("failed to create chat model", zap.Error(err))
		return nil, fmt.Errorf("create chat model: %w: %w", domain.ErrBackendUnavailable, err)
	}

	backend, err := NewChainBackend(ctx, chatModel, ChainOptions{
		Name:      "ark-" + cacheKey[:8],
		Streaming: p.cfg.Stream,
		Breaker:   p.cfg.Breaker,
		Logger:    p.logger,
		Metrics:   p.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}

	if evicted := p.backends.Add(cacheKey, backend); evicted {
		p.logger.Debug("backend cache full, evicted least recently used entry")
	}
	p.logger.Info("text generation backend ready", zap.String("model", p.cfg.Model), zap.String("credential", cacheKey[:8]))
	return backend, nil
}

// fingerprint keeps raw keys out of map keys and logs.
func fingerprint(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

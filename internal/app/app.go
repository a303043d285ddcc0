// Package app assembles the services shared by the HTTP server and the CLI.
package app

import (
	"go.uber.org/zap"

	"github.com/qanoonbuddy/backend/internal/config"
	"github.com/qanoonbuddy/backend/internal/model/caselaw"
	"github.com/qanoonbuddy/backend/internal/model/persona"
	"github.com/qanoonbuddy/backend/internal/observability"
	"github.com/qanoonbuddy/backend/internal/service/ai"
	"github.com/qanoonbuddy/backend/internal/service/chat"
	"github.com/qanoonbuddy/backend/internal/service/document"
	"github.com/qanoonbuddy/backend/internal/service/legal"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "qanoon_buddy"

// App 持有进程内的全部服务
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Collector
	Personas persona.Store
	Cases    *caselaw.Index
	Provider *ai.Provider
	Chat     *chat.Service
	Legal    *legal.Service
}

// New wires the in-memory stores, the text generation provider and the
// services on top of them. It never fails when the backend credential is
// missing; the backend is simply unavailable.
func New(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := observability.NewCollector(MetricsNamespace)

	personas := persona.NewMemoryStore(persona.Seed())
	cases := caselaw.NewIndex(caselaw.Seed())
	provider := ai.NewProvider(cfg.AI, logger.Named("ai"), metrics)

	chatSvc := chat.NewService(personas, provider, chat.Options{
		HistoryTurns: cfg.Chat.HistoryTurns,
		Logger:       logger.Named("chat"),
	})
	legalSvc := legal.NewService(provider, document.NewPDFExtractor(), cases, cfg.Documents, logger.Named("legal"), metrics)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		Personas: personas,
		Cases:    cases,
		Provider: provider,
		Chat:     chatSvc,
		Legal:    legalSvc,
	}
}

// BackendAvailable reports whether the process-level credential is set.
func (a *App) BackendAvailable() bool {
	return a.Provider.Available("")
}

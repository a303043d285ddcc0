package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/qanoonbuddy/backend/internal/handler/caselaw"
	"github.com/qanoonbuddy/backend/internal/handler/chat"
	"github.com/qanoonbuddy/backend/internal/handler/document"
	"github.com/qanoonbuddy/backend/internal/handler/persona"
	"github.com/qanoonbuddy/backend/internal/handler/realtime"
	"github.com/qanoonbuddy/backend/internal/handler/stream"
	"github.com/qanoonbuddy/backend/internal/handler/translate"
	"github.com/qanoonbuddy/backend/internal/middleware"
	personaModel "github.com/qanoonbuddy/backend/internal/model/persona"
	"github.com/qanoonbuddy/backend/internal/observability"
	chatService "github.com/qanoonbuddy/backend/internal/service/chat"
	"github.com/qanoonbuddy/backend/internal/service/legal"
	"github.com/qanoonbuddy/backend/pkg/utils"
)

// Dependencies 路由所需的服务
type Dependencies struct {
	Personas       personaModel.Store
	Chat           *chatService.Service
	Legal          *legal.Service
	Metrics        *observability.Collector
	Logger         *zap.Logger
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger, deps.Metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(deps.AllowedOrigins))

	r.Get("/metrics", deps.Metrics.Handler().ServeHTTP)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":           "ok",
				"backendAvailable": deps.Legal.BackendAvailable(""),
			})
		})

		persona.New(deps.Personas).RegisterRoutes(api)
		chat.New(deps.Chat, deps.Metrics, logger).RegisterRoutes(api)
		stream.New(deps.Chat, deps.Metrics, logger).RegisterRoutes(api)
		realtime.NewWebSocketHandler(deps.Chat, deps.AllowedOrigins, deps.Metrics, logger).RegisterWebSocketRoutes(api)

		caselaw.New(deps.Legal).RegisterRoutes(api)
		document.New(deps.Legal, logger).RegisterRoutes(api)
		translate.New(deps.Legal).RegisterRoutes(api)
	})

	return r
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/qanoonbuddy/backend/internal/app"
	"github.com/qanoonbuddy/backend/internal/config"
	"github.com/qanoonbuddy/backend/internal/handler"
	"github.com/qanoonbuddy/backend/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	if envErr != nil {
		zl.Debug("no .env file loaded, using process environment", zap.Error(envErr))
	}

	a := app.New(cfg, zl)
	if a.BackendAvailable() {
		zl.Info("text generation backend configured", zap.String("model", cfg.AI.Model))
	} else {
		// 未配置 ARK_API_KEY 时服务照常启动，会话可以通过 PUT /credential 提供 key
		zl.Warn("ARK_API_KEY not set; chat replies need a per-session credential")
	}

	router := handler.NewRouter(handler.Dependencies{
		Personas:       a.Personas,
		Chat:           a.Chat,
		Legal:          a.Legal,
		Metrics:        a.Metrics,
		Logger:         zl.Named("http"),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	if err := startServer(ctx, cfg.Server, router, zl); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, zl *zap.Logger) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: serverCfg.ReadHeaderTimeout,
		IdleTimeout:       120 * time.Second,
	}

	zl.Info("Qanoon Buddy backend listening", zap.String("addr", serverCfg.Addr))
	return runServer(ctx, srv, serverCfg.ShutdownTimeout)
}

func runServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

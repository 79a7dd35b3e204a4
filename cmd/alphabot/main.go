// Package main is the entry point for the Alpha Bot bridge server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/alphabot/alphabot-client/internal/app"
	"github.com/alphabot/alphabot-client/internal/config"
	"github.com/alphabot/alphabot-client/internal/handler"
	"github.com/alphabot/alphabot-client/pkg/logger"
	"github.com/alphabot/alphabot-client/pkg/tracing"
)

func main() {
	cfg := config.Load()

	var paths []string
	if cfg.LogFile != "" {
		paths = append(paths, cfg.LogFile)
	}
	log, err := logger.New(cfg.LogLevel, paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting bridge server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "alphabot-client", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize services", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	// A nil *Client must not reach the handlers as a non-nil interface.
	var events handler.Pinger
	var replayer handler.EventReplayer
	if a.Events != nil {
		events, replayer = a.NATS, a.Events
	}

	router := handler.NewRouter(handler.RouterConfig{
		Session:           handler.NewSessionHandler(a.Session, log),
		Stream:            handler.NewStreamHandler(a.Session, replayer, log),
		Rooms:             handler.NewRoomHandler(a.Rooms, log),
		Account:           handler.NewAccountHandler(a.Accounts, log),
		Library:           handler.NewLibraryHandler(a.Library, log),
		Health:            handler.NewHealthHandler(events),
		Credentials:       a.Credentials,
		AllowedOrigins:    cfg.AllowedOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		Logger:            log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

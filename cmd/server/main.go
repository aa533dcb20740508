package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/cors"

	"codevid/internal/config"
	"codevid/internal/content"
	"codevid/internal/handler"
	"codevid/internal/janitor"
	"codevid/internal/model"
	"codevid/internal/pipeline"
	"codevid/internal/render"
	"codevid/internal/storage"
	"codevid/internal/stream"
	"codevid/internal/tts"
	"codevid/internal/webhook"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting codevid service", "version", version)

	// Prepare output directories
	media := storage.NewStore(cfg.OutputDir, cfg.AudioDir)
	if err := media.EnsureDirs(); err != nil {
		slog.Error("Failed to create output directories", "error", err)
		os.Exit(1)
	}

	// Initialize registry and broadcast bus
	store := model.NewJobStore()
	hub := stream.NewHub(cfg.MaxBufferEvents, cfg.SubscriberQueueLen, cfg.CleanupGracePeriod)

	// Initialize collaborators
	generator := content.NewGenerator(cfg.ClaudeBin, hub)
	synthesizer := tts.NewSynthesizer(cfg.EdgeTTSBin, cfg.FFprobeBin, cfg.TTSVoice)
	renderer := render.NewRenderer(cfg.NodeBin, cfg.RemotionDir, cfg.PublicBaseURL, media, hub)
	notifier := webhook.NewDispatcher(cfg.NotifyTimeout)

	// Initialize pipeline runner
	runner := pipeline.NewRunner(
		store,
		hub,
		media,
		generator,
		synthesizer,
		renderer,
		notifier,
		pipeline.Timeouts{
			Content:   cfg.ContentTimeout,
			AudioStep: cfg.AudioStepTimeout,
			Bundle:    cfg.BundleTimeout,
			Render:    cfg.RenderTimeout,
		},
		cfg.MaxProgressLogs,
		cfg.MaxConcurrentJobs,
	)

	// Initialize janitor
	var sweeper *janitor.Janitor
	if cfg.JanitorEnabled {
		var err error
		sweeper, err = janitor.NewJanitor(store, media, cfg.JanitorSchedule, cfg.JanitorRetention)
		if err != nil {
			slog.Error("Invalid janitor schedule", "schedule", cfg.JanitorSchedule, "error", err)
			os.Exit(1)
		}
		sweeper.Start()
	} else {
		slog.Info("Janitor is disabled by configuration")
	}

	// Initialize handlers
	jobHandler := handler.NewJobHandler(store, hub, media, runner, generator, cfg.ContentTimeout)
	streamHandler := handler.NewStreamHandler(store, hub, cfg.KeepaliveInterval)
	mediaHandler := handler.NewMediaHandler(store, media)
	healthHandler := handler.NewHealthHandler(store, version)

	// Create router
	router := handler.NewRouter(
		jobHandler,
		streamHandler,
		mediaHandler,
		healthHandler,
		cors.Options{
			AllowedOrigins: strings.Split(cfg.CORSAllowedOrigins, ","),
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Last-Event-ID", "X-Correlation-ID"},
		},
	)

	// Create HTTP server. No write timeout: SSE streams stay open for
	// the whole job run.
	server := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     router.Handler(),
		ReadTimeout: cfg.HTTPReadTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if sweeper != nil {
		slog.Info("Stopping janitor...")
		sweeper.Stop(shutdownCtx)
	}

	slog.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("codevid service stopped")
}

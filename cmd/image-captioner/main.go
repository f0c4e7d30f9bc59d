package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	captioner "github.com/menta2k/image-captioner"
	"github.com/menta2k/image-captioner/internal/config"
	"github.com/menta2k/image-captioner/internal/server"
	"github.com/menta2k/image-captioner/pkg/caption"
	"github.com/menta2k/image-captioner/pkg/device"
	"github.com/menta2k/image-captioner/pkg/loader"
	"github.com/menta2k/image-captioner/pkg/types"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration from the environment
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Flags override the environment
	var backend string
	var preload bool
	flag.StringVar(&cfg.Host, "host", cfg.Host, "server address")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "server port")
	flag.StringVar(&backend, "backend", string(cfg.Backend), "backend to use: ollama or llamacpp")
	flag.StringVar(&cfg.BackendURL, "url", cfg.BackendURL, "inference server URL")
	flag.StringVar(&cfg.Model, "model", cfg.Model, "vision model name")
	flag.BoolVar(&preload, "preload", false, "load the model at startup instead of on the first request")
	flag.Parse()
	cfg.Backend = types.Backend(backend)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	fmt.Println("🖼️ AI Image Captioning App")
	slog.Info("starting up",
		"model", cfg.Model,
		"backend", cfg.Backend,
		"backend_url", cfg.BackendURL,
	)

	// Pick the device once; the loader may downgrade it to CPU later
	dev := device.Detect()

	ldr := loader.New(cfg.Model, dev, captioner.BackendFactory(cfg.Backend, cfg.BackendURL))
	svc := caption.New(ldr)

	srv, err := server.New(cfg, svc)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if preload {
		go func() {
			if _, err := ldr.EnsureLoaded(ctx); err != nil {
				slog.Error("model preload failed", "error", err)
			}
		}()
	}

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	fmt.Println("👋 App stopped by user")
}

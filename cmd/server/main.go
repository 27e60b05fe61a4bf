package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowergardn/coverly/internal/clip"
	"github.com/flowergardn/coverly/internal/media"
	"github.com/flowergardn/coverly/internal/platform/config"
	"github.com/flowergardn/coverly/internal/platform/logger"
	"github.com/flowergardn/coverly/internal/platform/metrics"
	"github.com/flowergardn/coverly/internal/soundcloud"
	"github.com/flowergardn/coverly/internal/storage"

	"github.com/go-chi/chi/v5"
)

const (
	shutdownTimeout   = 10 * time.Second
	memSampleInterval = 5 * time.Second
)

func main() {
	_ = config.Load()

	cfg, cfgErr := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfgErr != nil {
		log.Error("invalid configuration", "error", cfgErr)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	met := metrics.New()
	go met.RunMemorySampler(ctx, memSampleInterval)

	store, err := storage.New(ctx, storage.Config{
		Endpoint:        cfg.R2Endpoint,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		Bucket:          cfg.R2Bucket,
	})
	if err != nil {
		log.Error("object store init failed", "error", err)
		os.Exit(1)
	}

	pipe := clip.NewPipeline(
		soundcloud.NewClient(log),
		media.NewProber(),
		media.NewClipper(),
		store,
		met,
		log,
		clip.PipelineConfig{
			TmpDir:             cfg.TmpDir,
			StageTimeout:       cfg.StageTimeout,
			MaxConcurrentClips: cfg.MaxConcurrentClips,
		},
	)
	h := clip.NewHandler(pipe, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", met.Handler().ServeHTTP)
	r.Post("/", h.CreateClip)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", cfg.Port,
		"env", cfg.Env,
		"bucket", cfg.R2Bucket,
		"max_concurrent_clips", cfg.MaxConcurrentClips,
	)

	<-ctx.Done()

	log.Info("shutdown signal received, draining connections")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

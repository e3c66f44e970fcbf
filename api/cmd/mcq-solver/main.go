package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"mcq-solver/api/internal/config"
	"mcq-solver/api/internal/handle"
	"mcq-solver/api/internal/httpserver"
	"mcq-solver/api/internal/solver"
	"mcq-solver/api/internal/solver/gemini"
	"mcq-solver/api/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := util.NewLogger(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	s := solver.New(gemini.New(cfg.GeminiAPIKey), solver.Options{
		Models:         cfg.GeminiModels,
		MaxImageSide:   cfg.MaxImageSide,
		MaxImagePixels: cfg.MaxImagePixels,
		Timeout:        cfg.AnalyzeTimeout,
	}, log)
	h := handle.New(s, cfg, log)

	router := httpserver.NewRouter(cfg, log, h.Routes)

	log.Info("starting MCQ solver backend",
		zap.String("port", cfg.Port),
		zap.Strings("models", cfg.GeminiModels),
		zap.String("deployment", cfg.Deployment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := httpserver.Run(ctx, cfg.Addr(), router, cfg.ShutdownTimeout, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mcq-solver/api/internal/config"
	"mcq-solver/api/internal/handle"
	"mcq-solver/api/internal/httpserver"
	"mcq-solver/api/internal/solver"
	"mcq-solver/api/internal/solver/gemini"
	"mcq-solver/api/internal/telegram"
	"mcq-solver/api/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.TelegramBotToken == "" {
		fmt.Fprintln(os.Stderr, "config: TELEGRAM_BOT_TOKEN is required for the bot")
		os.Exit(1)
	}

	log, err := util.NewLogger(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal("telegram login failed", zap.Error(err))
	}
	bot.Debug = false
	log.Info("authorized on telegram", zap.String("bot", bot.Self.UserName))

	s := solver.New(gemini.New(cfg.GeminiAPIKey), solver.Options{
		Models:         cfg.GeminiModels,
		MaxImageSide:   cfg.MaxImageSide,
		MaxImagePixels: cfg.MaxImagePixels,
		Timeout:        cfg.AnalyzeTimeout,
	}, log)

	r := &telegram.Router{
		Bot:           bot,
		Analyzer:      s,
		Log:           log.Named("telegram"),
		MaxImageBytes: cfg.MaxBodyBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The HTTP surface runs alongside polling so platforms that probe a port
	// see the service as healthy.
	h := handle.New(s, cfg, log)
	router := httpserver.NewRouter(cfg, log, h.Routes)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := httpserver.Run(ctx, cfg.Addr(), router, cfg.ShutdownTimeout, log); err != nil {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	r.Poll(ctx, bot)
	wg.Wait()
}

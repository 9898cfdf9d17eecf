// Package main contains the entrypoint for the financial advice service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/finadvisor/internal/advice"
	"github.com/edgard/finadvisor/internal/config"
	"github.com/edgard/finadvisor/internal/llm"
	"github.com/edgard/finadvisor/internal/logger"
	"github.com/edgard/finadvisor/internal/sanitize"
	"github.com/edgard/finadvisor/internal/server"
	"github.com/edgard/finadvisor/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires config, logger, completion client, pipeline, the HTTP server and
// the optional Telegram bot, then blocks until ctx is cancelled or a
// component fails. It returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	svcCfg := advice.ServiceConfig{
		Provider: cfg.Advice.Provider,
		APIKey:   cfg.Advice.APIKey,
		BaseURL:  cfg.Advice.BaseURL,
	}

	var completer llm.Completer
	if svcCfg.Configured() {
		completer, err = llm.NewCompleter(ctx, svcCfg.Provider, svcCfg.APIKey, svcCfg.BaseURL, nil, log)
		if err != nil {
			log.Error("Failed to initialize completion client", "provider", svcCfg.Provider, "error", err)
			return 1
		}
		log.Info("Completion client initialized", "provider", svcCfg.Provider, "model", svcCfg.Model())
	} else {
		log.Warn("No API key configured; advice requests will fail until one is set", "provider", svcCfg.Provider)
	}

	pipeline := advice.NewPipeline(svcCfg, completer, log)

	handler := server.NewAdviceHandler(log, pipeline, cfg.Advice.Timeout, cfg.HTTP.MaxBodyBytes)
	httpServer := server.New(log, cfg.HTTP, server.NewRouter(log, handler))

	var tg *tgbot.Bot
	if cfg.Telegram.Enabled() {
		tg, err = telegram.NewTelegramBot(cfg.Telegram.Token, log, tgbot.WithMiddlewares(logger.Middleware(log)))
		if err != nil {
			log.Error("Failed to create Telegram bot", "error", err)
			return 1
		}

		me, err := tg.GetMe(ctx)
		if err != nil {
			log.Error("Failed to get bot info", "error", err)
			return 1
		}
		log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

		deps := telegram.HandlerDeps{
			Logger:   log,
			Messages: cfg.Telegram.Messages,
			Advisor:  pipeline,
			Timeout:  cfg.Advice.Timeout,

			Sanitizer: sanitize.NewPlainTextPolicy(),
		}
		if err := telegram.RegisterHandlers(tg, log, telegram.RegisterAllCommands(deps)); err != nil {
			log.Error("Failed to register Telegram handlers", "error", err)
			return 1
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(httpServer.Start)

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown failed", "error", err)
			return err
		}
		return nil
	})

	if tg != nil {
		g.Go(func() error {
			log.Info("Starting Telegram bot listener")
			tg.Start(gCtx)
			log.Info("Telegram bot listener stopped")
			if gCtx.Err() == nil {
				return errors.New("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	log.Info("Advisor started", "addr", httpServer.Addr(), "telegram", tg != nil)
	runErr := g.Wait()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Advisor stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Advisor stopped gracefully")
	return 0
}
